// Package install sets up git infrastructure for publishing Copilot chat
// sessions alongside a repository. It creates an orphan branch, a git
// worktree, and a post-commit hook that exports the repository's chat
// sessions into the worktree and commits them.
package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sonnes/copilotmd/render"
)

// WorktreeName is the directory, relative to the repository root, that
// holds the checked-out chats branch.
const WorktreeName = ".copilot-chats"

const (
	hookStart = "# copilotmd-chats-start"
	hookEnd   = "# copilotmd-chats-end"
)

// Config holds the settings for the install command.
type Config struct {
	Format string // export format, e.g. "html"
	Branch string // orphan branch name, e.g. "copilot-chats"
	Dir    string // git repository root (auto-detected if empty)
}

// Run executes the full install sequence.
func Run(cfg Config) error {
	if cfg.Dir == "" {
		dir, err := gitRoot()
		if err != nil {
			return fmt.Errorf("not a git repository (run from inside a repo): %w", err)
		}
		cfg.Dir = dir
	}
	if render.Extension(cfg.Format) == "" {
		return fmt.Errorf("unsupported export format %q", cfg.Format)
	}

	worktreeDir := filepath.Join(cfg.Dir, WorktreeName)

	if _, err := os.Stat(worktreeDir); err == nil {
		return fmt.Errorf("%s/ already exists; remove the worktree first", WorktreeName)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"create orphan branch", func() error { return createOrphanBranch(cfg.Dir, cfg.Branch) }},
		{"add git worktree", func() error { return addWorktree(cfg.Dir, cfg.Branch, worktreeDir) }},
		{"update .gitignore", func() error { return ensureGitignore(cfg.Dir) }},
		{"install git post-commit hook", func() error { return installPostCommitHook(cfg.Dir, cfg.Format) }},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	return nil
}

// gitRoot returns the top-level directory of the current git repo.
func gitRoot() (string, error) {
	return gitOutput("", "rev-parse", "--show-toplevel")
}

// createOrphanBranch creates an orphan branch holding only a .gitkeep.
func createOrphanBranch(repoDir, branch string) error {
	if err := git(repoDir, "rev-parse", "--verify", branch); err == nil {
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "copilotmd-orphan-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	if err := git(repoDir, "worktree", "add", "--detach", tmpDir); err != nil {
		return fmt.Errorf("create temp worktree: %w", err)
	}
	defer func() { _ = git(repoDir, "worktree", "remove", "--force", tmpDir) }()

	if err := git(tmpDir, "checkout", "--orphan", branch); err != nil {
		return fmt.Errorf("checkout orphan: %w", err)
	}
	// Fails harmlessly when nothing is tracked.
	_ = git(tmpDir, "rm", "-rf", "--ignore-unmatch", ".")

	if err := os.WriteFile(filepath.Join(tmpDir, ".gitkeep"), nil, 0o644); err != nil {
		return err
	}

	if err := git(tmpDir, "add", "."); err != nil {
		return fmt.Errorf("stage files: %w", err)
	}
	if err := git(tmpDir, "commit", "-m", "Initialize Copilot chats branch"); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

// addWorktree checks the orphan branch out into worktreeDir.
func addWorktree(repoDir, branch, worktreeDir string) error {
	return git(repoDir, "worktree", "add", worktreeDir, branch)
}

// ensureGitignore adds the worktree directory to .gitignore if not already
// present.
func ensureGitignore(repoDir string) error {
	path := filepath.Join(repoDir, ".gitignore")
	entry := WorktreeName + "/"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString(entry + "\n")
	return err
}

// installPostCommitHook installs or appends to the post-commit hook so that
// every commit exports the chat sessions and commits them in the worktree.
// git rev-parse --git-common-dir finds the hooks directory in both normal
// repos and worktrees.
func installPostCommitHook(repoDir, format string) error {
	gitDir, err := gitOutput(repoDir, "rev-parse", "--git-common-dir")
	if err != nil {
		return fmt.Errorf("find git dir: %w", err)
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repoDir, gitDir)
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return err
	}

	data, err := os.ReadFile(hookPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if strings.Contains(string(data), hookStart) {
		return nil
	}

	f, err := os.OpenFile(hookPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(data) == 0 {
		if _, err := f.WriteString("#!/bin/bash\n"); err != nil {
			return err
		}
	} else if data[len(data)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}

	_, err = f.WriteString(buildPostCommitHook(format))
	return err
}

// git runs a git command in the given directory.
func git(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// gitOutput runs a git command and returns its stdout.
func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// buildPostCommitHook returns the hook fragment with the export format baked
// in. Export failures never block the user's commit.
func buildPostCommitHook(format string) string {
	return fmt.Sprintf(`
%s
# Export Copilot chat sessions and commit them to the chats worktree.
# Installed by copilotmd install.
REPO_ROOT="$(git rev-parse --show-toplevel)"
WORKTREE="$REPO_ROOT/%s"
if [ -d "$WORKTREE/.git" ] || [ -f "$WORKTREE/.git" ]; then
  MAIN_SHA="$(git rev-parse --short HEAD)"
  if command -v copilotmd >/dev/null 2>&1; then
    copilotmd export --dir "$WORKTREE" --folder "$REPO_ROOT" -o %s >/dev/null 2>&1 || true
  fi
  # Unset GIT_DIR/GIT_INDEX_FILE so git -C operates on the worktree's own repo,
  # not the parent repo that triggered this hook.
  unset GIT_DIR GIT_INDEX_FILE GIT_WORK_TREE
  git -C "$WORKTREE" add -A 2>/dev/null
  git -C "$WORKTREE" diff --cached --quiet 2>/dev/null || \
    git -C "$WORKTREE" commit -m "copilot chats @ $MAIN_SHA" --quiet 2>/dev/null || true
fi
%s
`, hookStart, WorktreeName, format, hookEnd)
}
