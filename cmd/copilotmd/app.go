package main

import (
	"context"
	"fmt"

	"github.com/sonnes/copilotmd/archive"
	"github.com/sonnes/copilotmd/compact"
	"github.com/sonnes/copilotmd/config"
	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/reader"
	"github.com/sonnes/copilotmd/reader/copilot"
	"github.com/sonnes/copilotmd/redact"
	"github.com/sonnes/copilotmd/render"
	htmlrender "github.com/sonnes/copilotmd/render/html"
	jsonrender "github.com/sonnes/copilotmd/render/json"
	"github.com/sonnes/copilotmd/render/terminal"
)

// app holds the loaded config and the renderer registry used by commands.
type app struct {
	cfg       config.Config
	renderers map[string]func() render.Renderer
}

func newApp(cfg config.Config) *app {
	return &app{
		cfg: cfg,
		renderers: map[string]func() render.Renderer{
			"markdown": func() render.Renderer { return cfg.MarkdownRenderer() },
			"html":     func() render.Renderer { return htmlrender.New(cfg.MarkdownRenderer()) },
			"json": func() render.Renderer {
				return &jsonrender.Renderer{Indent: true, Markdown: cfg.MarkdownRenderer()}
			},
			"terminal": func() render.Renderer { return terminal.New() },
		},
	}
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// appFrom returns the app stored by the root command, or one built from the
// default config.
func appFrom(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey{}).(*app); ok {
		return a
	}
	return newApp(config.DefaultConfig())
}

func (a *app) copilotReader() *copilot.Reader {
	return &copilot.Reader{Dir: a.cfg.StorageDir, MaxBytes: a.cfg.MaxFileSize}
}

func (a *app) reader() reader.Reader {
	return archivedReader{Reader: a.copilotReader(), dir: a.cfg.Archive.Dir}
}

func (a *app) htmlRenderer() *htmlrender.Renderer {
	return htmlrender.New(a.cfg.MarkdownRenderer())
}

func (a *app) renderer(name string) (render.Renderer, error) {
	fn, ok := a.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(), nil
}

// archivedReader falls back to the archive directory for sessions that VS
// Code no longer keeps.
type archivedReader struct {
	reader.Reader
	dir string
}

func (r archivedReader) ReadSession(sessionID string) (*core.ChatLog, error) {
	chatLog, err := r.Reader.ReadSession(sessionID)
	if err == nil || r.dir == "" || !archive.IsArchived(sessionID, r.dir) {
		return chatLog, err
	}
	return r.ReadFile(archive.Path(sessionID, r.dir))
}

// selection names the sessions a command operates on. Exactly one field
// must be set.
type selection struct {
	File      string
	Session   string
	Workspace string
	All       bool
}

// readLogs dispatches to the Reader method matching the selection.
func readLogs(r reader.Reader, sel selection) ([]*core.ChatLog, error) {
	n := 0
	for _, set := range []bool{sel.File != "", sel.Session != "", sel.Workspace != "", sel.All} {
		if set {
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("one of --file, --session, --workspace, or --all is required")
	}
	if n > 1 {
		return nil, fmt.Errorf("only one of --file, --session, --workspace, or --all may be specified")
	}

	switch {
	case sel.File != "":
		l, err := r.ReadFile(sel.File)
		if err != nil {
			return nil, err
		}
		return []*core.ChatLog{l}, nil
	case sel.Session != "":
		l, err := r.ReadSession(sel.Session)
		if err != nil {
			return nil, err
		}
		return []*core.ChatLog{l}, nil
	case sel.Workspace != "":
		return r.ReadWorkspace(sel.Workspace)
	default:
		return r.ReadAll()
	}
}

// transformOptions carries the transformer flags shared by several commands.
type transformOptions struct {
	NoRedact   bool
	Redact     []string
	Compact    bool
	StripEdits bool
}

// transformers builds the redaction and compaction chain. Flags override
// the config file.
func (a *app) transformers(opts transformOptions) ([]core.Transformer, error) {
	var chain []core.Transformer

	redactor, err := newRedactor(a.cfg, opts)
	if err != nil {
		return nil, err
	}
	if redactor != nil {
		chain = append(chain, redactor)
	}

	if opts.Compact || opts.StripEdits || a.cfg.Compact.Enabled {
		chain = append(chain, compact.New(compact.Config{
			StripEdits: opts.StripEdits || a.cfg.Compact.StripEdits,
		}))
	}
	return chain, nil
}

// newRedactor returns nil when redaction is disabled by flag or config.
func newRedactor(cfg config.Config, opts transformOptions) (*redact.Redactor, error) {
	if opts.NoRedact {
		return nil, nil
	}
	if len(opts.Redact) == 0 && !cfg.Redact.Enabled {
		return nil, nil
	}

	rc, err := cfg.RedactorConfig()
	if err != nil {
		return nil, fmt.Errorf("load redaction rules: %w", err)
	}

	if len(opts.Redact) > 0 {
		rc.Secrets, rc.PII = false, false
		for _, r := range opts.Redact {
			switch r {
			case "secrets":
				rc.Secrets = true
			case "pii":
				rc.PII = true
			default:
				return nil, fmt.Errorf("unknown redaction rule %q", r)
			}
		}
	}

	return redact.New(rc), nil
}

// applyTransformers runs the chain over every log.
func applyTransformers(logs []*core.ChatLog, chain []core.Transformer) error {
	for _, l := range logs {
		if err := core.Chain(l, chain...); err != nil {
			return fmt.Errorf("transform %s: %w", l.SessionID, err)
		}
	}
	return nil
}
