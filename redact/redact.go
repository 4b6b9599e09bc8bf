package redact

import (
	"regexp"
	"sort"

	"github.com/sonnes/copilotmd/core"
)

// Config controls which rules the Redactor applies.
type Config struct {
	Secrets    bool
	PII        bool
	ExtraRules []Rule
	Allowlist  []string // regex patterns to skip
}

// Redactor applies redaction rules to all string content in a ChatLog.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	rules = append(rules, cfg.ExtraRules...)

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		if re, err := regexp.Compile(pattern); err == nil {
			allowlist = append(allowlist, re)
		}
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Transform redacts the user's messages, references, round responses and
// every string inside the raw response fragments.
func (r *Redactor) Transform(log *core.ChatLog) error {
	if len(r.rules) == 0 {
		return nil
	}
	for i := range log.Requests {
		r.redactRequest(&log.Requests[i])
	}
	return nil
}

func (r *Redactor) redactRequest(req *core.Request) {
	if req.Message.Text != nil {
		text := r.redactString(*req.Message.Text)
		req.Message.Text = &text
	}
	for i := range req.Message.Parts {
		req.Message.Parts[i].Text = r.redactString(req.Message.Parts[i].Text)
	}
	for i := range req.References {
		req.References[i].Name = r.redactString(req.References[i].Name)
	}
	for i := range req.Response {
		req.Response[i] = walkRaw(req.Response[i], r.redactString)
	}
	if req.Result != nil {
		for i := range req.Result.ToolCallRounds {
			round := &req.Result.ToolCallRounds[i]
			round.Response = r.redactString(round.Response)
		}
	}
}

// redactString applies all rules to s. Overlapping matches resolve to
// earliest start, then longest. Allowlisted values are skipped.
func (r *Redactor) redactString(s string) string {
	if len(s) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{
				start: m.Start,
				end:   m.End,
				text:  rule.Replacement(m),
			})
		}
	}

	if len(reps) == 0 {
		return s
	}

	// Sort by start position, then longest match first for ties.
	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	// Apply non-overlapping replacements.
	var result []byte
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue // overlaps with a previous replacement
		}
		result = append(result, s[pos:rep.start]...)
		result = append(result, rep.text...)
		pos = rep.end
	}
	result = append(result, s[pos:]...)
	return string(result)
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
