// Package compact provides a Transformer that replaces verbose tool output
// and edit text with short summaries for compact chat log viewing.
package compact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sonnes/copilotmd/core"
)

// Config controls the compact transformer behavior.
type Config struct {
	// StripEdits drops text-edit-group fragments instead of summarizing them.
	StripEdits bool
}

// Compactor replaces verbose tool content with line-count summaries.
type Compactor struct {
	stripEdits bool
}

// New creates a Compactor from the given config.
func New(cfg Config) *Compactor {
	return &Compactor{stripEdits: cfg.StripEdits}
}

// Transform implements core.Transformer. Diff statistics are cached on the
// log first, since edit text is replaced.
func (c *Compactor) Transform(log *core.ChatLog) error {
	if log.DiffStats == nil {
		log.DiffStats = core.ComputeDiffStats(log)
	}
	for i := range log.Requests {
		if err := c.compactRequest(&log.Requests[i]); err != nil {
			return fmt.Errorf("compact request %d: %w", i+1, err)
		}
	}
	return nil
}

func (c *Compactor) compactRequest(req *core.Request) error {
	out := req.Response[:0:0]
	for _, raw := range req.Response {
		var probe struct {
			Kind string `json:"kind"`
		}
		// Fragments that are not objects carry no tool content.
		_ = json.Unmarshal(raw, &probe)

		switch probe.Kind {
		case "textEditGroup":
			if c.stripEdits {
				continue
			}
			compacted, err := compactEdits(raw)
			if err != nil {
				return err
			}
			raw = compacted
		case "toolInvocationSerialized":
			compacted, err := compactToolOutput(raw)
			if err != nil {
				return err
			}
			raw = compacted
		}
		out = append(out, raw)
	}
	if req.Response != nil {
		req.Response = out
	}
	return nil
}

// compactToolOutput replaces every string output value of a tool invocation
// with a summary. The tool input is left byte-for-byte intact.
func compactToolOutput(raw json.RawMessage) (json.RawMessage, error) {
	var frag map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frag); err != nil {
		return raw, nil
	}
	var details map[string]json.RawMessage
	if err := json.Unmarshal(frag["resultDetails"], &details); err != nil || details == nil {
		return raw, nil
	}
	var outputs []map[string]json.RawMessage
	if err := json.Unmarshal(details["output"], &outputs); err != nil || len(outputs) == 0 {
		return raw, nil
	}

	changed := false
	for _, item := range outputs {
		if summary, ok := summarizeField(item["value"], "output"); ok {
			item["value"] = summary
			changed = true
		}
	}
	if !changed {
		return raw, nil
	}

	var err error
	if details["output"], err = encode(outputs); err != nil {
		return nil, err
	}
	if frag["resultDetails"], err = encode(details); err != nil {
		return nil, err
	}
	return encode(frag)
}

// compactEdits replaces the replacement text of every edit with a summary.
func compactEdits(raw json.RawMessage) (json.RawMessage, error) {
	var frag map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frag); err != nil {
		return raw, nil
	}
	var groups [][]map[string]json.RawMessage
	if err := json.Unmarshal(frag["edits"], &groups); err != nil || len(groups) == 0 {
		return raw, nil
	}

	changed := false
	for _, group := range groups {
		for _, edit := range group {
			if summary, ok := summarizeField(edit["text"], "text"); ok {
				edit["text"] = summary
				changed = true
			}
		}
	}
	if !changed {
		return raw, nil
	}

	var err error
	if frag["edits"], err = encode(groups); err != nil {
		return nil, err
	}
	return encode(frag)
}

// summarizeField returns the encoded summary of a non-empty JSON string.
func summarizeField(raw json.RawMessage, label string) (json.RawMessage, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil || s == "" {
		return nil, false
	}
	out, err := encode(lineSummary(label, s))
	if err != nil {
		return nil, false
	}
	return out, true
}

// lineSummary returns a summary like "[output: 245 lines]" or "[text: 1 line]".
func lineSummary(label, s string) string {
	n := core.CountLines(s)
	if n == 1 {
		return fmt.Sprintf("[%s: 1 line]", label)
	}
	return fmt.Sprintf("[%s: %d lines]", label, n)
}

func encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return json.RawMessage(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
