package markdown

import (
	"strings"

	"github.com/sonnes/copilotmd/core"
)

// segment is one piece of an incremental response: either plain text, or a
// fragment whose block is rendered after the response has been assembled.
type segment struct {
	text     string
	deferred *core.Fragment
}

// segments runs the first pass over a response: blank text fragments are
// dropped, deferred fragments are kept whole.
func segments(fragments []core.Fragment) []segment {
	var segs []segment
	for i := range fragments {
		f := fragments[i]
		if f.Deferred() {
			segs = append(segs, segment{deferred: &f})
			continue
		}
		if strings.TrimSpace(f.Text) != "" {
			segs = append(segs, segment{text: f.Text})
		}
	}
	return segs
}

// hasDetail reports whether segs carry tool-call or file-edit detail that
// the consolidated response lacks.
func hasDetail(segs []segment) bool {
	for _, s := range segs {
		if s.deferred == nil {
			continue
		}
		switch s.deferred.Kind {
		case core.FragmentToolInvocation, core.FragmentTextEditGroup:
			return true
		}
	}
	return false
}

// expand runs the second pass: deferred fragments become their blocks and
// all segments are joined line by line. A deferred fragment that renders
// nothing still occupies its line.
func expand(segs []segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.deferred != nil {
			parts = append(parts, renderBlock(*s.deferred))
			continue
		}
		parts = append(parts, s.text)
	}
	return strings.Join(parts, "\n")
}

// renderBlock dispatches a deferred fragment to its block builder.
func renderBlock(f core.Fragment) string {
	switch f.Kind {
	case core.FragmentToolInvocation:
		return toolBlock(f.Tool)
	case core.FragmentTextEditGroup:
		return editBlock(f.Edit)
	case core.FragmentProgressTask:
		return progressLine(f.Task)
	}
	return ""
}

// chooseResponse picks between the consolidated round responses and the
// incremental fragment rendering. The incremental text wins when it carries
// tool or edit detail, or when there is no consolidated text.
func chooseResponse(req core.Request) string {
	consolidated := req.ConsolidatedResponse()
	segs := segments(req.Fragments())
	if len(segs) == 0 {
		return consolidated
	}
	if hasDetail(segs) || strings.TrimSpace(consolidated) == "" {
		return expand(segs)
	}
	return consolidated
}
