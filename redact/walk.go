package redact

import (
	"bytes"
	"encoding/json"
)

const maxWalkDepth = 16

// walkAny applies fn to every string leaf in v, recursively.
func walkAny(v any, fn func(string) string) any {
	return walkDepth(v, fn, 0)
}

func walkDepth(v any, fn func(string) string, depth int) any {
	if depth > maxWalkDepth {
		return v
	}
	switch val := v.(type) {
	case string:
		return fn(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = walkDepth(child, fn, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = walkDepth(child, fn, depth+1)
		}
		return out
	default:
		return v
	}
}

// walkRaw applies fn to every string leaf of a raw JSON value. The original
// bytes are returned untouched when no leaf changed, which keeps object key
// order intact for fragments without sensitive data.
func walkRaw(raw json.RawMessage, fn func(string) string) json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}

	changed := false
	out := walkAny(v, func(s string) string {
		r := fn(s)
		if r != s {
			changed = true
		}
		return r
	})
	if !changed {
		return raw
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return raw
	}
	return json.RawMessage(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
