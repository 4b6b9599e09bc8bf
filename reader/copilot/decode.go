package copilot

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/sonnes/copilotmd/core"
)

// Raw JSON deserialization types. These mirror the export on disk. Every
// field is kept raw so that a wrongly typed optional field reads as absent
// instead of failing the whole session.

type rawLog struct {
	SessionID         json.RawMessage `json:"sessionId"`
	RequesterUsername json.RawMessage `json:"requesterUsername"`
	ResponderUsername json.RawMessage `json:"responderUsername"`
	CreationDate      json.RawMessage `json:"creationDate"`
	LastMessageDate   json.RawMessage `json:"lastMessageDate"`
	Requests          json.RawMessage `json:"requests"`
}

type rawRequest struct {
	RequestID    json.RawMessage `json:"requestId"`
	Message      json.RawMessage `json:"message"`
	VariableData json.RawMessage `json:"variableData"`
	Response     json.RawMessage `json:"response"`
	Result       json.RawMessage `json:"result"`
	ModelID      json.RawMessage `json:"modelId"`
	Details      json.RawMessage `json:"details"`
	Timestamp    json.RawMessage `json:"timestamp"`
}

type rawMessage struct {
	Text  json.RawMessage `json:"text"`
	Parts json.RawMessage `json:"parts"`
}

type rawPart struct {
	Text json.RawMessage `json:"text"`
}

type rawVariableData struct {
	Variables json.RawMessage `json:"variables"`
}

type rawVariable struct {
	Name        json.RawMessage `json:"name"`
	Kind        json.RawMessage `json:"kind"`
	OriginLabel json.RawMessage `json:"originLabel"`
}

type rawResult struct {
	Timings  json.RawMessage `json:"timings"`
	Metadata json.RawMessage `json:"metadata"`
}

type rawTimings struct {
	TotalElapsed json.RawMessage `json:"totalElapsed"`
}

type rawMetadata struct {
	ToolCallRounds json.RawMessage `json:"toolCallRounds"`
}

type rawRound struct {
	Response json.RawMessage `json:"response"`
}

const unknownReference = "Unknown"

// decode maps a raw export onto a core.ChatLog. Only a malformed document,
// or one that is not a JSON object, is an error.
func decode(data []byte) (*core.ChatLog, error) {
	var raw rawLog
	if err := json.Unmarshal(stripBOM(data), &raw); err != nil {
		return nil, fmt.Errorf("decode chat log: %w", err)
	}

	chatLog := &core.ChatLog{}
	chatLog.SessionID, _ = decodeAs[string](raw.SessionID)
	chatLog.RequesterUsername, _ = decodeAs[string](raw.RequesterUsername)
	chatLog.ResponderUsername, _ = decodeAs[string](raw.ResponderUsername)

	if ms, ok := decodeAs[float64](raw.CreationDate); ok {
		chatLog.CreatedAt = msToTime(ms)
	}
	if ms, ok := decodeAs[float64](raw.LastMessageDate); ok {
		if t := msToTime(ms); !t.Equal(chatLog.CreatedAt) {
			chatLog.UpdatedAt = &t
		}
	}

	requests, _ := decodeAs[[]json.RawMessage](raw.Requests)
	for _, rr := range requests {
		chatLog.Requests = append(chatLog.Requests, mapRequest(rr))
	}

	if chatLog.CreatedAt.IsZero() {
		for _, req := range chatLog.Requests {
			if req.Timestamp != nil {
				chatLog.CreatedAt = *req.Timestamp
				break
			}
		}
	}

	return chatLog, nil
}

// mapRequest converts one raw request. A request that is not an object
// becomes an empty request so that numbering is preserved.
func mapRequest(data json.RawMessage) core.Request {
	raw, ok := decodeAs[rawRequest](data)
	if !ok {
		return core.Request{}
	}

	req := core.Request{
		Message:    mapMessage(raw.Message),
		References: mapReferences(raw.VariableData),
		Result:     mapResult(raw.Result),
	}
	req.ID, _ = decodeAs[string](raw.RequestID)
	req.ModelID, _ = decodeAs[string](raw.ModelID)
	req.Details, _ = decodeAs[string](raw.Details)
	req.Response, _ = decodeAs[[]json.RawMessage](raw.Response)
	if ms, ok := decodeAs[float64](raw.Timestamp); ok {
		t := msToTime(ms)
		req.Timestamp = &t
	}
	return req
}

func mapMessage(data json.RawMessage) core.Message {
	raw, ok := decodeAs[rawMessage](data)
	if !ok {
		return core.Message{}
	}

	var msg core.Message
	if text, ok := decodeAs[string](raw.Text); ok {
		msg.Text = &text
	}

	parts, _ := decodeAs[[]json.RawMessage](raw.Parts)
	for _, p := range parts {
		rp, ok := decodeAs[rawPart](p)
		if !ok {
			msg.Parts = append(msg.Parts, core.MessagePart{})
			continue
		}
		text, hasText := decodeAs[string](rp.Text)
		msg.Parts = append(msg.Parts, core.MessagePart{Text: text, HasText: hasText})
	}
	return msg
}

func mapReferences(data json.RawMessage) []core.Reference {
	vd, ok := decodeAs[rawVariableData](data)
	if !ok {
		return nil
	}
	vars, _ := decodeAs[[]json.RawMessage](vd.Variables)

	var refs []core.Reference
	for _, v := range vars {
		rv, ok := decodeAs[rawVariable](v)
		if !ok {
			continue
		}
		name, ok := decodeAs[string](rv.Name)
		if !ok {
			name = unknownReference
		}
		ref := core.Reference{Name: name}
		ref.Kind, _ = decodeAs[string](rv.Kind)
		ref.OriginLabel, _ = decodeAs[string](rv.OriginLabel)
		refs = append(refs, ref)
	}
	return refs
}

func mapResult(data json.RawMessage) *core.Result {
	raw, ok := decodeAs[rawResult](data)
	if !ok {
		return nil
	}

	result := &core.Result{}
	if timings, ok := decodeAs[rawTimings](raw.Timings); ok {
		if ms, ok := decodeAs[float64](timings.TotalElapsed); ok {
			result.TotalElapsedMs = &ms
		}
	}
	if meta, ok := decodeAs[rawMetadata](raw.Metadata); ok {
		rounds, _ := decodeAs[[]json.RawMessage](meta.ToolCallRounds)
		for _, r := range rounds {
			rr, ok := decodeAs[rawRound](r)
			if !ok {
				continue
			}
			resp, _ := decodeAs[string](rr.Response)
			result.ToolCallRounds = append(result.ToolCallRounds, core.ToolCallRound{Response: resp})
		}
	}
	return result
}

// decodeAs decodes raw into a T, reporting false when the field is absent,
// null or of another type.
func decodeAs[T any](raw json.RawMessage) (T, bool) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

type rawWorkspace struct {
	Folder json.RawMessage `json:"folder"`
}

// workspaceFolder extracts the local path of a workspace.json "folder" URI.
// Remote and multi-root workspaces report false.
func workspaceFolder(data []byte) (string, bool) {
	raw, ok := decodeAs[rawWorkspace](data)
	if !ok {
		return "", false
	}
	folder, ok := decodeAs[string](raw.Folder)
	if !ok {
		return "", false
	}
	u, err := url.Parse(folder)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}
