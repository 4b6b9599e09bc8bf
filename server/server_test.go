package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/copilotmd/core"
)

func testLogs() []*core.ChatLog {
	return []*core.ChatLog{
		{
			SessionID: "older",
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Requests: []core.Request{{
				Message:  core.Message{Text: core.String("Older question")},
				Response: []json.RawMessage{json.RawMessage(`{"value":"Older answer"}`)},
			}},
		},
		{
			SessionID: "newer",
			CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Requests: []core.Request{{
				Message:  core.Message{Text: core.String("Newer question")},
				Response: []json.RawMessage{json.RawMessage(`{"value":"Newer **answer**"}`)},
			}},
		},
		{
			// Logs without an ID cannot be addressed and are skipped.
			Requests: []core.Request{{Message: core.Message{Text: core.String("Orphan")}}},
		},
	}
}

func get(t *testing.T, h http.Handler, path string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestIndex(t *testing.T) {
	s := New(testLogs(), nil)

	res, body := get(t, s, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `href="/session/newer"`)
	assert.Contains(t, body, `href="/session/older"`)
	assert.NotContains(t, body, "Orphan")
	assert.Less(t, strings.Index(body, "Newer question"), strings.Index(body, "Older question"))
}

func TestSessionPage(t *testing.T) {
	s := New(testLogs(), nil)

	res, body := get(t, s, "/session/newer")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "<strong>answer</strong>")
}

func TestSessionMarkdown(t *testing.T) {
	s := New(testLogs(), nil)

	res, body := get(t, s, "/session/older/markdown")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(body, "# GitHub Copilot Chat Log\n"))
	assert.Contains(t, body, "Older answer")
}

func TestSessionJSON(t *testing.T) {
	s := New(testLogs(), nil)

	res, body := get(t, s, "/session/older/json")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var doc struct {
		SessionID string `json:"session_id"`
		Turns     []struct {
			Response string `json:"response"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "older", doc.SessionID)
	require.Len(t, doc.Turns, 1)
	assert.Equal(t, "Older answer", doc.Turns[0].Response)
}

func TestNotFound(t *testing.T) {
	s := New(testLogs(), nil)

	for _, path := range []string{"/session/missing", "/session/missing/markdown", "/nope"} {
		res, _ := get(t, s, path)
		assert.Equal(t, http.StatusNotFound, res.StatusCode, path)
	}
}

func TestUpdate(t *testing.T) {
	s := New(nil, nil)

	res, _ := get(t, s, "/session/newer")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	s.Update(testLogs())
	res, _ = get(t, s, "/session/newer")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
