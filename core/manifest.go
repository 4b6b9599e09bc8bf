package core

import "time"

// ManifestEntry holds lightweight metadata for a single converted session,
// used by the manifest file and the index page. It mirrors the fields of
// ChatLog that the index needs, without carrying the requests.
type ManifestEntry struct {
	SessionID    string     `json:"session_id"`
	Title        string     `json:"title,omitempty"`
	Requester    string     `json:"requester,omitempty"`
	Responder    string     `json:"responder,omitempty"`
	Model        string     `json:"model,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	DiffStats    *DiffStats `json:"diff_stats,omitempty"`
	RequestCount int        `json:"request_count"`
	Href         string     `json:"href"`
}

// NewManifestEntry extracts metadata from a ChatLog and pairs it with the
// given href (relative link to the rendered page).
func NewManifestEntry(log *ChatLog, href string) ManifestEntry {
	return ManifestEntry{
		SessionID:    log.SessionID,
		Title:        Title(log),
		Requester:    log.RequesterUsername,
		Responder:    log.ResponderUsername,
		Model:        PrimaryModel(log),
		CreatedAt:    log.CreatedAt,
		UpdatedAt:    log.UpdatedAt,
		DiffStats:    log.Stats(),
		RequestCount: len(log.Requests),
		Href:         href,
	}
}

// Title derives a session title from the first request with message text.
func Title(log *ChatLog) string {
	for _, req := range log.Requests {
		if p := req.Preview(); p != NoMessagePreview {
			return p
		}
	}
	return ""
}

// PrimaryModel returns the display name of the first model that answered.
func PrimaryModel(log *ChatLog) string {
	for _, req := range log.Requests {
		if m := req.ModelDisplayName(); m != "" {
			return m
		}
	}
	return ""
}
