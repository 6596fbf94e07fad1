package models

// ChatResponse is the body returned by POST /chat. Sources holds the metadata
// of the chunks the answer was grounded on, deduplicated by title.
type ChatResponse struct {
	Response  string              `json:"response"`
	SessionID string              `json:"session_id"`
	Sources   []map[string]string `json:"sources"`
}

// MessageResponse is a generic confirmation body, used by DELETE /history.
type MessageResponse struct {
	Message string `json:"message"`
}
