package models

// ChatRequest is the body of POST /chat. SessionID is optional; the server
// generates a fresh one when it is omitted.
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}
