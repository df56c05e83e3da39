package models

import "time"

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage is one transcript entry. Messages are never mutated once appended.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	ReplyTo   string    `json:"replyTo,omitempty"` // set on assistant replies
}

// AskReq is the body of POST /api/askAI. Report optionally carries the
// /get_report payload the user is looking at.
type AskReq struct {
	Message string     `json:"message"`
	Report  *RawReport `json:"report,omitempty"`
}

// AskResp is the body returned by POST /api/askAI.
type AskResp struct {
	Response string `json:"response"`
}
