package model

import (
	"time"
)

// Role represents the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of an assistant conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelHistory returns the history to send to the language model: every
// prior message with any leading model-role entries removed, so the
// sequence always starts with a user turn.
func ModelHistory(transcript []Message) []Message {
	start := 0
	for start < len(transcript) && transcript[start].Role == RoleModel {
		start++
	}
	out := make([]Message, len(transcript)-start)
	copy(out, transcript[start:])
	return out
}

// Conversation is a snapshot of an assistant conversation.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Messages  []Message `json:"messages"`
	Busy      bool      `json:"busy"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SendMessageRequest is the request to send a message to the assistant.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is returned after a completed assistant turn.
type SendMessageResponse struct {
	Reply        Message      `json:"reply"`
	Conversation Conversation `json:"conversation"`
}

// PromptCategory groups suggested assistant questions by transport mode.
type PromptCategory struct {
	Category string   `json:"category"`
	Prompts  []string `json:"prompts"`
}
