// Package models defines the domain entities exchanged with the EnterViu backend.
package models

import "time"

// Conversation represents a persisted chat thread.
// The backend owns the record; clients hold a cached copy per open session.
type Conversation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
	SystemPrompt *string   `json:"system_prompt,omitempty"`
}

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single chat message within a conversation.
// A streaming assistant message keeps IsStreaming set until the terminal
// complete event arrives, at which point Content is final.
type Message struct {
	ID              string     `json:"id"`
	ConversationID  string     `json:"conversation_id"`
	Role            Role       `json:"role"`
	Content         string     `json:"content"`
	Timestamp       time.Time  `json:"timestamp"`
	ModelUsed       *string    `json:"model_used,omitempty"`
	ResponseTimeMS  *int64     `json:"response_time_ms,omitempty"`
	FileAttachments []string   `json:"file_attachments,omitempty"`
	SurveyData      []Question `json:"survey_data,omitempty"`
	IsStreaming     bool       `json:"-"`
}
