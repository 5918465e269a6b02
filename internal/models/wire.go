package models

import (
	"fmt"
	"time"
)

// timestampLayouts are the formats the backend has been observed to emit.
// RFC 3339 is canonical; the zoneless layout shows up on older records.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a backend timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MessageResponse is the wire shape of a message as the backend sends it,
// before timestamps are parsed into time.Time.
type MessageResponse struct {
	ID              string     `json:"id"`
	ConversationID  string     `json:"conversation_id"`
	Role            Role       `json:"role"`
	Content         string     `json:"content"`
	Timestamp       string     `json:"timestamp"`
	ModelUsed       *string    `json:"model_used,omitempty"`
	ResponseTimeMS  *int64     `json:"response_time_ms,omitempty"`
	FileAttachments []string   `json:"file_attachments,omitempty"`
	SurveyData      []Question `json:"survey_data,omitempty"`
}

// ToMessage converts the wire record into a domain Message, preserving id,
// role and content and parsing the timestamp.
func (r MessageResponse) ToMessage() (Message, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", r.ID, err)
	}

	return Message{
		ID:              r.ID,
		ConversationID:  r.ConversationID,
		Role:            r.Role,
		Content:         r.Content,
		Timestamp:       ts,
		ModelUsed:       r.ModelUsed,
		ResponseTimeMS:  r.ResponseTimeMS,
		FileAttachments: r.FileAttachments,
		SurveyData:      r.SurveyData,
	}, nil
}
