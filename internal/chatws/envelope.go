// Package chatws implements the WebSocket chat session client: one
// token-authenticated socket per conversation, tagged-union envelope
// decoding, and streamed assistant message reassembly.
package chatws

import (
	"encoding/json"
	"fmt"

	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// ResponseType discriminates the inbound envelope variants.
type ResponseType string

// Inbound envelope types.
const (
	TypeUserMessage       ResponseType = "user_message"
	TypeAssistantTyping   ResponseType = "assistant_typing"
	TypeAssistantChunk    ResponseType = "assistant_message_chunk"
	TypeAssistantComplete ResponseType = "assistant_message_complete"
	TypeError             ResponseType = "error"
	TypePong              ResponseType = "pong"
	TypeSurveyData        ResponseType = "survey_data"
)

// Outbound frame types.
const (
	typeChatMessage = "chat_message"
	typePing        = "ping"
)

// Response is the decoded inbound envelope. Exactly the fields of the
// variant named by Type are populated:
//
//	user_message               Message
//	assistant_typing           Typing
//	assistant_message_chunk    Chunk, Final
//	assistant_message_complete Message
//	error                      ErrorMessage
//	survey_data                Survey
//	pong                       (no payload)
type Response struct {
	Type         ResponseType
	Message      *models.Message
	Typing       bool
	Chunk        string
	Final        bool
	ErrorMessage string
	Survey       []models.Question
}

// responseWire is the raw JSON shape of an inbound envelope.
type responseWire struct {
	Type     ResponseType            `json:"type"`
	Message  *models.MessageResponse `json:"message,omitempty"`
	IsTyping bool                    `json:"is_typing,omitempty"`
	Chunk    string                  `json:"chunk,omitempty"`
	IsFinal  bool                    `json:"is_final,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Survey   []models.Question       `json:"survey_data,omitempty"`
}

// DecodeResponse parses one inbound frame into its tagged variant.
// Unknown types are an error; the session logs and skips them rather than
// tearing down the socket.
func DecodeResponse(data []byte) (Response, error) {
	var wire responseWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Response{}, fmt.Errorf("decode envelope: %w", err)
	}

	resp := Response{Type: wire.Type}

	switch wire.Type {
	case TypeUserMessage, TypeAssistantComplete:
		if wire.Message == nil {
			return Response{}, fmt.Errorf("%s envelope without message", wire.Type)
		}
		msg, err := wire.Message.ToMessage()
		if err != nil {
			return Response{}, fmt.Errorf("decode %s: %w", wire.Type, err)
		}
		resp.Message = &msg

	case TypeAssistantTyping:
		resp.Typing = wire.IsTyping

	case TypeAssistantChunk:
		resp.Chunk = wire.Chunk
		resp.Final = wire.IsFinal

	case TypeError:
		resp.ErrorMessage = wire.Error

	case TypeSurveyData:
		resp.Survey = wire.Survey

	case TypePong:
		// Liveness reply, no payload.

	default:
		return Response{}, fmt.Errorf("unknown envelope type %q", wire.Type)
	}

	return resp, nil
}

// chatMessageFrame is the outbound user message frame.
type chatMessageFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	APIKey  string `json:"api_key,omitempty"`
}

// pingFrame is the outbound application-level liveness probe.
type pingFrame struct {
	Type string `json:"type"`
}
