package api

import (
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// SendMessageRequest is the input for the synchronous send path, used as a
// fallback when no WebSocket session is open.
type SendMessageRequest struct {
	ConversationID string   `json:"conversation_id"`
	Content        string   `json:"content"`
	FileIDs        []string `json:"file_ids,omitempty"`
}

// Validate checks the request before it is sent.
func (r SendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ConversationID, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
}

// SendMessageResult pairs the persisted user message with the complete
// (non-streamed) assistant reply.
type SendMessageResult struct {
	UserMessage models.Message
	AIMessage   models.Message
}

// sendMessageWire is the wire shape of the send-message payload.
type sendMessageWire struct {
	UserMessage models.MessageResponse `json:"user_message"`
	AIMessage   models.MessageResponse `json:"ai_message"`
}

// SendMessage posts a user message and waits for the full assistant reply.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResult, error) {
	if err := req.Validate(); err != nil {
		return SendMessageResult{}, fmt.Errorf("validate request: %w", err)
	}

	wire, err := call[sendMessageWire](ctx, c, "chat.send", http.MethodPost, "/chat/send-message", nil, req)
	if err != nil {
		return SendMessageResult{}, err
	}

	user, err := wire.UserMessage.ToMessage()
	if err != nil {
		return SendMessageResult{}, fmt.Errorf("convert user message: %w", err)
	}
	ai, err := wire.AIMessage.ToMessage()
	if err != nil {
		return SendMessageResult{}, fmt.Errorf("convert ai message: %w", err)
	}

	return SendMessageResult{UserMessage: user, AIMessage: ai}, nil
}

// WebSocketToken is a short-lived, conversation-scoped credential for
// opening a chat socket.
type WebSocketToken struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// webSocketTokenRequest is the input for issuing a socket token.
type webSocketTokenRequest struct {
	ConversationID *string `json:"conversation_id,omitempty"`
}

// GetWebSocketToken issues a socket token, optionally scoped to one
// conversation. Tokens expire quickly; fetch a fresh one per connection.
func (c *Client) GetWebSocketToken(ctx context.Context, conversationID string) (WebSocketToken, error) {
	req := webSocketTokenRequest{}
	if conversationID != "" {
		req.ConversationID = &conversationID
	}
	return call[WebSocketToken](ctx, c, "chat.ws_token", http.MethodPost, "/chat/websocket/token", nil, req)
}
