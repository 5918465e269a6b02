package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// ListConversationsOptions configures conversation listing.
type ListConversationsOptions struct {
	Page     int
	PageSize int
	Search   string
}

// GetConversations returns the caller's conversations.
func (c *Client) GetConversations(ctx context.Context, opts ListConversationsOptions) (Page[models.Conversation], error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}

	return call[Page[models.Conversation]](ctx, c, "conversations.list", http.MethodGet, "/conversations/", query, nil)
}

// CreateConversationRequest is the input for creating a conversation.
type CreateConversationRequest struct {
	Name           string  `json:"name"`
	InitialMessage *string `json:"initial_message,omitempty"`
	SystemPrompt   *string `json:"system_prompt,omitempty"`
}

// Validate checks the request before it is sent.
func (r CreateConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

// CreateConversation creates a new conversation.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (models.Conversation, error) {
	if err := req.Validate(); err != nil {
		return models.Conversation{}, fmt.Errorf("validate request: %w", err)
	}
	return call[models.Conversation](ctx, c, "conversations.create", http.MethodPost, "/conversations/", nil, req)
}

// GetConversation retrieves a conversation by id.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return call[*models.Conversation](ctx, c, "conversations.get", http.MethodGet, "/conversations/"+url.PathEscape(id), nil, nil)
}

// UpdateConversationRequest is the input for renaming a conversation or
// editing its system prompt. Nil fields are left unchanged.
type UpdateConversationRequest struct {
	Name         *string `json:"name,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
}

// Validate checks the request before it is sent.
func (r UpdateConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

// UpdateConversation mutates a conversation's name and/or system prompt.
func (c *Client) UpdateConversation(ctx context.Context, id string, req UpdateConversationRequest) (models.Conversation, error) {
	if err := req.Validate(); err != nil {
		return models.Conversation{}, fmt.Errorf("validate request: %w", err)
	}
	return call[models.Conversation](ctx, c, "conversations.update", http.MethodPut, "/conversations/"+url.PathEscape(id), nil, req)
}

// DeleteConversation deletes a conversation by id.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.do(ctx, "conversations.delete", http.MethodDelete, "/conversations/"+url.PathEscape(id), nil, nil)
	return err
}

// MessageHistoryOptions configures message-history paging. BeforeMessageID
// pages backwards from a known message.
type MessageHistoryOptions struct {
	BeforeMessageID string
	Limit           int
}

// GetConversationMessages returns a page of messages for a conversation,
// oldest first, with wire timestamps parsed.
func (c *Client) GetConversationMessages(ctx context.Context, id string, opts MessageHistoryOptions) (Page[models.Message], error) {
	query := url.Values{}
	if opts.BeforeMessageID != "" {
		query.Set("before_message_id", opts.BeforeMessageID)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	wire, err := call[Page[models.MessageResponse]](ctx, c, "messages.list", http.MethodGet, "/conversations/"+url.PathEscape(id)+"/messages", query, nil)
	if err != nil {
		return Page[models.Message]{}, err
	}

	page := Page[models.Message]{
		Total:    wire.Total,
		Page:     wire.Page,
		PageSize: wire.PageSize,
		Items:    make([]models.Message, 0, len(wire.Items)),
	}
	for _, r := range wire.Items {
		msg, err := r.ToMessage()
		if err != nil {
			return Page[models.Message]{}, fmt.Errorf("convert message: %w", err)
		}
		page.Items = append(page.Items, msg)
	}
	return page, nil
}
