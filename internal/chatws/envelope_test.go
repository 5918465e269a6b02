package chatws

import (
	"testing"

	"github.com/luongnguyenminhan/enterviu-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponseUserMessage(t *testing.T) {
	raw := `{
		"type": "user_message",
		"message": {"id": "m1", "conversation_id": "c1", "role": "user", "content": "Hi", "timestamp": "2025-03-01T10:30:00Z"}
	}`

	resp, err := DecodeResponse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, TypeUserMessage, resp.Type)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "m1", resp.Message.ID)
	assert.Equal(t, models.RoleUser, resp.Message.Role)
}

func TestDecodeResponseTyping(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"type": "assistant_typing", "is_typing": true}`))
	require.NoError(t, err)
	assert.Equal(t, TypeAssistantTyping, resp.Type)
	assert.True(t, resp.Typing)
}

func TestDecodeResponseChunk(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"type": "assistant_message_chunk", "chunk": "Hel", "is_final": false}`))
	require.NoError(t, err)
	assert.Equal(t, TypeAssistantChunk, resp.Type)
	assert.Equal(t, "Hel", resp.Chunk)
	assert.False(t, resp.Final)
}

func TestDecodeResponseComplete(t *testing.T) {
	raw := `{
		"type": "assistant_message_complete",
		"message": {"id": "m2", "conversation_id": "c1", "role": "assistant", "content": "Hello", "timestamp": "2025-03-01T10:30:01Z"}
	}`

	resp, err := DecodeResponse([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "Hello", resp.Message.Content)
	assert.False(t, resp.Message.IsStreaming)
}

func TestDecodeResponseCompleteWithoutMessage(t *testing.T) {
	_, err := DecodeResponse([]byte(`{"type": "assistant_message_complete"}`))
	require.Error(t, err)
}

func TestDecodeResponseError(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"type": "error", "error": "rate limited"}`))
	require.NoError(t, err, "in-band errors decode normally; they are not decode failures")
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, "rate limited", resp.ErrorMessage)
}

func TestDecodeResponsePong(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"type": "pong"}`))
	require.NoError(t, err)
	assert.Equal(t, TypePong, resp.Type)
}

func TestDecodeResponseSurveyData(t *testing.T) {
	raw := `{
		"type": "survey_data",
		"survey_data": [
			{"id": "q1", "Question": "Preferred role?", "Question_type": "single_option", "Question_data": ["Backend", "Frontend"]}
		]
	}`

	resp, err := DecodeResponse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, resp.Survey, 1)
	assert.Equal(t, "Preferred role?", resp.Survey[0].Text)
	assert.Len(t, resp.Survey[0].Options, 2)
}

func TestDecodeResponseUnknownType(t *testing.T) {
	_, err := DecodeResponse([]byte(`{"type": "server_restart"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown envelope type")
}

func TestDecodeResponseMalformed(t *testing.T) {
	_, err := DecodeResponse([]byte(`{not json`))
	require.Error(t, err)
}
