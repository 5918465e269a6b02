package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client against a stub backend handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithTokenSource(StaticToken("test-token")))
}

func TestClientUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/conversations/c1", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"error_code": 0,
			"message":    "ok",
			"data": map[string]any{
				"id":            "c1",
				"name":          "Interview prep",
				"message_count": 3,
			},
		})
	})

	conv, err := client.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, "Interview prep", conv.Name)
	assert.Equal(t, 3, conv.MessageCount)
}

func TestClientNullDataIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error_code": 0,
			"message":    "no cv uploaded",
			"data":       nil,
		})
	})

	meta, err := client.GetCVMetadata(context.Background(), "c1")
	require.NoError(t, err, "error_code 0 with null data is a success")
	assert.Nil(t, meta)
}

func TestClientBusinessError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error_code": 1002,
			"message":    "validation failed",
			"data":       nil,
			"errors": map[string][]string{
				"name": {"must not be blank"},
			},
		})
	})

	_, err := client.CreateConversation(context.Background(), CreateConversationRequest{Name: "x"})
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok, "expected *api.Error, got %T", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, 1002, apiErr.ErrorCode)
	assert.Equal(t, "validation failed", apiErr.Message)
	assert.Equal(t, []string{"must not be blank"}, apiErr.Fields["name"])
	assert.False(t, apiErr.IsNetwork())
}

func TestClientNetworkErrorStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	client := New(srv.URL)

	_, err := client.GetMe(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok, "expected *api.Error, got %T", err)
	assert.Equal(t, 0, apiErr.Status, "no response received means status 0")
	assert.True(t, apiErr.IsNetwork())
}

func TestClientMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream timeout</html>"))
	})

	_, err := client.GetMe(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Message, "malformed response")
}

func TestCreateConversationValidatesName(t *testing.T) {
	client := New("http://unused.invalid")

	_, err := client.CreateConversation(context.Background(), CreateConversationRequest{Name: ""})
	require.Error(t, err, "a blank name must fail before any request is sent")
}

func TestDecodeDataZeroValue(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	got, err := decodeData[payload](nil)
	require.NoError(t, err)
	assert.Equal(t, payload{}, got)

	got, err = decodeData[payload](json.RawMessage("null"))
	require.NoError(t, err)
	assert.Equal(t, payload{}, got)

	got, err = decodeData[payload](json.RawMessage(`{"name": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}
