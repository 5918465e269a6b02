package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestOrchestrator builds an orchestrator against a stub backend serving
// one conversation ("c1") with one message and one file.
func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, data any) {
		json.NewEncoder(w).Encode(map[string]any{"error_code": 0, "message": "ok", "data": data})
	}

	mux.HandleFunc("/conversations/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/conversations/":
			ok(w, map[string]any{
				"items": []map[string]any{
					{"id": "c1", "name": "Interview prep", "message_count": 1, "last_activity": "2025-03-01T10:00:00Z"},
					{"id": "c2", "name": "Notes", "message_count": 0, "last_activity": "2025-02-01T10:00:00Z"},
				},
				"total": 2,
			})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/messages"):
			ok(w, map[string]any{
				"items": []map[string]any{
					{"id": "m1", "conversation_id": "c1", "role": "user", "content": "Hi", "timestamp": "2025-03-01T10:00:00Z"},
				},
				"total": 1,
			})
		case r.Method == http.MethodDelete:
			ok(w, nil)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/files/conversation/", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]any{
			"items": []map[string]any{
				{"id": "f1", "name": "stored.pdf", "original_name": "resume.pdf", "size": 1234},
			},
			"total": 1,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(api.New(srv.URL), nil)
}

func TestSwitchConversationLoadsState(t *testing.T) {
	o := newTestOrchestrator(t)

	require.NoError(t, o.SwitchConversation(context.Background(), "c1"))

	snap := o.Snapshot()
	assert.Equal(t, "c1", snap.ActiveConversationID)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "Hi", snap.Messages[0].Content)
	require.Len(t, snap.UploadedFiles, 1)
	assert.Equal(t, "resume.pdf", snap.UploadedFiles[0].OriginalName)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
}

func TestDeleteActiveConversationClearsState(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, o.LoadConversations(ctx))
	require.NoError(t, o.SwitchConversation(ctx, "c1"))
	require.NotEmpty(t, o.Snapshot().Messages)

	require.NoError(t, o.DeleteConversation(ctx, "c1"))

	snap := o.Snapshot()
	assert.Empty(t, snap.ActiveConversationID)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.UploadedFiles)
	assert.False(t, snap.AssistantTyping)

	// The deleted conversation is gone from the list; the other stays.
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, "c2", snap.Conversations[0].ID)
}

func TestDeleteInactiveConversationKeepsActiveState(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, o.LoadConversations(ctx))
	require.NoError(t, o.SwitchConversation(ctx, "c1"))

	require.NoError(t, o.DeleteConversation(ctx, "c2"))

	snap := o.Snapshot()
	assert.Equal(t, "c1", snap.ActiveConversationID)
	assert.NotEmpty(t, snap.Messages, "deleting another conversation leaves the active view alone")
}

func TestStaleCommitDiscarded(t *testing.T) {
	o := newTestOrchestrator(t)
	require.NoError(t, o.SwitchConversation(context.Background(), "c1"))

	stale := o.generation() - 1
	o.commitFor(stale, func(s *Snapshot) {
		s.Err = "late response from a previous conversation"
	})
	assert.Empty(t, o.Snapshot().Err, "commits from an older generation are discarded")

	o.commitFor(o.generation(), func(s *Snapshot) {
		s.Err = "current"
	})
	assert.Equal(t, "current", o.Snapshot().Err)
}

func TestFailedLoadSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error_code": 5000, "message": "backend exploded"})
	}))
	t.Cleanup(srv.Close)

	o := New(api.New(srv.URL), nil)
	err := o.SwitchConversation(context.Background(), "c1")
	require.Error(t, err)

	snap := o.Snapshot()
	assert.False(t, snap.Loading)
	assert.Contains(t, snap.Err, "backend exploded")
}

func TestOnChangeFiresPerCommit(t *testing.T) {
	o := newTestOrchestrator(t)

	var notifications int
	o.SetOnChange(func() { notifications++ })

	require.NoError(t, o.SwitchConversation(context.Background(), "c1"))
	assert.GreaterOrEqual(t, notifications, 2, "at least the loading commit and the loaded commit notify")

	before := notifications
	o.ClearError()
	assert.Equal(t, before+1, notifications)
}

func TestSendMessageRequiresActiveConversation(t *testing.T) {
	o := newTestOrchestrator(t)

	err := o.SendMessage(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active conversation")
}
