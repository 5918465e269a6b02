// Package session owns the in-memory chat view state: the conversation
// list, the active conversation's messages and files, and the streaming
// flags. The backend is the source of truth; this state is a cache the
// orchestrator replaces snapshot-by-snapshot.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/luongnguyenminhan/enterviu-go/internal/chatws"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// Snapshot is one immutable view of the chat state. Slices are replaced
// wholesale on every commit and must not be mutated by readers.
type Snapshot struct {
	Conversations        []models.Conversation
	ActiveConversationID string
	Messages             []models.Message
	UploadedFiles        []models.UploadedFile
	AssistantTyping      bool
	Loading              bool
	Err                  string
}

// Orchestrator wires REST and WebSocket results into view state. All state
// mutation funnels through commit, which applies a transform to the current
// snapshot and atomically replaces it; a failed operation commits nothing
// beyond its error string.
type Orchestrator struct {
	client *api.Client
	logger *slog.Logger

	mu        sync.Mutex
	snap      Snapshot
	gen       uint64
	assembler *chatws.Assembler
	onChange  func()
}

// New creates an orchestrator over the REST client.
func New(client *api.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, logger: logger}
}

// SetOnChange registers a callback fired after every committed snapshot.
// The UI uses it to schedule a redraw. Called without the state lock held.
func (o *Orchestrator) SetOnChange(fn func()) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

// Snapshot returns the current view state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// commit applies fn to the current snapshot and publishes the result.
func (o *Orchestrator) commit(fn func(s *Snapshot)) {
	o.mu.Lock()
	next := o.snap
	fn(&next)
	o.snap = next
	notify := o.onChange
	o.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// commitFor is commit gated on the generation captured before an await: if
// the user has since switched conversations the late result is discarded.
func (o *Orchestrator) commitFor(gen uint64, fn func(s *Snapshot)) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		o.logger.Debug("discarding stale result", "generation", gen)
		return
	}
	next := o.snap
	fn(&next)
	o.snap = next
	notify := o.onChange
	o.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// generation returns the current switch generation.
func (o *Orchestrator) generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen
}

// fail records a user-visible error without touching the rest of the state.
func (o *Orchestrator) fail(op string, err error) {
	o.logger.Warn("operation failed", "op", op, "error", err)
	o.commit(func(s *Snapshot) {
		s.Loading = false
		s.Err = err.Error()
	})
}

// ClearError dismisses the current error message.
func (o *Orchestrator) ClearError() {
	o.commit(func(s *Snapshot) { s.Err = "" })
}

// LoadConversations refreshes the conversation list.
func (o *Orchestrator) LoadConversations(ctx context.Context) error {
	page, err := o.client.GetConversations(ctx, api.ListConversationsOptions{})
	if err != nil {
		o.fail("load conversations", err)
		return err
	}
	o.commit(func(s *Snapshot) {
		s.Conversations = page.Items
		s.Err = ""
	})
	return nil
}

// SwitchConversation makes id the active conversation and reloads its
// messages and files. Results of any previous switch still in flight are
// discarded by the generation guard.
func (o *Orchestrator) SwitchConversation(ctx context.Context, id string) error {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.assembler = chatws.NewAssembler(id)
	next := o.snap
	next.ActiveConversationID = id
	next.Messages = nil
	next.UploadedFiles = nil
	next.AssistantTyping = false
	next.Loading = true
	next.Err = ""
	o.snap = next
	notify := o.onChange
	o.mu.Unlock()
	if notify != nil {
		notify()
	}

	msgs, err := o.client.GetConversationMessages(ctx, id, api.MessageHistoryOptions{})
	if err != nil {
		o.commitFor(gen, func(s *Snapshot) {
			s.Loading = false
			s.Err = err.Error()
		})
		return err
	}

	files, err := o.client.GetConversationFiles(ctx, id)
	if err != nil {
		// Messages loaded; files are secondary. Surface the error but keep
		// the conversation usable.
		o.commitFor(gen, func(s *Snapshot) {
			s.Messages = msgs.Items
			s.Loading = false
			s.Err = err.Error()
		})
		return err
	}

	o.commitFor(gen, func(s *Snapshot) {
		s.Messages = msgs.Items
		s.UploadedFiles = files.Items
		s.Loading = false
	})
	return nil
}

// CreateConversation creates a conversation and refreshes the list.
func (o *Orchestrator) CreateConversation(ctx context.Context, req api.CreateConversationRequest) (models.Conversation, error) {
	conv, err := o.client.CreateConversation(ctx, req)
	if err != nil {
		o.fail("create conversation", err)
		return models.Conversation{}, err
	}
	o.commit(func(s *Snapshot) {
		s.Conversations = append(append([]models.Conversation{}, s.Conversations...), conv)
		s.Err = ""
	})
	return conv, nil
}

// RenameConversation renames a conversation and updates the cached entry.
func (o *Orchestrator) RenameConversation(ctx context.Context, id, name string) error {
	conv, err := o.client.UpdateConversation(ctx, id, api.UpdateConversationRequest{Name: &name})
	if err != nil {
		o.fail("rename conversation", err)
		return err
	}
	o.commit(func(s *Snapshot) {
		next := make([]models.Conversation, len(s.Conversations))
		copy(next, s.Conversations)
		for i := range next {
			if next[i].ID == conv.ID {
				next[i] = conv
			}
		}
		s.Conversations = next
		s.Err = ""
	})
	return nil
}

// DeleteConversation deletes a conversation. Deleting the active one clears
// the active id and empties its message and file views.
func (o *Orchestrator) DeleteConversation(ctx context.Context, id string) error {
	if err := o.client.DeleteConversation(ctx, id); err != nil {
		o.fail("delete conversation", err)
		return err
	}
	o.commit(func(s *Snapshot) {
		kept := make([]models.Conversation, 0, len(s.Conversations))
		for _, c := range s.Conversations {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.Conversations = kept
		if s.ActiveConversationID == id {
			s.ActiveConversationID = ""
			s.Messages = nil
			s.UploadedFiles = nil
			s.AssistantTyping = false
		}
		s.Err = ""
	})
	return nil
}

// SendMessage sends a user message on the synchronous REST path and appends
// both the persisted user message and the assistant reply.
func (o *Orchestrator) SendMessage(ctx context.Context, content string, fileIDs []string) error {
	o.mu.Lock()
	id := o.snap.ActiveConversationID
	gen := o.gen
	o.mu.Unlock()
	if id == "" {
		return fmt.Errorf("no active conversation")
	}

	result, err := o.client.SendMessage(ctx, api.SendMessageRequest{
		ConversationID: id,
		Content:        content,
		FileIDs:        fileIDs,
	})
	if err != nil {
		o.fail("send message", err)
		return err
	}

	o.commitFor(gen, func(s *Snapshot) {
		s.Messages = appendMessages(s.Messages, result.UserMessage, result.AIMessage)
		s.Err = ""
	})
	return nil
}

// UploadFiles uploads files into the active conversation and refreshes the
// file list. Partial failure surfaces the failed names as the error string
// while the accepted files are kept.
func (o *Orchestrator) UploadFiles(ctx context.Context, files []api.FileUpload) (api.UploadResult, error) {
	o.mu.Lock()
	id := o.snap.ActiveConversationID
	gen := o.gen
	o.mu.Unlock()

	result, err := o.client.UploadFiles(ctx, files, id)
	if err != nil {
		o.fail("upload files", err)
		return api.UploadResult{}, err
	}

	o.commitFor(gen, func(s *Snapshot) {
		s.UploadedFiles = append(append([]models.UploadedFile{}, s.UploadedFiles...), result.UploadedFiles...)
		if len(result.FailedFiles) > 0 {
			s.Err = fmt.Sprintf("%d file(s) rejected", len(result.FailedFiles))
		} else {
			s.Err = ""
		}
	})
	return result, nil
}

// DeleteFile deletes an uploaded file and drops it from the view.
func (o *Orchestrator) DeleteFile(ctx context.Context, fileID string) error {
	gen := o.generation()
	if err := o.client.DeleteFile(ctx, fileID); err != nil {
		o.fail("delete file", err)
		return err
	}
	o.commitFor(gen, func(s *Snapshot) {
		kept := make([]models.UploadedFile, 0, len(s.UploadedFiles))
		for _, f := range s.UploadedFiles {
			if f.ID != fileID {
				kept = append(kept, f)
			}
		}
		s.UploadedFiles = kept
		s.Err = ""
	})
	return nil
}

// appendMessages returns a fresh slice with msgs appended.
func appendMessages(existing []models.Message, msgs ...models.Message) []models.Message {
	next := make([]models.Message, 0, len(existing)+len(msgs))
	next = append(next, existing...)
	return append(next, msgs...)
}
