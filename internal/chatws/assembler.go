package chatws

import (
	"time"

	"github.com/google/uuid"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// Assembler reassembles a streamed assistant message from chunk envelopes.
//
// Chunks carry no sequence numbers or message id; the protocol guarantees
// in-order delivery on the single socket, so chunks append in arrival order
// to one provisional message. The terminal complete envelope supplies the
// authoritative message, which replaces the provisional one wholesale.
type Assembler struct {
	conversationID string
	current        *models.Message
}

// NewAssembler creates an assembler for one conversation.
func NewAssembler(conversationID string) *Assembler {
	return &Assembler{conversationID: conversationID}
}

// ApplyChunk appends chunk text to the in-progress assistant message,
// creating the provisional message (with a local id) on the first chunk.
// The returned snapshot always has IsStreaming set.
func (a *Assembler) ApplyChunk(chunk string) models.Message {
	if a.current == nil {
		a.current = &models.Message{
			ID:             "pending-" + uuid.New().String(),
			ConversationID: a.conversationID,
			Role:           models.RoleAssistant,
			Timestamp:      time.Now(),
			IsStreaming:    true,
		}
	}
	a.current.Content += chunk
	return *a.current
}

// ApplyComplete finalizes the stream: the authoritative message replaces the
// provisional one and the streaming flag is cleared. Also valid without any
// preceding chunks (non-streamed completion).
func (a *Assembler) ApplyComplete(final models.Message) models.Message {
	a.current = nil
	final.IsStreaming = false
	return final
}

// InProgress returns a snapshot of the provisional message, or nil when no
// stream is active.
func (a *Assembler) InProgress() *models.Message {
	if a.current == nil {
		return nil
	}
	snapshot := *a.current
	return &snapshot
}

// ProvisionalID returns the local id of the in-progress message, or empty.
// The orchestrator uses it to replace the provisional entry when the
// authoritative message arrives.
func (a *Assembler) ProvisionalID() string {
	if a.current == nil {
		return ""
	}
	return a.current.ID
}

// Reset discards any in-progress stream, for socket teardown.
func (a *Assembler) Reset() {
	a.current = nil
}
