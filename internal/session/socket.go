package session

import (
	"github.com/google/uuid"
	"github.com/luongnguyenminhan/enterviu-go/internal/chatws"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// SocketHandler adapts the orchestrator to chatws.Handler so socket events
// flow into view state. Events arrive on the session's read goroutine,
// already in protocol order.
func (o *Orchestrator) SocketHandler() chatws.Handler {
	return socketHandler{o: o}
}

type socketHandler struct {
	o *Orchestrator
}

func (h socketHandler) OnOpen() {
	h.o.logger.Debug("chat socket connected")
}

func (h socketHandler) OnMessage(resp chatws.Response) {
	h.o.applySocketEvent(resp)
}

func (h socketHandler) OnError(err error) {
	// Undecodable frame; the socket stays up.
	h.o.logger.Warn("chat socket frame error", "error", err)
}

func (h socketHandler) OnClose(err error) {
	h.o.logger.Debug("chat socket closed", "error", err)
	h.o.commit(func(s *Snapshot) {
		s.AssistantTyping = false
		if err != nil {
			s.Err = err.Error()
		}
	})
}

// applySocketEvent folds one inbound envelope into the snapshot.
func (o *Orchestrator) applySocketEvent(resp chatws.Response) {
	o.mu.Lock()

	if o.assembler == nil {
		o.assembler = chatws.NewAssembler(o.snap.ActiveConversationID)
	}

	next := o.snap
	switch resp.Type {
	case chatws.TypeUserMessage:
		next.Messages = appendMessages(next.Messages, *resp.Message)

	case chatws.TypeAssistantTyping:
		next.AssistantTyping = resp.Typing

	case chatws.TypeAssistantChunk:
		provisional := o.assembler.ApplyChunk(resp.Chunk)
		next.Messages = upsertMessage(next.Messages, provisional.ID, provisional)
		next.AssistantTyping = false

	case chatws.TypeAssistantComplete:
		provisionalID := o.assembler.ProvisionalID()
		final := o.assembler.ApplyComplete(*resp.Message)
		if provisionalID != "" {
			next.Messages = replaceMessage(next.Messages, provisionalID, final)
		} else {
			next.Messages = appendMessages(next.Messages, final)
		}
		next.AssistantTyping = false

	case chatws.TypeError:
		// In-band error: user-visible, socket stays open.
		next.Err = resp.ErrorMessage

	case chatws.TypeSurveyData:
		// Surveys render inline as their own conversation entry; message
		// ordering is untouched.
		next.Messages = appendMessages(next.Messages, models.Message{
			ID:             "survey-" + uuid.New().String(),
			ConversationID: next.ActiveConversationID,
			Role:           models.RoleAssistant,
			SurveyData:     resp.Survey,
		})

	case chatws.TypePong:
		o.mu.Unlock()
		o.logger.Debug("pong received")
		return
	}

	o.snap = next
	notify := o.onChange
	o.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// upsertMessage replaces the message with the given id, appending when no
// entry matches.
func upsertMessage(msgs []models.Message, id string, msg models.Message) []models.Message {
	for i := range msgs {
		if msgs[i].ID == id {
			next := make([]models.Message, len(msgs))
			copy(next, msgs)
			next[i] = msg
			return next
		}
	}
	return appendMessages(msgs, msg)
}

// replaceMessage swaps the provisional entry for the authoritative one,
// appending when the provisional entry is gone.
func replaceMessage(msgs []models.Message, provisionalID string, final models.Message) []models.Message {
	return upsertMessage(msgs, provisionalID, final)
}
