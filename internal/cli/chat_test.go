package cli

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/luongnguyenminhan/enterviu-go/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatModel() chatModel {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := session.New(api.New("http://unused.invalid"), logger)
	return newChatModel(orch, nil)
}

func TestChatModelSendResultClearsSending(t *testing.T) {
	m := newTestChatModel()
	m.sending = true

	updated, _ := m.Update(sendResultMsg{err: errors.New("backend exploded")})
	cm, ok := updated.(chatModel)
	require.True(t, ok)
	assert.False(t, cm.sending, "a finished send unlocks the composer, failed or not")
}

func TestChatModelSubmitIgnoresEmptyInput(t *testing.T) {
	m := newTestChatModel()
	m.input.SetValue("   ")

	updated, cmd := m.submit()
	cm := updated.(chatModel)
	assert.Nil(t, cmd)
	assert.False(t, cm.sending)
}

func TestChatModelSubmitFallsBackToRest(t *testing.T) {
	m := newTestChatModel()
	m.input.SetValue("hello")

	// No socket session: the submit schedules the synchronous send.
	updated, cmd := m.submit()
	cm := updated.(chatModel)
	assert.NotNil(t, cmd)
	assert.True(t, cm.sending)
	assert.Empty(t, cm.input.Value(), "the composer clears on submit")
}
