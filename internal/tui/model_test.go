package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/internal/service"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
)

type replierFunc func(ctx context.Context, utterance string) (string, error)

func (f replierFunc) Complete(ctx context.Context, utterance string) (string, error) {
	return f(ctx, utterance)
}

func newTestModel(t *testing.T, reply string) (Model, *store.Session) {
	t.Helper()

	sess := store.NewSession("local", "")
	svc := service.NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return reply, nil
	}), logger.NewNop())

	m := New(context.Background(), sess, svc, nil, Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), sess
}

// runCmd executes cmd and any batch it expands to, returning the messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(tea.KeyMsg{Type: k})
	return updated.(Model), cmd
}

func TestSendAppendsTurn(t *testing.T) {
	m, sess := newTestModel(t, "Breathe in slowly.")
	chatID := sess.ActiveChatID()

	m.input.SetValue("I feel anxious today")
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Empty(t, m.input.Value())

	for _, msg := range runCmd(cmd) {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}

	chat, err := sess.Chat(chatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, model.SenderUser, chat.Messages[0].Sender)
	assert.Equal(t, "Breathe in slowly.", chat.Messages[1].Text)
	assert.Equal(t, "I feel anxious today", chat.Title)
	assert.Contains(t, m.View(), "Breathe in slowly.")
}

func TestBlankInputIsIgnored(t *testing.T) {
	m, sess := newTestModel(t, "unused")

	m.input.SetValue("   ")
	_, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Empty(t, sess.ActiveChat().Messages)
}

func TestNewChatAndCycle(t *testing.T) {
	m, sess := newTestModel(t, "ok")
	first := sess.ActiveChatID()

	m, _ = press(t, m, tea.KeyCtrlN)
	second := sess.ActiveChatID()
	assert.NotEqual(t, first, second)
	assert.Len(t, sess.Chats(), 2)

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, first, sess.ActiveChatID())

	m, _ = press(t, m, tea.KeyShiftTab)
	assert.Equal(t, second, sess.ActiveChatID())

	assert.Contains(t, m.View(), model.DefaultChatTitle)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, "ok")

	_, cmd := press(t, m, tea.KeyEsc)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
