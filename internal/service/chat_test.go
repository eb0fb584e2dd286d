package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eva-wellness/eva/internal/gateway"
	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
)

type replierFunc func(ctx context.Context, utterance string) (string, error)

func (f replierFunc) Complete(ctx context.Context, utterance string) (string, error) {
	return f(ctx, utterance)
}

type recordingJournal struct {
	mu     sync.Mutex
	events []model.ChatEvent
	err    error
}

func (j *recordingJournal) Publish(_ context.Context, ev *model.ChatEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, *ev)
	return j.err
}

func (j *recordingJournal) types() []model.EventType {
	j.mu.Lock()
	defer j.mu.Unlock()
	types := make([]model.EventType, len(j.events))
	for i, ev := range j.events {
		types[i] = ev.Type
	}
	return types
}

func TestSendFirstMessageScenario(t *testing.T) {
	sess := store.NewSession("s1", "")
	chatID := sess.ActiveChatID()

	var stateDuringCall store.SendState
	var logLenDuringCall int
	svc := NewChatService(replierFunc(func(_ context.Context, utterance string) (string, error) {
		stateDuringCall = sess.State(chatID)
		c, _ := sess.Chat(chatID)
		logLenDuringCall = len(c.Messages)
		return "Let's take a slow breath together.", nil
	}), logger.NewNop())

	turn, err := svc.Send(context.Background(), sess, chatID, "I feel anxious today")
	require.NoError(t, err)

	assert.Equal(t, store.StateSending, stateDuringCall)
	assert.Equal(t, 1, logLenDuringCall)
	assert.Equal(t, store.StateIdle, sess.State(chatID))
	assert.False(t, turn.Failed)

	c, err := sess.Chat(chatID)
	require.NoError(t, err)
	assert.Equal(t, "I feel anxious today", c.Title)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, model.SenderUser, c.Messages[0].Sender)
	assert.Equal(t, "I feel anxious today", c.Messages[0].Text)
	assert.Equal(t, model.SenderAssistant, c.Messages[1].Sender)
	assert.Equal(t, "Let's take a slow breath together.", c.Messages[1].Text)
}

func TestSendLongFirstMessageTruncatesTitle(t *testing.T) {
	sess := store.NewSession("s1", "")
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "ok", nil
	}), logger.NewNop())

	_, err := svc.Send(context.Background(), sess, sess.ActiveChatID(), "I have trouble sleeping lately")
	require.NoError(t, err)

	assert.Equal(t, "I have trouble sleep...", sess.ActiveChat().Title)
}

func TestSendFailureAppendsFallback(t *testing.T) {
	sess := store.NewSession("s1", "")
	chatID := sess.ActiveChatID()
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "", &gateway.ProviderError{Provider: "fake", Err: errors.New("boom")}
	}), logger.NewNop())

	turn, err := svc.Send(context.Background(), sess, chatID, "hello")
	require.NoError(t, err)

	assert.True(t, turn.Failed)
	assert.Equal(t, gateway.FallbackReply, turn.Reply.Text)
	assert.Equal(t, model.SenderAssistant, turn.Reply.Sender)
	assert.Equal(t, store.StateIdle, sess.State(chatID))
	c, _ := sess.Chat(chatID)
	assert.Len(t, c.Messages, 2)
}

func TestSendCustomFallback(t *testing.T) {
	sess := store.NewSession("s1", "")
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "", errors.New("down")
	}), logger.NewNop(), WithFallbackText("Eva is resting."))

	turn, err := svc.Send(context.Background(), sess, sess.ActiveChatID(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Eva is resting.", turn.Reply.Text)
}

func TestSendBlankRejectedWithoutSideEffects(t *testing.T) {
	sess := store.NewSession("s1", "")
	chatID := sess.ActiveChatID()
	called := false
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		called = true
		return "ok", nil
	}), logger.NewNop())

	_, err := svc.Send(context.Background(), sess, chatID, "   ")

	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.False(t, called)
	c, _ := sess.Chat(chatID)
	assert.Empty(t, c.Messages)
	assert.Equal(t, model.DefaultChatTitle, c.Title)
}

func TestSendUnknownChat(t *testing.T) {
	sess := store.NewSession("s1", "")
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "ok", nil
	}), logger.NewNop())

	_, err := svc.Send(context.Background(), sess, "missing", "hello")

	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSendTrimsInput(t *testing.T) {
	sess := store.NewSession("s1", "")
	var got string
	svc := NewChatService(replierFunc(func(_ context.Context, utterance string) (string, error) {
		got = utterance
		return "ok", nil
	}), logger.NewNop())

	turn, err := svc.Send(context.Background(), sess, sess.ActiveChatID(), "  hi there \n")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
	assert.Equal(t, "hi there", turn.UserMessage.Text)
}

func TestSendNotCancelledWithCaller(t *testing.T) {
	sess := store.NewSession("s1", "")
	svc := NewChatService(replierFunc(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return "still here", nil
		}
	}), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turn, err := svc.Send(ctx, sess, sess.ActiveChatID(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "still here", turn.Reply.Text)
}

func TestSendReplyLandsInOriginChatAfterSwitch(t *testing.T) {
	sess := store.NewSession("s1", "")
	origin := sess.ActiveChatID()
	release := make(chan struct{})
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		<-release
		return "reply", nil
	}), logger.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Send(context.Background(), sess, origin, "hello")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		return sess.State(origin) == store.StateSending
	}, time.Second, time.Millisecond)

	other, err := svc.CreateChat(context.Background(), sess)
	require.NoError(t, err)
	close(release)
	<-done

	c, _ := sess.Chat(origin)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, "reply", c.Messages[1].Text)
	assert.Equal(t, other.ID, sess.ActiveChatID())
	o, _ := sess.Chat(other.ID)
	assert.Empty(t, o.Messages)
}

func TestConcurrentSendsKeepPerSendOrder(t *testing.T) {
	sess := store.NewSession("s1", "")
	chatID := sess.ActiveChatID()
	svc := NewChatService(replierFunc(func(_ context.Context, utterance string) (string, error) {
		if utterance == "slow" {
			time.Sleep(30 * time.Millisecond)
		}
		return "re: " + utterance, nil
	}), logger.NewNop())

	var wg sync.WaitGroup
	for _, text := range []string{"slow", "fast"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := svc.Send(context.Background(), sess, chatID, text)
			assert.NoError(t, err)
		}(text)
	}
	wg.Wait()

	c, _ := sess.Chat(chatID)
	require.Len(t, c.Messages, 4)
	index := map[string]int{}
	for i, msg := range c.Messages {
		index[msg.Text] = i
	}
	assert.Less(t, index["slow"], index["re: slow"])
	assert.Less(t, index["fast"], index["re: fast"])
	assert.Equal(t, store.StateIdle, sess.State(chatID))
}

func TestSendEmitsEvents(t *testing.T) {
	sess := store.NewSession("s1", "")
	journal := &recordingJournal{}
	broker := NewBroker()
	events, unsubscribe := broker.Subscribe(sess.ID())
	defer unsubscribe()

	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "", errors.New("down")
	}), logger.NewNop(), WithBroker(broker), WithJournal(journal))

	_, err := svc.Send(context.Background(), sess, sess.ActiveChatID(), "hello")
	require.NoError(t, err)
	svc.Close()

	want := []model.EventType{
		model.EventTypeMessageAppended,
		model.EventTypeTypingStarted,
		model.EventTypeCompletionFailed,
		model.EventTypeTypingStopped,
		model.EventTypeMessageAppended,
	}
	assert.Equal(t, want, journal.types())

	for i, typ := range want {
		select {
		case ev := <-events:
			assert.Equal(t, typ, ev.Type, "event %d", i)
			assert.Equal(t, sess.ID(), ev.SessionID)
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestJournalFailureDoesNotFailSend(t *testing.T) {
	sess := store.NewSession("s1", "")
	journal := &recordingJournal{err: errors.New("nats down")}
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "ok", nil
	}), logger.NewNop(), WithJournal(journal))

	turn, err := svc.Send(context.Background(), sess, sess.ActiveChatID(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "ok", turn.Reply.Text)
	svc.Close()
	assert.Len(t, journal.types(), 4)
}

type slowJournal struct {
	recordingJournal
	delay time.Duration
}

func (j *slowJournal) Publish(ctx context.Context, ev *model.ChatEvent) error {
	time.Sleep(j.delay)
	return j.recordingJournal.Publish(ctx, ev)
}

func TestSlowJournalDoesNotDelaySend(t *testing.T) {
	sess := store.NewSession("s1", "")
	chatID := sess.ActiveChatID()
	journal := &slowJournal{delay: 200 * time.Millisecond}

	var stateAtCall store.SendState
	start := time.Now()
	var calledAfter time.Duration
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		calledAfter = time.Since(start)
		stateAtCall = sess.State(chatID)
		return "ok", nil
	}), logger.NewNop(), WithJournal(journal))

	_, err := svc.Send(context.Background(), sess, chatID, "hello")
	total := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, calledAfter, 100*time.Millisecond)
	assert.Less(t, total, 100*time.Millisecond)
	assert.Equal(t, store.StateSending, stateAtCall)

	svc.Close()
	assert.Equal(t, []model.EventType{
		model.EventTypeMessageAppended,
		model.EventTypeTypingStarted,
		model.EventTypeTypingStopped,
		model.EventTypeMessageAppended,
	}, journal.types())
}

func TestSendingStartsBeforeEventsAreEmitted(t *testing.T) {
	sess := store.NewSession("s1", "")
	chatID := sess.ActiveChatID()
	broker := NewBroker()
	events, unsubscribe := broker.Subscribe(sess.ID())
	defer unsubscribe()

	release := make(chan struct{})
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		<-release
		return "ok", nil
	}), logger.NewNop(), WithBroker(broker))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Send(context.Background(), sess, chatID, "hello")
	}()

	select {
	case ev := <-events:
		assert.Equal(t, model.EventTypeMessageAppended, ev.Type)
		assert.Equal(t, store.StateSending, sess.State(chatID))
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	close(release)
	<-done
}

func TestCreateAndSelectChat(t *testing.T) {
	sess := store.NewSession("s1", "")
	first := sess.ActiveChatID()
	journal := &recordingJournal{}
	svc := NewChatService(replierFunc(func(context.Context, string) (string, error) {
		return "ok", nil
	}), logger.NewNop(), WithJournal(journal))

	c, err := svc.CreateChat(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultChatTitle, c.Title)
	assert.Equal(t, c.ID, sess.ActiveChatID())

	require.NoError(t, svc.SelectChat(context.Background(), sess, first))
	assert.Equal(t, first, sess.ActiveChatID())

	err = svc.SelectChat(context.Background(), sess, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, first, sess.ActiveChatID())

	svc.Close()
	assert.Equal(t, []model.EventType{model.EventTypeChatCreated, model.EventTypeChatSelected}, journal.types())
}
