package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/pkg/logger"
	"github.com/eva-wellness/eva/pkg/metrics"
)

const (
	journalQueueSize      = 256
	journalPublishTimeout = 5 * time.Second
)

// journalWriter publishes events to a Journal from a single goroutine so a
// slow journal never delays a send. Events are dropped when the queue is full.
type journalWriter struct {
	journal Journal
	timeout time.Duration
	logger  *logger.Logger

	mu     sync.Mutex
	closed bool
	queue  chan model.ChatEvent
	done   chan struct{}
}

func newJournalWriter(j Journal, timeout time.Duration, log *logger.Logger) *journalWriter {
	w := &journalWriter{
		journal: j,
		timeout: timeout,
		logger:  log,
		queue:   make(chan model.ChatEvent, journalQueueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *journalWriter) run() {
	defer close(w.done)

	for ev := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.journal.Publish(ctx, &ev)
		cancel()
		if err != nil {
			metrics.JournalPublishFailures.Inc()
			w.logger.Warn("failed to journal chat event",
				zap.String("session_id", ev.SessionID),
				zap.String("event_type", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
}

// enqueue never blocks.
func (w *journalWriter) enqueue(ev model.ChatEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	select {
	case w.queue <- ev:
	default:
		metrics.JournalPublishFailures.Inc()
		w.logger.Warn("journal queue full, event dropped",
			zap.String("session_id", ev.SessionID),
			zap.String("event_type", string(ev.Type)),
		)
	}
}

// close publishes what is queued and stops the writer.
func (w *journalWriter) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
}
