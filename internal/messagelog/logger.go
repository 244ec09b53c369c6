// Package messagelog records turn audit entries off the conversation path.
package messagelog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/easeaico/crystal-sanctuary/internal/types"
)

// Sink stores a batch of entries.
type Sink interface {
	Append(ctx context.Context, entries []types.LogEntry) error
}

// Config tunes the background writer.
type Config struct {
	QueueSize int           // buffered entries before Log starts dropping, default 256
	BatchSize int           // entries per Append, default 32
	BatchWait time.Duration // max wait before writing a partial batch, default 2s
	Timeout   time.Duration // per Append, default 5s
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize: 256,
		BatchSize: 32,
		BatchWait: 2 * time.Second,
		Timeout:   5 * time.Second,
	}
}

// Logger queues entries and writes them to a Sink from one goroutine.
type Logger struct {
	sink   Sink
	config Config
	queue  chan types.LogEntry
	done   chan struct{}

	// mu guards closed against the queue being closed under a sender.
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// New starts a logger over sink. Call Close to flush and stop it.
func New(sink Sink, config Config) *Logger {
	def := DefaultConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.BatchWait <= 0 {
		config.BatchWait = def.BatchWait
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	l := &Logger{
		sink:   sink,
		config: config,
		queue:  make(chan types.LogEntry, config.QueueSize),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

// Log enqueues entry. It never blocks; entries are dropped when the queue
// is full or the logger is closed.
func (l *Logger) Log(entry types.LogEntry) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- entry:
	default:
		l.dropped.Add(1)
		slog.Warn("message log queue full, dropping entry", "journey", entry.JourneyID, "type", entry.Type)
	}
}

// Dropped returns how many entries were discarded on a full queue.
func (l *Logger) Dropped() int {
	return int(l.dropped.Load())
}

// Close flushes queued entries and stops the writer. It gives up waiting
// when ctx is done.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Logger) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.config.BatchWait)
	defer ticker.Stop()

	batch := make([]types.LogEntry, 0, l.config.BatchSize)
	for {
		select {
		case entry, ok := <-l.queue:
			if !ok {
				l.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= l.config.BatchSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			l.flush(batch)
			batch = batch[:0]
		}
	}
}

func (l *Logger) flush(batch []types.LogEntry) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.config.Timeout)
	defer cancel()
	if err := l.sink.Append(ctx, batch); err != nil {
		slog.Error("failed to write message log", "entries", len(batch), "error", err.Error())
	}
}
