package history

import (
	"context"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

const (
	// defaultQueueSize bounds the number of snapshots waiting to be
	// written.
	defaultQueueSize = 256

	// writeTimeout bounds one database insert.
	writeTimeout = 5 * time.Second
)

// Recorder decouples state update callbacks from database writes. Update
// callbacks run on adapter worker goroutines and must not block on I/O,
// so Enqueue hands the snapshot to a buffered queue drained by a single
// writer goroutine. When the queue is full the snapshot is dropped with a
// warning; history is best-effort.
type Recorder struct {
	repo   *Repository
	queue  chan Snapshot
	done   chan struct{}
	logger Logger

	mu     sync.RWMutex
	closed bool
}

// NewRecorder creates a recorder and starts its writer goroutine.
func NewRecorder(repo *Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	r := &Recorder{
		repo:   repo,
		queue:  make(chan Snapshot, defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go r.run()
	return r
}

// Enqueue queues one snapshot for persistence without blocking. Returns
// immediately; a full queue drops the snapshot. Update callbacks may
// still fire while adapters wind down, so snapshots arriving after
// Close are dropped rather than sent on the closed queue.
func (r *Recorder) Enqueue(snap Snapshot) {
	if snap.RecordedAt.IsZero() {
		snap.RecordedAt = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	select {
	case r.queue <- snap:
	default:
		r.logger.Warn("state history queue full, dropping snapshot",
			"device", snap.DeviceUDN, "source", snap.Source)
	}
}

// Close stops the writer after draining queued snapshots. Safe to call
// more than once; later Enqueue calls become no-ops.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

// run is the single writer goroutine.
func (r *Recorder) run() {
	defer close(r.done)

	for snap := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.RecordSnapshot(ctx, snap); err != nil {
			r.logger.Error("recording state snapshot failed",
				"device", snap.DeviceUDN, "error", err)
		}
		cancel()
	}
}
