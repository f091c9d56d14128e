package process

import (
	"context"
	"time"
)

// defaultIdleSleep is how long the worker waits when no recordings are
// pending before listing again.
const defaultIdleSleep = 10 * time.Second

// sleepFunc waits for the given duration or until the context ends.
type sleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Worker repeatedly claims pending recordings and runs them through
// the engine. One recording is processed at a time; parallelism lives
// inside the engine at the chunk level.
type Worker struct {
	engine    *Engine
	idleSleep time.Duration
	sleep     sleepFunc
	warn      WarnFunc
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithIdleSleep sets the pause between empty list polls.
func WithIdleSleep(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.idleSleep = d
		}
	}
}

// WithWorkerWarnFunc sets the callback for per-recording failures.
func WithWorkerWarnFunc(warn WarnFunc) WorkerOption {
	return func(w *Worker) {
		if warn != nil {
			w.warn = warn
		}
	}
}

// withSleep replaces the waiting strategy (for testing).
func withSleep(sleep sleepFunc) WorkerOption {
	return func(w *Worker) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

// NewWorker creates a worker around the given engine.
func NewWorker(engine *Engine, opts ...WorkerOption) *Worker {
	w := &Worker{
		engine:    engine,
		idleSleep: defaultIdleSleep,
		sleep:     defaultSleep,
		warn:      func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run loops until the context is cancelled. Failures on individual
// recordings are reported through the warn callback and do not stop
// the loop; the failed recording already carries the error status.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pending, err := w.engine.backend.ListPending(ctx)
		if err != nil {
			w.warn("listing pending recordings: %v", err)
			if err := w.sleep(ctx, w.idleSleep); err != nil {
				return err
			}
			continue
		}

		if len(pending) == 0 {
			if err := w.sleep(ctx, w.idleSleep); err != nil {
				return err
			}
			continue
		}

		for _, rec := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.engine.Process(ctx, rec); err != nil {
				w.warn("processing recording %s: %v", rec.ID, err)
			}
		}
	}
}
