// Package annotation implements the client-side note annotation lifecycle:
// the placement state machine, the entry form, the render pipeline and popup
// persistence. All UI state lives on a single dispatch loop; network calls
// run in worker goroutines and post their completions back onto the loop, so
// no two state mutations ever interleave mid-update.
package annotation

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/lsnmst/idjwi-alert-system/internal/logging"
)

// Package-level logger specific to the annotation service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "annotation.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, _, err = logging.NewFileLogger(logFilePath, "annotation", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize annotation file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "annotation")
	}
}

// Dispatcher posts work onto the UI dispatch loop. Everything dispatched
// runs serially, in order, on the loop goroutine.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to the Dispatcher interface. Tests use an
// inline variant to run completions deterministically.
type DispatchFunc func(fn func())

// Dispatch implements Dispatcher.
func (d DispatchFunc) Dispatch(fn func()) {
	d(fn)
}

// Loop is the production dispatcher: a single goroutine draining a task
// channel. Map providers must deliver their events through the same loop.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a dispatch loop. Run must be called for tasks to execute.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run drains the loop until the context is cancelled. It blocks; callers
// typically run it as the main goroutine of the feature.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Dispatch implements Dispatcher. Tasks posted after shutdown are dropped.
func (l *Loop) Dispatch(fn func()) {
	select {
	case <-l.done:
		logger.Debug("Task dropped, dispatch loop stopped")
	case l.tasks <- fn:
	}
}
