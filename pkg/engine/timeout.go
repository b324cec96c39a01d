package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/luxframe/pkg/scene"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	ErrTimeout    = errors.New("evaluation timed out")
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evaluation is one script run in flight. It builds into scratch, a private
// copy of the live session, and reports once on done.
type evaluation struct {
	gen     uint64
	scratch *scene.Session
	done    chan outcome
}

type outcome struct {
	result *Result
	errors []EvalError
	err    error
}

// begin claims the next generation and copies the live session. Any
// evaluation begun earlier can no longer commit.
func (e *Engine) begin(ctx context.Context, live *scene.Session) (*evaluation, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	scratch, err := live.Clone(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: copy session: %w", err)
	}
	return &evaluation{gen: gen, scratch: scratch, done: make(chan outcome, 1)}, nil
}

// start runs source against the scratch session on its own goroutine.
// Panics in builtins or the interpreter are reported as fatal errors.
func (ev *evaluation) start(ctx context.Context, source string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ev.done <- outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		res, evalErrs, err := evaluate(ctx, ev.scratch, source)
		ev.done <- outcome{result: res, errors: evalErrs, err: err}
	}()
}

// wait blocks until the script finishes or ctx ends. On timeout the
// goroutine may still be running against scratch; its outcome is dropped.
func (ev *evaluation) wait(ctx context.Context) outcome {
	select {
	case out := <-ev.done:
		return out
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return outcome{err: fmt.Errorf("%w after %s", ErrTimeout, EvalTimeout)}
		}
		return outcome{err: ctx.Err()}
	}
}

// commit copies the scratch session into live if ev is still the newest
// evaluation. The generation check and the restore happen under the engine
// lock, so a superseded script can never overwrite a newer one.
func (e *Engine) commit(ctx context.Context, live *scene.Session, ev *evaluation, out outcome) (*Result, []EvalError, error) {
	if out.err != nil || len(out.errors) > 0 {
		return nil, out.errors, out.err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ev.gen != e.generation {
		return nil, nil, ErrSuperseded
	}
	if err := live.Restore(ctx, ev.scratch.Snapshot()); err != nil {
		return nil, nil, fmt.Errorf("engine: commit: %w", err)
	}
	return out.result, nil, nil
}
