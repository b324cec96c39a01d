// Package engine runs scene scripts: small Lisp programs that place and
// connect catalog parts. It wraps zygomys in a sandboxed environment.
//
// A script runs against a private copy of the session. The live session
// only takes the result when the whole script succeeds, so a failing or
// timed-out script never leaves a half-built scene behind.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/luxframe/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result is the outcome of a successful evaluation.
type Result struct {
	// Parts maps the names given with :name to the objects they created.
	Parts map[string]scene.ObjectID
	// Placed lists every object the script created, in creation order.
	Placed []scene.ObjectID
	// Value is the printed value of the last expression.
	Value string
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source against session.
//
// Return semantics:
//   - On success: the session holds the script's result; returns result +
//     nil errors + nil error
//   - On parse/eval failure: the session is unchanged; returns nil + eval
//     errors + nil error
//   - On fatal failure (timeout, panic, superseded): the session is
//     unchanged; returns nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, session *scene.Session, source string) (*Result, []EvalError, error) {
	ev, err := e.begin(ctx, session)
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, EvalTimeout)
	defer cancel()

	ev.start(runCtx, source)
	return e.commit(ctx, session, ev, ev.wait(runCtx))
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(ctx context.Context, s *scene.Session, source string) (*Result, []EvalError, error) {
	res := &Result{Parts: make(map[string]scene.ObjectID)}

	// Empty source is a valid program that changes nothing.
	if strings.TrimSpace(source) == "" {
		return res, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or
	// syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, &script{ctx: ctx, session: s, result: res})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	v, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	if v != nil && v != zygo.SexpNull {
		res.Value = v.SexpString(nil)
	}
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
