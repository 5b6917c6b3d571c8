// Package prompt implements the confirmation engine: a uniform way to
// resolve operator questions that behaves identically whether a human or
// an automated caller is driving it. Five request kinds share one
// resolve contract, each implemented as its own handler.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/pagelift/pagelift"
)

// Mode selects between blocking for operator input and answering from
// precomputed defaults.
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeUnattended  Mode = "unattended"
)

// Kind identifies a request variant.
type Kind string

const (
	KindAsk      Kind = "ask"
	KindSecret   Kind = "secret"
	KindConfirm  Kind = "confirm"
	KindSelect   Kind = "select"
	KindCallback Kind = "callback"
)

// ErrNoAnswer signals that no answer is available: the engine is
// unattended with no default, or the condition is false with no fallback.
// The caller decides whether that is fatal.
var ErrNoAnswer = errors.New("no answer available")

// Request describes a single confirmation to resolve.
type Request struct {
	// Kind selects the handler.
	Kind Kind

	// Prompt is the text shown to the operator. For KindCallback it names
	// a registered operation or holds an ad-hoc command line.
	Prompt string

	// Condition gates whether to prompt at all. Accepts boolean literals
	// (any case) or the integers 0/1; empty means true. Anything else is
	// a usage error.
	Condition string

	// Fallback is returned verbatim in interactive mode when Condition is
	// false.
	Fallback string

	// Default is returned in unattended mode, and substitutes for an
	// empty reply to KindAsk.
	Default string

	// Choices is the comma-separated candidate list for KindSelect.
	Choices string
}

// Operation is a named action invocable through KindCallback.
type Operation func(ctx context.Context) error

// handler resolves one request kind. All five variants share this contract.
type handler interface {
	resolve(ctx context.Context, e *Engine, req Request) (string, error)
}

// Engine resolves confirmation requests for a fixed mode.
type Engine struct {
	mode     Mode
	rawIn    io.Reader
	in       *bufio.Reader
	out      io.Writer
	ops      map[string]Operation
	handlers map[Kind]handler
}

// Option configures an Engine.
type Option func(*Engine)

// WithInput sets the reader operator replies are read from.
func WithInput(r io.Reader) Option {
	return func(e *Engine) {
		e.rawIn = r
	}
}

// WithOutput sets the writer prompts are rendered to.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.out = w
	}
}

// WithOperation registers a named operation for KindCallback requests.
func WithOperation(name string, op Operation) Option {
	return func(e *Engine) {
		e.ops[name] = op
	}
}

// NewEngine creates an engine in the given mode. Input defaults to stdin
// and output to stdout.
func NewEngine(mode Mode, opts ...Option) *Engine {
	e := &Engine{
		mode:  mode,
		rawIn: os.Stdin,
		out:   os.Stdout,
		ops:   map[string]Operation{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.in = bufio.NewReader(e.rawIn)
	e.handlers = map[Kind]handler{
		KindAsk:      &askHandler{},
		KindSecret:   &secretHandler{},
		KindConfirm:  &confirmHandler{},
		KindSelect:   &selectHandler{},
		KindCallback: &callbackHandler{},
	}
	return e
}

// Mode returns the engine mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Unattended reports whether the engine answers from defaults.
func (e *Engine) Unattended() bool {
	return e.mode == ModeUnattended
}

// Register adds a named operation for KindCallback requests.
func (e *Engine) Register(name string, op Operation) {
	e.ops[name] = op
}

// Resolve answers a request. In unattended mode the non-empty Default is
// returned without blocking; with no Default the request fails with
// ErrNoAnswer. In interactive mode a false Condition returns the
// Fallback verbatim, or fails with ErrNoAnswer absent one. Otherwise the
// request dispatches to its kind's handler.
func (e *Engine) Resolve(ctx context.Context, req Request) (string, error) {
	cond, err := normalizeCondition(req.Condition)
	if err != nil {
		return "", err
	}
	if e.mode == ModeUnattended {
		if req.Default != "" {
			return req.Default, nil
		}
		return "", ErrNoAnswer
	}
	if !cond {
		if req.Fallback != "" {
			return req.Fallback, nil
		}
		return "", ErrNoAnswer
	}
	h, ok := e.handlers[req.Kind]
	if !ok {
		return "", pagelift.NewUsageError("unknown prompt kind %q", req.Kind)
	}
	return h.resolve(ctx, e, req)
}

// normalizeCondition maps boolean literals and 0/1 onto a bool. Empty
// means true. Any other literal is a usage error.
func normalizeCondition(condition string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(condition)) {
	case "", "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, pagelift.NewUsageError("malformed condition %q: want true, false, 0 or 1", condition)
	}
}

// ParseAnswer normalizes a yes/no reply. Only y, yes, true and 1 (any
// case) mean yes; everything else, including empty, means no.
func ParseAnswer(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}

// readLine reads one reply line, without the trailing newline.
func (e *Engine) readLine() (string, error) {
	line, err := e.in.ReadString('\n')
	if err != nil && (line == "" || err != io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
