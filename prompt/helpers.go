package prompt

import (
	"context"
	"fmt"
)

// DefaultAttempts bounds the text and password collectors.
const DefaultAttempts = 3

// Text collects a non-empty line of input with bounded retries. On
// exhaustion it returns the default alongside an error so the caller can
// decide whether proceeding with the default is acceptable.
func (e *Engine) Text(ctx context.Context, promptText, def string, attempts int) (string, error) {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if e.Unattended() {
		if def != "" {
			return def, nil
		}
		return "", ErrNoAnswer
	}
	for i := 0; i < attempts; i++ {
		value, err := e.Resolve(ctx, Request{Kind: KindAsk, Prompt: promptText, Default: def})
		if err != nil {
			return def, err
		}
		if value != "" {
			return value, nil
		}
	}
	return def, fmt.Errorf("no input after %d attempts", attempts)
}

// Password collects a secret twice and re-prompts until both entries
// match or attempts are exhausted.
func (e *Engine) Password(ctx context.Context, promptText string, attempts int) (string, error) {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if e.Unattended() {
		return "", ErrNoAnswer
	}
	for i := 0; i < attempts; i++ {
		first, err := e.Resolve(ctx, Request{Kind: KindSecret, Prompt: promptText})
		if err != nil {
			return "", err
		}
		second, err := e.Resolve(ctx, Request{Kind: KindSecret, Prompt: "Confirm " + promptText})
		if err != nil {
			return "", err
		}
		if first != "" && first == second {
			return first, nil
		}
		fmt.Fprintln(e.out, "Entries do not match")
	}
	return "", fmt.Errorf("no matching entries after %d attempts", attempts)
}

// Confirm asks a yes/no question and returns the parsed answer. In
// unattended mode the supplied default is returned without blocking.
func (e *Engine) Confirm(ctx context.Context, promptText string, def bool) (bool, error) {
	value, err := e.Resolve(ctx, Request{
		Kind:    KindConfirm,
		Prompt:  promptText,
		Default: fmt.Sprintf("%t", def),
	})
	if err != nil {
		return false, err
	}
	return ParseAnswer(value), nil
}

// StepGate asks whether to proceed with a named step. Declining means
// "skip this step", never "fail the pipeline". Unattended runs proceed
// automatically.
func (e *Engine) StepGate(ctx context.Context, name, description string) (bool, error) {
	promptText := fmt.Sprintf("Run step %q?", name)
	if description != "" {
		promptText = fmt.Sprintf("Run step %q (%s)?", name, description)
	}
	return e.Confirm(ctx, promptText, true)
}
