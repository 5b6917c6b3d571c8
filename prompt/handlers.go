package prompt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/pagelift/pagelift"
)

// askHandler reads a free-text reply. An empty reply substitutes the
// request default when one was supplied.
type askHandler struct{}

func (h *askHandler) resolve(ctx context.Context, e *Engine, req Request) (string, error) {
	fmt.Fprintf(e.out, "%s ", req.Prompt)
	line, err := e.readLine()
	if err != nil {
		return "", fmt.Errorf("reading reply: %w", err)
	}
	if line == "" && req.Default != "" {
		return req.Default, nil
	}
	return line, nil
}

// secretHandler reads a reply without echoing it to the terminal. When
// input is not a terminal (tests, redirected stdin) it falls back to a
// plain line read.
type secretHandler struct{}

func (h *secretHandler) resolve(ctx context.Context, e *Engine, req Request) (string, error) {
	fmt.Fprintf(e.out, "%s ", req.Prompt)
	if f, ok := e.rawIn.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(e.out)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(secret), nil
	}
	line, err := e.readLine()
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return line, nil
}

// confirmHandler asks a yes/no question. Replies normalize
// case-insensitively; anything that is not an explicit yes means no.
type confirmHandler struct{}

func (h *confirmHandler) resolve(ctx context.Context, e *Engine, req Request) (string, error) {
	fmt.Fprintf(e.out, "%s [y/N] ", req.Prompt)
	line, err := e.readLine()
	if err != nil {
		return "", fmt.Errorf("reading reply: %w", err)
	}
	if ParseAnswer(line) {
		return "true", nil
	}
	return "false", nil
}

// selectHandler renders a 1-based numbered menu and loops until the reply
// parses as an in-range integer. There is deliberately no attempt cap at
// this layer; out-of-range input prints an error and re-prompts.
type selectHandler struct{}

func (h *selectHandler) resolve(ctx context.Context, e *Engine, req Request) (string, error) {
	candidates := splitChoices(req.Choices)
	if len(candidates) == 0 {
		return "", pagelift.NewUsageError("select prompt %q has no choices", req.Prompt)
	}
	fmt.Fprintln(e.out, req.Prompt)
	for i, c := range candidates {
		fmt.Fprintf(e.out, "  %d) %s\n", i+1, c)
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(e.out, "Selection [1-%d]: ", len(candidates))
		line, err := e.readLine()
		if err != nil {
			return "", fmt.Errorf("reading selection: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(candidates) {
			fmt.Fprintf(e.out, "Invalid selection %q\n", line)
			continue
		}
		return candidates[n-1], nil
	}
}

func splitChoices(choices string) []string {
	var out []string
	for _, c := range strings.Split(choices, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// callbackHandler treats the prompt text as a registered operation name
// when one exists, and otherwise as an ad-hoc command line run through
// the shell. Either path fails on a non-zero result.
type callbackHandler struct{}

func (h *callbackHandler) resolve(ctx context.Context, e *Engine, req Request) (string, error) {
	if op, ok := e.ops[req.Prompt]; ok {
		if err := op(ctx); err != nil {
			return "", fmt.Errorf("operation %q failed: %w", req.Prompt, err)
		}
		return "", nil
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", req.Prompt)
	cmd.Stdout = e.out
	cmd.Stderr = e.out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %q failed: %w", req.Prompt, err)
	}
	return "", nil
}
