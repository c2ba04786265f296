package engine

import (
	"context"
	"fmt"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// NotConfiguredAnswer is returned as the answer when no provider exists.
const NotConfiguredAnswer = "LLM not configured."

// Mode is the provider configuration, fixed when the engine is built.
type Mode int

const (
	ModeNone Mode = iota
	ModePrimary
	ModePrimaryWithFallback
)

func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModePrimaryWithFallback:
		return "primary_with_fallback"
	default:
		return "none"
	}
}

func selectMode(primary, fallback hebrew.Generator) Mode {
	switch {
	case primary == nil:
		return ModeNone
	case fallback == nil:
		return ModePrimary
	default:
		return ModePrimaryWithFallback
	}
}

// Result is the outcome of one provider call: Text when Err is nil.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the call produced an answer.
func (r Result) OK() bool { return r.Err == nil }

// call runs one generation. An empty reply counts as a failure.
func call(ctx context.Context, g hebrew.Generator, prompt string) Result {
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		return Result{Err: err}
	}
	if text == "" {
		return Result{Err: &hebrew.ErrLLM{Provider: g.Name(), Message: "empty answer"}}
	}
	return Result{Text: text}
}

// answer dispatches prompt according to the engine mode. It always returns
// text: provider failures are described in the answer itself. Fallback is
// decided per query; a failing primary is tried again on the next one.
func (e *Engine) answer(ctx context.Context, prompt string) string {
	if e.mode == ModeNone {
		return NotConfiguredAnswer
	}

	first := call(ctx, e.primary, prompt)
	if first.OK() {
		return first.Text
	}
	e.logger.Warn("primary provider failed", "provider", e.primary.Name(), "error", first.Err)

	if e.mode != ModePrimaryWithFallback {
		return fmt.Sprintf("%s error and no fallback: %v", e.primary.Name(), first.Err)
	}

	second := call(ctx, e.fallback, prompt)
	if second.OK() {
		e.logger.Info("answered by fallback provider", "provider", e.fallback.Name())
		return second.Text
	}
	e.logger.Error("fallback provider failed", "provider", e.fallback.Name(), "error", second.Err)
	return fmt.Sprintf("%s error: %v; %s fallback error: %v",
		e.primary.Name(), first.Err, e.fallback.Name(), second.Err)
}
