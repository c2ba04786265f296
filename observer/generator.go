package observer

import (
	"context"
	"time"
	"unicode/utf8"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"

	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedGenerator wraps a hebrew.Generator with OTEL instrumentation.
type ObservedGenerator struct {
	inner hebrew.Generator
	inst  *Instruments
	model string
}

// WrapGenerator returns an instrumented generator that emits traces,
// metrics and logs.
func WrapGenerator(inner hebrew.Generator, model string, inst *Instruments) *ObservedGenerator {
	return &ObservedGenerator{inner: inner, inst: inst, model: model}
}

func (o *ObservedGenerator) Name() string { return o.inner.Name() }

func (o *ObservedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		AttrLLMModel.String(o.model),
		AttrLLMProvider.String(o.inner.Name()),
		AttrPromptChars.Int(utf8.RuneCountInString(prompt)),
	))
	defer span.End()
	start := time.Now()

	text, err := o.inner.Generate(ctx, prompt)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	answerChars := utf8.RuneCountInString(text)
	span.SetAttributes(AttrAnswerChars.Int(answerChars))

	o.inst.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		AttrLLMModel.String(o.model),
		AttrLLMProvider.String(o.inner.Name()),
		AttrStatus.String(status),
	))
	o.inst.LLMDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrLLMModel.String(o.model),
		AttrLLMProvider.String(o.inner.Name()),
	))

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("llm call completed"))
	rec.AddAttributes(
		otellog.String("llm.model", o.model),
		otellog.String("llm.provider", o.inner.Name()),
		otellog.Int("llm.answer_chars", answerChars),
		otellog.Float64("llm.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)

	return text, err
}

var _ hebrew.Generator = (*ObservedGenerator)(nil)
