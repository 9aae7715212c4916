package observer

import (
	"context"
	"time"

	"github.com/lexia/relay"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedProcessor wraps a relay.MessageProcessor to emit turn
// lifecycle spans, metrics, and logs. The turn span is the parent for
// all inner operations (LLM stream, function dispatches) via context
// propagation.
type ObservedProcessor struct {
	inner relay.MessageProcessor
	inst  *Instruments
}

var _ relay.MessageProcessor = (*ObservedProcessor)(nil)

// WrapProcessor returns an instrumented turn processor.
func WrapProcessor(inner relay.MessageProcessor, inst *Instruments) *ObservedProcessor {
	return &ObservedProcessor{inner: inner, inst: inst}
}

func (o *ObservedProcessor) ProcessMessage(ctx context.Context, msg relay.IncomingMessage, out relay.OutputChannel) error {
	ctx, span := o.inst.Tracer.Start(ctx, "relay.turn", trace.WithAttributes(
		AttrThreadID.String(msg.ThreadID),
		AttrLLMModel.String(msg.Model),
	))
	defer span.End()
	start := time.Now()

	span.AddEvent("turn.started")

	err := o.inner.ProcessMessage(ctx, msg, out)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"

	if ctx.Err() != nil && err != nil {
		status = "cancelled"
		span.AddEvent("turn.cancelled")
		span.SetStatus(codes.Error, "cancelled")
	} else if err != nil {
		status = "error"
		span.AddEvent("turn.failed", trace.WithAttributes(
			attribute.String("error", err.Error()),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.AddEvent("turn.completed")
	}

	span.SetAttributes(AttrTurnStatus.String(status))

	// Metrics
	o.inst.Turns.Add(ctx, 1, metric.WithAttributes(
		AttrLLMModel.String(msg.Model),
		attribute.String("status", status),
	))
	o.inst.TurnDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrLLMModel.String(msg.Model),
	))

	// Structured log
	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("turn completed"))
	rec.AddAttributes(
		otellog.String("relay.thread_id", msg.ThreadID),
		otellog.String("llm.model", msg.Model),
		otellog.String("relay.turn_status", status),
		otellog.Float64("duration_ms", durationMs),
	)
	o.inst.Logger.Emit(ctx, rec)

	return err
}
