package observer

import (
	"context"
	"time"

	"github.com/lexia/relay"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedDispatcher wraps a relay.FunctionDispatcher with OTEL
// instrumentation.
type ObservedDispatcher struct {
	inner relay.FunctionDispatcher
	inst  *Instruments
}

var _ relay.FunctionDispatcher = (*ObservedDispatcher)(nil)

// WrapDispatcher returns an instrumented function dispatcher.
func WrapDispatcher(inner relay.FunctionDispatcher, inst *Instruments) *ObservedDispatcher {
	return &ObservedDispatcher{inner: inner, inst: inst}
}

func (o *ObservedDispatcher) Definitions() []relay.ToolDefinition {
	return o.inner.Definitions()
}

func (o *ObservedDispatcher) Dispatch(ctx context.Context, env relay.Env, call relay.CompletedToolCall) relay.FunctionResult {
	ctx, span := o.inst.Tracer.Start(ctx, "function.dispatch", trace.WithAttributes(
		AttrFunctionName.String(call.Name),
	))
	defer span.End()
	start := time.Now()

	result := o.inner.Dispatch(ctx, env, call)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if result.IsError {
		status = "error"
	}

	span.SetAttributes(
		AttrFunctionStatus.String(status),
		AttrFunctionResultLength.Int(len(result.Text)),
	)

	o.inst.FunctionDispatches.Add(ctx, 1, metric.WithAttributes(
		AttrFunctionName.String(call.Name),
		attribute.String("status", status),
	))
	o.inst.FunctionDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrFunctionName.String(call.Name),
	))

	// Structured log
	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("function dispatched"))
	rec.AddAttributes(
		otellog.String("function.name", call.Name),
		otellog.String("function.status", status),
		otellog.Int("function.result_length", len(result.Text)),
		otellog.Float64("function.duration_ms", durationMs),
	)
	o.inst.Logger.Emit(ctx, rec)

	return result
}
