package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
)

var usecaseTracer = otel.Tracer("fantasy-capture/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

const (
	attrEntryID  = attribute.Key("fpl.entry_id")
	attrGameweek = attribute.Key("fpl.gameweek")
	attrLeagueID = attribute.Key("fpl.league_id")
	attrMode     = attribute.Key("capture.mode")
	attrAttempts = attribute.Key("capture.attempts")
)

// startUsecaseSpan only opens a span under a live parent, so CLI runs and
// untraced requests do not produce orphan roots.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func targetAttributes(target capture.Target) []attribute.KeyValue {
	return []attribute.KeyValue{
		attrEntryID.Int64(target.EntryID),
		attrGameweek.Int(target.Gameweek),
	}
}

// finishAttemptSpan marks the span failed when the attempt did not succeed.
func finishAttemptSpan(span trace.Span, attempt *capture.Attempt) {
	span.SetAttributes(attrAttempts.Int(attempt.Number()))
	result := attempt.Result()
	if result.Success {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetStatus(codes.Error, result.ErrorMessage)
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
