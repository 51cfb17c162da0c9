package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("fantasy-capture/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// Health checks are not traced; their helpers must not start roots.
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// startHandlerSpan tags the handler span with the matched route and, for
// per-team routes, the raw entry id from the path.
func startHandlerSpan(r *http.Request, name string) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, 2)
	if r.Pattern != "" {
		attrs = append(attrs, attribute.String("http.route", r.Pattern))
	}
	if entryID := r.PathValue("entryID"); entryID != "" {
		attrs = append(attrs, attribute.String("fpl.entry_id", entryID))
	}
	return startSpan(r.Context(), name, attrs...)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

// markSpanFailed flags the request span for server-side failures only;
// 4xx responses are the caller's problem and stay unset.
func markSpanFailed(ctx context.Context, status int, err error) {
	if status < http.StatusInternalServerError || err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
