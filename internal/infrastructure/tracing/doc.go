/*
Package tracing provides lightweight spans for pipeline stages and
dashboard requests.

Spans carry a trace ID shared by everything started from the same context
and a parent span ID. Finished spans are handed to a buffered collector that
logs them through zap; nothing is exported.

# Usage

	tracer := tracing.New("sourcehealth", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "validate")
	defer tracer.End(span)
	span.SetTag("source", def.Name)

# Trace Format

Dashboard requests propagate context through the X-Trace-ID and X-Span-ID
headers and echo both on the response.
*/
package tracing
