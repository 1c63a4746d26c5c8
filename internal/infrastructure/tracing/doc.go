/*
Package tracing records spans for work that crosses the trap boundary or
enters through the monitor.

# Overview

A Session Request is traced from the system call that issues it to the
continuation that consumes its response, which may be many idle-loop
iterations later. Monitor HTTP requests and gRPC health calls get a span
each. Spans follow OpenTelemetry naming but are only logged and kept in
a small ring for the monitor's /traces route.

# Usage

	tracer := tracing.New("executive", logger.Logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))
	server := grpc.NewServer(
		grpc.UnaryInterceptor(tracing.GRPCUnaryInterceptor(tracer)),
		grpc.StreamInterceptor(tracing.GRPCStreamInterceptor(tracer)),
	)

	span, ctx := tracer.StartSpan(ctx, "operation")
	span.SetTag("key", "value")
	span.Finish()
	tracer.Submit(span)

# Trace Format

Trace context propagates through the X-Trace-ID and X-Span-ID headers
(x-trace-id and x-span-id in gRPC metadata).
*/
package tracing
