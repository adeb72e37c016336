// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

// Package envelope carries a request-scoped logger and trace span
// through the chain of matchmaking operations.
package envelope

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/thetranscendence/matchmaking/pkg/common"
)

const (
	traceIdLogField = "traceID"
	tracerName      = "matchmaking-server"

	MatchIDTag  = "transcendence.matchmaking.match_id"
	UserIDTag   = "transcendence.matchmaking.user_id"
	SocketIDTag = "transcendence.matchmaking.socket_id"
)

// Scope is the envelope handed to every service operation. It binds a
// context, a span and a trace-tagged log entry so callers never juggle
// the three separately.
type Scope struct {
	Ctx     context.Context
	TraceID string
	span    oteltrace.Span
	Log     *logrus.Entry
}

// newScope normalizes the trace ID and attaches it to the log entry.
// A trace ID of any length other than 32 characters is replaced with a
// freshly generated UUID; the characters themselves are not checked.
func newScope(ctx context.Context, span oteltrace.Span, traceID string) *Scope {
	if len(traceID) != 32 {
		traceID = common.GenerateUUID()
	}

	return &Scope{
		Ctx:     ctx,
		TraceID: traceID,
		span:    span,
		Log:     logrus.WithField(traceIdLogField, traceID),
	}
}

// NewRootScope opens a top-level scope, typically one per inbound
// event or tick. An empty traceID gets a generated one.
func NewRootScope(rootCtx context.Context, name string, traceID string) *Scope {
	ctx, span := otel.Tracer(tracerName).Start(rootCtx, name)

	return newScope(ctx, span, traceID)
}

// ChildScopeFromRemoteScope continues a trace arriving on a transport
// context (e.g. an HTTP request being upgraded to a websocket).
func ChildScopeFromRemoteScope(ctx context.Context, name string) *Scope {
	tracerCtx, span := otel.Tracer(tracerName).Start(ctx, name)

	return newScope(tracerCtx, span, span.SpanContext().TraceID().String())
}

// NewChildScope opens a nested span that keeps the parent's trace ID
// and log entry.
func (s *Scope) NewChildScope(name string) *Scope {
	ctx, span := s.span.TracerProvider().Tracer(tracerName).Start(s.Ctx, name)

	return &Scope{
		Ctx:     ctx,
		TraceID: s.TraceID,
		span:    span,
		Log:     s.Log,
	}
}

// SetLogger rebinds the scope to a specific logger. Mostly useful for
// capturing output in tests.
func (s *Scope) SetLogger(logger *logrus.Logger) {
	s.Log = logger.WithField(traceIdLogField, s.TraceID)
}

// Finish ends the scope's span.
func (s *Scope) Finish() {
	s.span.End()
}

// SetAttributes records a span attribute, mapping the value onto the
// closest otel attribute type.
func (s *Scope) SetAttributes(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case bool:
		return attribute.Bool(key, v)
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case time.Duration:
		return attribute.Int64(key, v.Milliseconds())
	case time.Time:
		return attribute.String(key, v.Format(time.RFC1123Z))
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
