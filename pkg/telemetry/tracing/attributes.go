package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for proxy spans.
const (
	AttrRequestID    = attribute.Key("callisto.request_id")
	AttrEndpoint     = attribute.Key("callisto.endpoint")
	AttrModel        = attribute.Key("callisto.model")
	AttrStream       = attribute.Key("callisto.stream")
	AttrKeyTier      = attribute.Key("callisto.key_tier")
	AttrErrorKind    = attribute.Key("callisto.error_kind")
	AttrStreamFrames = attribute.Key("callisto.stream_frames")
)

// SetRequestAttributes annotates a server span with request details.
func SetRequestAttributes(span trace.Span, requestID, endpoint, model string, stream bool) {
	span.SetAttributes(
		AttrRequestID.String(requestID),
		AttrEndpoint.String(endpoint),
		AttrModel.String(model),
		AttrStream.Bool(stream),
	)
}

// SetErrorAttributes records err on span along with its kind.
func SetErrorAttributes(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	span.SetAttributes(AttrErrorKind.String(kind))
	SetStatus(span, err)
}
