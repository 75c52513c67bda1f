package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 10))
	assert.Equal(t, "abc...hij", TruncateString("abcdefghij", 9))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Len(t, []rune(SafeFileName(strings.Repeat("简", 500))), MaxFileNameLength-1)
}

func TestRecordErrorWithInfo(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := provider.Tracer("test").Start(context.Background(), "op")

	RecordError(span, nil, ErrorTypeInternal)
	RecordRabbitMQPublishError(span, errors.New("channel closed"), "ex", "rk")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "channel closed", spans[0].Status().Description)
}

func TestRecordHTTPError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, clientSpan := tracer.Start(context.Background(), "client")
	RecordHTTPError(clientSpan, errors.New("No job criteria provided."), 400)
	clientSpan.End()

	_, serverSpan := tracer.Start(context.Background(), "server")
	RecordHTTPError(serverSpan, errors.New("disk full"), 500)
	serverSpan.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Contains(t, spans[0].Attributes(), attribute.String("error.category", "client_error"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", 400))
	assert.Contains(t, spans[1].Attributes(), attribute.String("error.category", "server_error"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
