package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType span 上 error.type 属性的取值
type ErrorType string

const (
	ErrorTypeHTTP        ErrorType = "http"
	ErrorTypeDB          ErrorType = "db"
	ErrorTypeRedis       ErrorType = "redis"
	ErrorTypeRabbitMQ    ErrorType = "rabbitmq"
	ErrorTypeObjectStore ErrorType = "object_store"
	ErrorTypeExtraction  ErrorType = "extraction"
	ErrorTypeCompletion  ErrorType = "completion"
	ErrorTypeResultStore ErrorType = "result_store"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeTimeout     ErrorType = "timeout"
)

// RecordError 记录错误并把 span 置为错误状态
func RecordError(span trace.Span, err error, errorType ErrorType) {
	RecordErrorWithInfo(span, err, errorType)
}

// RecordErrorWithInfo 同 RecordError，并附加额外属性
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	)
	span.SetAttributes(attributes...)
	span.SetStatus(codes.Error, err.Error())
}

// RecordHTTPError 记录接口返回给客户端的错误，按状态码区分 client_error 和 server_error
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	category := "server_error"
	if statusCode < 500 {
		category = "client_error"
	}
	RecordErrorWithInfo(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", category),
	)
}

// RecordRabbitMQPublishError 记录RabbitMQ发布失败
func RecordRabbitMQPublishError(span trace.Span, err error, exchange, routingKey string) {
	RecordErrorWithInfo(span, err, ErrorTypeRabbitMQ,
		attribute.String("messaging.destination.name", exchange),
		attribute.String("messaging.rabbitmq.destination.routing_key", routingKey),
	)
}
