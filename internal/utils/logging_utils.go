package utils

import (
	"context"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var serviceName = "gateway"

func GenerateTraceId() string {
	return uuid.New().String()
}

// SetServiceName sets the process name attached to every log line.
func SetServiceName(name string) {
	serviceName = name
}

// ExtractServiceName returns the process name, suffixed with the pull request number on preview deployments.
func ExtractServiceName() string {
	if pr := os.Getenv("PR_NUMBER"); pr != "" {
		return serviceName + "/PR-" + pr
	}
	return serviceName
}

// TraceIdFromContext reads the trace id from either a gin context or a plain context.
func TraceIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceId, ok := ctx.Value(TraceIdKey.String()).(string); ok {
		return traceId
	}
	if traceId, ok := ctx.Value(TraceIdKey).(string); ok {
		return traceId
	}
	return ""
}

// WithTraceId stores a trace id in a plain context.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}

func LogEntry(entry *log.Entry, level, message string) {
	switch level {
	case "debug":
		entry.Debug(message)
	case "info":
		entry.Info(message)
	case "warn":
		entry.Warn(message)
	case "error":
		entry.Error(message)
	case "fatal":
		entry.Fatal(message)
	case "panic":
		entry.Panic(message)
	default:
		entry.Info(message)
	}
}

func LogMessage(level, message string) {
	entry := log.WithFields(log.Fields{
		"service": ExtractServiceName(),
	})

	LogEntry(entry, level, message)
}

func LogMessageWithFields(ctx context.Context, level, message string) {
	LogEntry(EntryFromContext(ctx), level, message)
}

// EntryFromContext returns a logrus entry carrying the trace id and service name.
func EntryFromContext(ctx context.Context) *log.Entry {
	return log.WithFields(log.Fields{
		"traceId": TraceIdFromContext(ctx),
		"service": ExtractServiceName(),
	})
}
