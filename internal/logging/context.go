package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

type contextKey string

const (
	loggerKey  contextKey = "logger"
	traceIDKey contextKey = "trace_id"
)

// GenerateTraceID generates a new trace ID
func GenerateTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// FromContext retrieves the logger from context
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return Default()
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithTraceContext adds a trace ID to the context and returns a logger with it
func WithTraceContext(ctx context.Context) (context.Context, *Logger) {
	traceID := GenerateTraceID()
	l := Default().WithField("trace_id", traceID)
	newCtx := context.WithValue(ctx, traceIDKey, traceID)
	newCtx = context.WithValue(newCtx, loggerKey, l)
	return newCtx, l
}

// LicenseContext creates a logger context for license operations
func LicenseContext(licenseID, key, licenseType, status string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"license_id":   licenseID,
		"license_key":  key,
		"license_type": licenseType,
		"status":       status,
	}).WithComponent("license")
}

// RenewalContext creates a logger context for renewal runs
func RenewalContext(runID string, runDate time.Time) *Logger {
	return Default().WithFields(map[string]interface{}{
		"run_id":   runID,
		"run_date": runDate.Format("2006-01-02"),
	}).WithComponent("renewal")
}

// TransactionContext creates a logger context for billing transactions
func TransactionContext(transactionID, transactionType, amount string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"transaction_id": transactionID,
		"type":           transactionType,
		"amount":         amount,
	}).WithComponent("transaction")
}

// APIContext creates a logger context for API operations
func APIContext(method, path string, statusCode int) *Logger {
	return Default().WithFields(map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
	}).WithComponent("api")
}
