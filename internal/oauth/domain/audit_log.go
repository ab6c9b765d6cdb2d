package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEvent names a security-relevant step of the authorization flow.
type AuditEvent string

// Audit events.
const (
	AuditEventAuthorizationCodeIssued AuditEvent = "authorization_code.issued"
	AuditEventTokenIssued             AuditEvent = "token.issued"
	AuditEventTokenRefreshed          AuditEvent = "token.refreshed"
	AuditEventRefreshTokenReplay      AuditEvent = "refresh_token.replay_detected"
)

// AuditLog records one event of the authorization flow.
type AuditLog struct {
	ID        uuid.UUID
	RequestID string
	Event     AuditEvent
	ClientID  string
	SubjectID string
	Metadata  map[string]any
	CreatedAt time.Time
}

type requestIDKey struct{}

// WithRequestID stores the request id used to correlate audit events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID, or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
