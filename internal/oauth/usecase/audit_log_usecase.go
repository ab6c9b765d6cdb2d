package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// auditLogUseCase implements AuditLogUseCase.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	logger       *slog.Logger
}

// Record stores an audit event with a UUIDv7 id and the request id found in ctx.
// Replay detections are also logged at warn level.
func (a *auditLogUseCase) Record(
	ctx context.Context,
	event oauthDomain.AuditEvent,
	clientID string,
	subjectID string,
	metadata map[string]any,
) {
	auditLog := &oauthDomain.AuditLog{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: oauthDomain.RequestIDFromContext(ctx),
		Event:     event,
		ClientID:  clientID,
		SubjectID: subjectID,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if event == oauthDomain.AuditEventRefreshTokenReplay {
		a.logger.Warn("refresh token reuse detected",
			slog.String("client_id", clientID),
			slog.String("request_id", auditLog.RequestID),
			slog.Any("metadata", metadata),
		)
	}

	if err := a.auditLogRepo.Create(ctx, auditLog); err != nil {
		a.logger.Error("failed to record audit log",
			slog.String("event", string(event)),
			slog.String("client_id", clientID),
			slog.Any("error", err),
		)
	}
}

// DeleteOlderThan removes audit logs created more than days ago.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "days must be a positive number, got: %d", days)
	}

	olderThan := time.Now().UTC().AddDate(0, 0, -days)

	count, err := a.auditLogRepo.DeleteOlderThan(ctx, olderThan, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}

	return count, nil
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository, logger *slog.Logger) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		logger:       logger,
	}
}
