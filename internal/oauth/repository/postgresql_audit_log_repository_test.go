package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

func newTestAuditLog() *oauthDomain.AuditLog {
	return &oauthDomain.AuditLog{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: "req-123",
		Event:     oauthDomain.AuditEventTokenIssued,
		ClientID:  "cl_0123",
		SubjectID: "user_123",
		Metadata:  map[string]any{"scope": "links.read"},
		CreatedAt: time.Now().UTC(),
	}
}

func TestPostgreSQLAuditLogRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_WithMetadata", func(t *testing.T) {
		db, mock := newMockDB(t)
		auditLog := newTestAuditLog()

		mock.ExpectExec("INSERT INTO oauth_audit_logs").
			WithArgs(
				auditLog.ID,
				auditLog.RequestID,
				"token.issued",
				auditLog.ClientID,
				auditLog.SubjectID,
				[]byte(`{"scope":"links.read"}`),
				auditLog.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewPostgreSQLAuditLogRepository(db).Create(ctx, auditLog))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NilMetadata", func(t *testing.T) {
		db, mock := newMockDB(t)
		auditLog := newTestAuditLog()
		auditLog.Metadata = nil

		mock.ExpectExec("INSERT INTO oauth_audit_logs").
			WithArgs(
				auditLog.ID,
				auditLog.RequestID,
				"token.issued",
				auditLog.ClientID,
				auditLog.SubjectID,
				[]byte(nil),
				auditLog.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewPostgreSQLAuditLogRepository(db).Create(ctx, auditLog))
	})

	t.Run("Error_DatabaseFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		dbErr := errors.New("connection reset")

		mock.ExpectExec("INSERT INTO oauth_audit_logs").WillReturnError(dbErr)

		err := NewPostgreSQLAuditLogRepository(db).Create(ctx, newTestAuditLog())
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgreSQLAuditLogRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	olderThan := time.Now().UTC()

	t.Run("Success_Delete", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("DELETE FROM oauth_audit_logs WHERE created_at < \\$1").
			WithArgs(olderThan).
			WillReturnResult(sqlmock.NewResult(0, 10))

		count, err := NewPostgreSQLAuditLogRepository(db).DeleteOlderThan(ctx, olderThan, false)
		require.NoError(t, err)
		assert.Equal(t, int64(10), count)
	})

	t.Run("Success_DryRun", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM oauth_audit_logs").
			WithArgs(olderThan).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

		count, err := NewPostgreSQLAuditLogRepository(db).DeleteOlderThan(ctx, olderThan, true)
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)
	})
}
