package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authserver/internal/database"
	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// MySQLAuthorizationCodeRepository implements AuthorizationCode persistence for MySQL.
// Uses BINARY(16) for UUIDs.
type MySQLAuthorizationCodeRepository struct {
	db *sql.DB
}

// Create inserts a new AuthorizationCode.
func (m *MySQLAuthorizationCodeRepository) Create(ctx context.Context, code *oauthDomain.AuthorizationCode) error {
	querier := database.GetTx(ctx, m.db)

	id, err := code.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal authorization code id")
	}

	query := `INSERT INTO oauth_authorization_codes (id, code_hash, client_id, subject_id, redirect_uri, scopes, 
			  code_challenge, code_challenge_method, created_at, expires_at, consumed_at) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		code.CodeHash,
		code.ClientID,
		code.SubjectID,
		code.RedirectURI,
		oauthDomain.JoinScope(code.Scopes),
		code.CodeChallenge,
		code.CodeChallengeMethod,
		code.CreatedAt,
		code.ExpiresAt,
		code.ConsumedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create authorization code")
	}
	return nil
}

// GetByCodeHash retrieves an AuthorizationCode by the hash of its value.
func (m *MySQLAuthorizationCodeRepository) GetByCodeHash(
	ctx context.Context,
	codeHash string,
) (*oauthDomain.AuthorizationCode, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, code_hash, client_id, subject_id, redirect_uri, scopes, code_challenge, 
			  code_challenge_method, created_at, expires_at, consumed_at 
			  FROM oauth_authorization_codes WHERE code_hash = ?`

	var code oauthDomain.AuthorizationCode
	var id []byte
	var scopes string

	err := querier.QueryRowContext(ctx, query, codeHash).Scan(
		&id,
		&code.CodeHash,
		&code.ClientID,
		&code.SubjectID,
		&code.RedirectURI,
		&scopes,
		&code.CodeChallenge,
		&code.CodeChallengeMethod,
		&code.CreatedAt,
		&code.ExpiresAt,
		&code.ConsumedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oauthDomain.ErrAuthorizationCodeNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get authorization code")
	}

	if err := code.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal authorization code id")
	}
	code.Scopes = oauthDomain.ParseScope(scopes)

	return &code, nil
}

// Consume marks the code as used only if it is still unconsumed and unexpired.
func (m *MySQLAuthorizationCodeRepository) Consume(
	ctx context.Context,
	codeID uuid.UUID,
	consumedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := codeID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal authorization code id")
	}

	query := `UPDATE oauth_authorization_codes 
			  SET consumed_at = ? 
			  WHERE id = ? AND consumed_at IS NULL AND expires_at > ?`

	result, err := querier.ExecContext(ctx, query, consumedAt, id, consumedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to consume authorization code")
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if count == 0 {
		return oauthDomain.ErrAuthorizationCodeAlreadyConsumed
	}

	return nil
}

// DeleteExpired removes codes that expired before olderThan, or counts them when dryRun is true.
func (m *MySQLAuthorizationCodeRepository) DeleteExpired(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM oauth_authorization_codes WHERE expires_at < ?`
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired authorization codes")
		}
		return count, nil
	}

	query := `DELETE FROM oauth_authorization_codes WHERE expires_at < ?`
	result, err := querier.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired authorization codes")
	}

	return rowsAffected(result)
}

// NewMySQLAuthorizationCodeRepository creates a new MySQL AuthorizationCode repository.
func NewMySQLAuthorizationCodeRepository(db *sql.DB) *MySQLAuthorizationCodeRepository {
	return &MySQLAuthorizationCodeRepository{db: db}
}
