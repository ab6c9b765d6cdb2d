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

// PostgreSQLAuthorizationCodeRepository implements AuthorizationCode persistence for PostgreSQL.
type PostgreSQLAuthorizationCodeRepository struct {
	db *sql.DB
}

// Create inserts a new AuthorizationCode.
func (p *PostgreSQLAuthorizationCodeRepository) Create(
	ctx context.Context,
	code *oauthDomain.AuthorizationCode,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO oauth_authorization_codes (id, code_hash, client_id, subject_id, redirect_uri, scopes, 
			  code_challenge, code_challenge_method, created_at, expires_at, consumed_at) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		code.ID,
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
func (p *PostgreSQLAuthorizationCodeRepository) GetByCodeHash(
	ctx context.Context,
	codeHash string,
) (*oauthDomain.AuthorizationCode, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, code_hash, client_id, subject_id, redirect_uri, scopes, code_challenge, 
			  code_challenge_method, created_at, expires_at, consumed_at 
			  FROM oauth_authorization_codes WHERE code_hash = $1`

	var code oauthDomain.AuthorizationCode
	var scopes string

	err := querier.QueryRowContext(ctx, query, codeHash).Scan(
		&code.ID,
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

	code.Scopes = oauthDomain.ParseScope(scopes)
	return &code, nil
}

// Consume marks the code as used only if it is still unconsumed and unexpired. Zero affected
// rows means another request won the race or the code expired.
func (p *PostgreSQLAuthorizationCodeRepository) Consume(
	ctx context.Context,
	codeID uuid.UUID,
	consumedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE oauth_authorization_codes 
			  SET consumed_at = $1 
			  WHERE id = $2 AND consumed_at IS NULL AND expires_at > $1`

	result, err := querier.ExecContext(ctx, query, consumedAt, codeID)
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
func (p *PostgreSQLAuthorizationCodeRepository) DeleteExpired(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM oauth_authorization_codes WHERE expires_at < $1`
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired authorization codes")
		}
		return count, nil
	}

	query := `DELETE FROM oauth_authorization_codes WHERE expires_at < $1`
	result, err := querier.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired authorization codes")
	}

	return rowsAffected(result)
}

// NewPostgreSQLAuthorizationCodeRepository creates a new PostgreSQL AuthorizationCode repository.
func NewPostgreSQLAuthorizationCodeRepository(db *sql.DB) *PostgreSQLAuthorizationCodeRepository {
	return &PostgreSQLAuthorizationCodeRepository{db: db}
}
