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

// PostgreSQLTokenRepository implements AccessToken and RefreshToken persistence for PostgreSQL.
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// CreateAccessToken inserts a new AccessToken.
func (p *PostgreSQLTokenRepository) CreateAccessToken(ctx context.Context, token *oauthDomain.AccessToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO oauth_access_tokens (id, token_hash, client_id, subject_id, scopes, family_id, 
			  issued_at, expires_at, revoked_at) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.ClientID,
		token.SubjectID,
		oauthDomain.JoinScope(token.Scopes),
		token.FamilyID,
		token.IssuedAt,
		token.ExpiresAt,
		token.RevokedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create access token")
	}
	return nil
}

// GetAccessTokenByHash retrieves an AccessToken by hash.
func (p *PostgreSQLTokenRepository) GetAccessTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.AccessToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, client_id, subject_id, scopes, family_id, issued_at, expires_at, revoked_at 
			  FROM oauth_access_tokens WHERE token_hash = $1`

	var token oauthDomain.AccessToken
	var scopes string

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.ClientID,
		&token.SubjectID,
		&scopes,
		&token.FamilyID,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oauthDomain.ErrAccessTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get access token")
	}

	token.Scopes = oauthDomain.ParseScope(scopes)
	return &token, nil
}

// RevokeFamilyAccessTokens revokes every unrevoked access token of the family.
func (p *PostgreSQLTokenRepository) RevokeFamilyAccessTokens(
	ctx context.Context,
	familyID uuid.UUID,
	revokedAt time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE oauth_access_tokens SET revoked_at = $1 WHERE family_id = $2 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, revokedAt, familyID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke family access tokens")
	}

	return rowsAffected(result)
}

// RevokeFamilyRefreshTokens retires the family head by pointing it at itself, so any
// later use of it is treated as replay.
func (p *PostgreSQLTokenRepository) RevokeFamilyRefreshTokens(ctx context.Context, familyID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE oauth_refresh_tokens SET superseded_by_token_id = id 
			  WHERE family_id = $1 AND superseded_by_token_id IS NULL`

	result, err := querier.ExecContext(ctx, query, familyID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke family refresh tokens")
	}

	return rowsAffected(result)
}

// CreateRefreshToken inserts a new RefreshToken.
func (p *PostgreSQLTokenRepository) CreateRefreshToken(ctx context.Context, token *oauthDomain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO oauth_refresh_tokens (id, token_hash, client_id, subject_id, scopes, family_id, 
			  superseded_by_token_id, issued_at, expires_at) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.ClientID,
		token.SubjectID,
		oauthDomain.JoinScope(token.Scopes),
		token.FamilyID,
		nullUUID(token.SupersededByTokenID),
		token.IssuedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetRefreshTokenByHash retrieves a RefreshToken by hash.
func (p *PostgreSQLTokenRepository) GetRefreshTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, client_id, subject_id, scopes, family_id, superseded_by_token_id, 
			  issued_at, expires_at 
			  FROM oauth_refresh_tokens WHERE token_hash = $1`

	var token oauthDomain.RefreshToken
	var scopes string
	var supersededBy uuid.NullUUID

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.ClientID,
		&token.SubjectID,
		&scopes,
		&token.FamilyID,
		&supersededBy,
		&token.IssuedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oauthDomain.ErrStoredRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	token.Scopes = oauthDomain.ParseScope(scopes)
	if supersededBy.Valid {
		token.SupersededByTokenID = &supersededBy.UUID
	}
	return &token, nil
}

// SupersedeRefreshToken links the token to its successor only while it is still the family
// head. Zero affected rows means the token was already rotated.
func (p *PostgreSQLTokenRepository) SupersedeRefreshToken(
	ctx context.Context,
	tokenID uuid.UUID,
	supersededByID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE oauth_refresh_tokens 
			  SET superseded_by_token_id = $1 
			  WHERE id = $2 AND superseded_by_token_id IS NULL`

	result, err := querier.ExecContext(ctx, query, supersededByID, tokenID)
	if err != nil {
		return apperrors.Wrap(err, "failed to supersede refresh token")
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if count == 0 {
		return oauthDomain.ErrRefreshTokenAlreadyRotated
	}

	return nil
}

// DeleteExpired removes access and refresh tokens that expired before olderThan, or counts
// them when dryRun is true.
func (p *PostgreSQLTokenRepository) DeleteExpired(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var total int64
	for _, table := range []string{"oauth_access_tokens", "oauth_refresh_tokens"} {
		if dryRun {
			var count int64
			query := `SELECT COUNT(*) FROM ` + table + ` WHERE expires_at < $1`
			if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
				return 0, apperrors.Wrapf(err, "failed to count expired rows in %s", table)
			}
			total += count
			continue
		}

		query := `DELETE FROM ` + table + ` WHERE expires_at < $1`
		result, err := querier.ExecContext(ctx, query, olderThan)
		if err != nil {
			return 0, apperrors.Wrapf(err, "failed to delete expired rows in %s", table)
		}
		count, err := rowsAffected(result)
		if err != nil {
			return 0, err
		}
		total += count
	}

	return total, nil
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
