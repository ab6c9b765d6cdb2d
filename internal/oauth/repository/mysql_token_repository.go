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

// MySQLTokenRepository implements AccessToken and RefreshToken persistence for MySQL.
// Uses BINARY(16) for UUIDs.
type MySQLTokenRepository struct {
	db *sql.DB
}

// CreateAccessToken inserts a new AccessToken.
func (m *MySQLTokenRepository) CreateAccessToken(ctx context.Context, token *oauthDomain.AccessToken) error {
	querier := database.GetTx(ctx, m.db)

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access token id")
	}

	familyID, err := token.FamilyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access token family_id")
	}

	query := `INSERT INTO oauth_access_tokens (id, token_hash, client_id, subject_id, scopes, family_id, 
			  issued_at, expires_at, revoked_at) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		token.ClientID,
		token.SubjectID,
		oauthDomain.JoinScope(token.Scopes),
		familyID,
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
func (m *MySQLTokenRepository) GetAccessTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.AccessToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, client_id, subject_id, scopes, family_id, issued_at, expires_at, revoked_at 
			  FROM oauth_access_tokens WHERE token_hash = ?`

	var token oauthDomain.AccessToken
	var id, familyID []byte
	var scopes string

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&id,
		&token.TokenHash,
		&token.ClientID,
		&token.SubjectID,
		&scopes,
		&familyID,
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

	if err := token.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access token id")
	}
	if err := token.FamilyID.UnmarshalBinary(familyID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access token family_id")
	}
	token.Scopes = oauthDomain.ParseScope(scopes)

	return &token, nil
}

// RevokeFamilyAccessTokens revokes every unrevoked access token of the family.
func (m *MySQLTokenRepository) RevokeFamilyAccessTokens(
	ctx context.Context,
	familyID uuid.UUID,
	revokedAt time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	family, err := familyID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal family_id")
	}

	query := `UPDATE oauth_access_tokens SET revoked_at = ? WHERE family_id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, revokedAt, family)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke family access tokens")
	}

	return rowsAffected(result)
}

// RevokeFamilyRefreshTokens retires the family head by pointing it at itself, so any
// later use of it is treated as replay.
func (m *MySQLTokenRepository) RevokeFamilyRefreshTokens(ctx context.Context, familyID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	family, err := familyID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal family_id")
	}

	query := `UPDATE oauth_refresh_tokens SET superseded_by_token_id = id 
			  WHERE family_id = ? AND superseded_by_token_id IS NULL`

	result, err := querier.ExecContext(ctx, query, family)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke family refresh tokens")
	}

	return rowsAffected(result)
}

// CreateRefreshToken inserts a new RefreshToken.
func (m *MySQLTokenRepository) CreateRefreshToken(ctx context.Context, token *oauthDomain.RefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	familyID, err := token.FamilyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token family_id")
	}

	var supersededBy []byte
	if token.SupersededByTokenID != nil {
		supersededBy, err = token.SupersededByTokenID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal refresh token superseded_by_token_id")
		}
	}

	query := `INSERT INTO oauth_refresh_tokens (id, token_hash, client_id, subject_id, scopes, family_id, 
			  superseded_by_token_id, issued_at, expires_at) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		token.ClientID,
		token.SubjectID,
		oauthDomain.JoinScope(token.Scopes),
		familyID,
		supersededBy,
		token.IssuedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetRefreshTokenByHash retrieves a RefreshToken by hash.
func (m *MySQLTokenRepository) GetRefreshTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, client_id, subject_id, scopes, family_id, superseded_by_token_id, 
			  issued_at, expires_at 
			  FROM oauth_refresh_tokens WHERE token_hash = ?`

	var token oauthDomain.RefreshToken
	var id, familyID, supersededBy []byte
	var scopes string

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&id,
		&token.TokenHash,
		&token.ClientID,
		&token.SubjectID,
		&scopes,
		&familyID,
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

	if err := token.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal refresh token id")
	}
	if err := token.FamilyID.UnmarshalBinary(familyID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal refresh token family_id")
	}
	if supersededBy != nil {
		var successor uuid.UUID
		if err := successor.UnmarshalBinary(supersededBy); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal refresh token superseded_by_token_id")
		}
		token.SupersededByTokenID = &successor
	}
	token.Scopes = oauthDomain.ParseScope(scopes)

	return &token, nil
}

// SupersedeRefreshToken links the token to its successor only while it is still the family head.
func (m *MySQLTokenRepository) SupersedeRefreshToken(
	ctx context.Context,
	tokenID uuid.UUID,
	supersededByID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	successor, err := supersededByID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token superseded_by_token_id")
	}

	query := `UPDATE oauth_refresh_tokens 
			  SET superseded_by_token_id = ? 
			  WHERE id = ? AND superseded_by_token_id IS NULL`

	result, err := querier.ExecContext(ctx, query, successor, id)
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
func (m *MySQLTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var total int64
	for _, table := range []string{"oauth_access_tokens", "oauth_refresh_tokens"} {
		if dryRun {
			var count int64
			query := `SELECT COUNT(*) FROM ` + table + ` WHERE expires_at < ?`
			if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
				return 0, apperrors.Wrapf(err, "failed to count expired rows in %s", table)
			}
			total += count
			continue
		}

		query := `DELETE FROM ` + table + ` WHERE expires_at < ?`
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

// NewMySQLTokenRepository creates a new MySQL token repository.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}
