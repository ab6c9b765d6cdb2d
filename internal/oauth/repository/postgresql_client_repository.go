// Package repository implements persistence for the authorization server.
//
// Provides PostgreSQL and MySQL implementations with transaction support via database.GetTx().
// PostgreSQL uses native UUID types, MySQL uses BINARY(16) types. Codes and tokens are
// stored by SHA-256 hash only.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/authserver/internal/database"
	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// PostgreSQLClientRepository implements Client persistence for PostgreSQL.
type PostgreSQLClientRepository struct {
	db *sql.DB
}

// Create inserts a new Client into the PostgreSQL database.
func (p *PostgreSQLClientRepository) Create(ctx context.Context, client *oauthDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	redirectURIs, err := marshalRedirectURIs(client.RedirectURIs)
	if err != nil {
		return err
	}

	query := `INSERT INTO oauth_clients (id, name, secret_hash, redirect_uris, allowed_scopes, is_active, created_at, updated_at) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		client.ID,
		client.Name,
		client.SecretHash,
		redirectURIs,
		oauthDomain.JoinScope(client.AllowedScopes),
		client.IsActive,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create client")
	}
	return nil
}

// Update modifies the mutable fields of an existing Client. Returns ErrClientNotFound when
// no row matches.
func (p *PostgreSQLClientRepository) Update(ctx context.Context, client *oauthDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	redirectURIs, err := marshalRedirectURIs(client.RedirectURIs)
	if err != nil {
		return err
	}

	query := `UPDATE oauth_clients 
			  SET name = $1,
				  redirect_uris = $2,
				  allowed_scopes = $3,
				  is_active = $4,
				  updated_at = $5
			  WHERE id = $6`

	result, err := querier.ExecContext(
		ctx,
		query,
		client.Name,
		redirectURIs,
		oauthDomain.JoinScope(client.AllowedScopes),
		client.IsActive,
		client.UpdatedAt,
		client.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}

	count, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if count == 0 {
		return oauthDomain.ErrClientNotFound
	}

	return nil
}

// Get retrieves a Client by ID from the PostgreSQL database.
func (p *PostgreSQLClientRepository) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, secret_hash, redirect_uris, allowed_scopes, is_active, created_at, updated_at 
			  FROM oauth_clients WHERE id = $1`

	var client oauthDomain.Client
	var redirectURIs []byte
	var allowedScopes string

	err := querier.QueryRowContext(ctx, query, clientID).Scan(
		&client.ID,
		&client.Name,
		&client.SecretHash,
		&redirectURIs,
		&allowedScopes,
		&client.IsActive,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oauthDomain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}

	client.RedirectURIs, err = unmarshalRedirectURIs(redirectURIs)
	if err != nil {
		return nil, err
	}
	client.AllowedScopes = oauthDomain.ParseScope(allowedScopes)

	return &client, nil
}

// NewPostgreSQLClientRepository creates a new PostgreSQL Client repository.
func NewPostgreSQLClientRepository(db *sql.DB) *PostgreSQLClientRepository {
	return &PostgreSQLClientRepository{db: db}
}
