package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/authserver/internal/database"
	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// MySQLClientRepository implements Client persistence for MySQL.
type MySQLClientRepository struct {
	db *sql.DB
}

// Create inserts a new Client into the MySQL database.
func (m *MySQLClientRepository) Create(ctx context.Context, client *oauthDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	redirectURIs, err := marshalRedirectURIs(client.RedirectURIs)
	if err != nil {
		return err
	}

	query := `INSERT INTO oauth_clients (id, name, secret_hash, redirect_uris, allowed_scopes, is_active, created_at, updated_at) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

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

// Update modifies the mutable fields of an existing Client. MySQL reports zero affected rows
// when nothing changed, so existence is checked with a separate read.
func (m *MySQLClientRepository) Update(ctx context.Context, client *oauthDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	redirectURIs, err := marshalRedirectURIs(client.RedirectURIs)
	if err != nil {
		return err
	}

	query := `UPDATE oauth_clients 
			  SET name = ?,
				  redirect_uris = ?,
				  allowed_scopes = ?,
				  is_active = ?,
				  updated_at = ?
			  WHERE id = ?`

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
		if _, err := m.Get(ctx, client.ID); err != nil {
			return err
		}
	}

	return nil
}

// Get retrieves a Client by ID from the MySQL database.
func (m *MySQLClientRepository) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, secret_hash, redirect_uris, allowed_scopes, is_active, created_at, updated_at 
			  FROM oauth_clients WHERE id = ?`

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

// NewMySQLClientRepository creates a new MySQL Client repository.
func NewMySQLClientRepository(db *sql.DB) *MySQLClientRepository {
	return &MySQLClientRepository{db: db}
}
