// Package domain defines the OAuth 2.0 authorization server domain: registered clients,
// authorization codes, access and refresh tokens, scopes, grants and the error codes
// returned to OAuth clients.
package domain

import (
	"slices"
	"time"
)

// Client is a registered OAuth application. A client without a secret hash is public
// and must prove possession of a PKCE verifier instead of a secret.
type Client struct {
	ID            string    // Public client identifier (cl_ + 32 hex chars)
	Name          string    // Human-readable application name
	SecretHash    string    //nolint:gosec // Argon2id hash of the client secret, empty for public clients
	RedirectURIs  []string  // Registered redirect URIs, matched exactly
	AllowedScopes []string  // Scopes the client may request
	IsActive      bool      // Inactive clients are treated as unknown
	CreatedAt     time.Time // Registration time
	UpdatedAt     time.Time // Last modification time
}

// PKCERequired reports whether the client is public and therefore must use PKCE.
func (c *Client) PKCERequired() bool {
	return c.SecretHash == ""
}

// HasRedirectURI reports whether uri byte-equals one of the registered redirect URIs.
func (c *Client) HasRedirectURI(uri string) bool {
	return uri != "" && slices.Contains(c.RedirectURIs, uri)
}

// CreateClientInput contains the parameters for registering a new client.
type CreateClientInput struct {
	Name          string   // Human-readable application name
	RedirectURIs  []string // Absolute redirect URIs without fragments
	AllowedScopes []string // Scopes from the catalog
	Public        bool     // When true no secret is provisioned and PKCE is mandatory
}

// CreateClientOutput contains the result of registering a client.
// SECURITY: PlainSecret is only returned once and is empty for public clients.
type CreateClientOutput struct {
	ID          string
	PlainSecret string
}

// UpdateClientInput contains the mutable fields of a registered client.
type UpdateClientInput struct {
	Name          string
	RedirectURIs  []string
	AllowedScopes []string
	IsActive      bool
}
