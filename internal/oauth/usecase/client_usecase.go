package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthService "github.com/allisson/authserver/internal/oauth/service"
	customValidation "github.com/allisson/authserver/internal/validation"
)

// clientUseCase implements ClientUseCase.
type clientUseCase struct {
	clientRepo    ClientRepository
	secretService oauthService.SecretService
	scopeResolver *oauthDomain.ScopeResolver
}

// Create validates the registration, generates the client id and, for confidential
// clients, a secret whose Argon2id hash is stored.
func (c *clientUseCase) Create(
	ctx context.Context,
	createClientInput *oauthDomain.CreateClientInput,
) (*oauthDomain.CreateClientOutput, error) {
	if err := c.validate(
		createClientInput.Name,
		createClientInput.RedirectURIs,
		createClientInput.AllowedScopes,
	); err != nil {
		return nil, err
	}

	clientID, err := c.secretService.GenerateClientID()
	if err != nil {
		return nil, err
	}

	var plainSecret, secretHash string
	if !createClientInput.Public {
		plainSecret, secretHash, err = c.secretService.GenerateSecret()
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	client := &oauthDomain.Client{
		ID:            clientID,
		Name:          createClientInput.Name,
		SecretHash:    secretHash,
		RedirectURIs:  createClientInput.RedirectURIs,
		AllowedScopes: oauthDomain.ParseScope(oauthDomain.JoinScope(createClientInput.AllowedScopes)),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := c.clientRepo.Create(ctx, client); err != nil {
		return nil, apperrors.Wrap(err, "failed to create client")
	}

	return &oauthDomain.CreateClientOutput{
		ID:          clientID,
		PlainSecret: plainSecret,
	}, nil
}

// Update replaces the mutable fields of an existing client. The secret is preserved.
func (c *clientUseCase) Update(
	ctx context.Context,
	clientID string,
	updateClientInput *oauthDomain.UpdateClientInput,
) error {
	if err := c.validate(
		updateClientInput.Name,
		updateClientInput.RedirectURIs,
		updateClientInput.AllowedScopes,
	); err != nil {
		return err
	}

	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	client.Name = updateClientInput.Name
	client.RedirectURIs = updateClientInput.RedirectURIs
	client.AllowedScopes = oauthDomain.ParseScope(oauthDomain.JoinScope(updateClientInput.AllowedScopes))
	client.IsActive = updateClientInput.IsActive
	client.UpdatedAt = time.Now().UTC()

	if err := c.clientRepo.Update(ctx, client); err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}

	return nil
}

// Get retrieves a client by ID, active or not.
func (c *clientUseCase) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	return c.clientRepo.Get(ctx, clientID)
}

func (c *clientUseCase) validate(name string, redirectURIs, allowedScopes []string) error {
	err := validation.Errors{
		"name": validation.Validate(
			name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		"redirect_uris": validation.Validate(
			redirectURIs,
			validation.Required,
			validation.Each(validation.Required, customValidation.RedirectURI),
		),
	}.Filter()
	if err != nil {
		return customValidation.WrapValidationError(err)
	}

	return c.scopeResolver.Validate(allowedScopes)
}

// NewClientUseCase creates a new ClientUseCase with the provided dependencies.
func NewClientUseCase(
	clientRepo ClientRepository,
	secretService oauthService.SecretService,
	scopeResolver *oauthDomain.ScopeResolver,
) ClientUseCase {
	return &clientUseCase{
		clientRepo:    clientRepo,
		secretService: secretService,
		scopeResolver: scopeResolver,
	}
}
