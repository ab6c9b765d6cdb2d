package usecase

import (
	"context"
	"errors"

	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// lookupClient resolves clientID through the registry. Unknown and inactive clients are
// both reported as ErrClientNotFound.
func lookupClient(ctx context.Context, clientRepo ClientRepository, clientID string) (*oauthDomain.Client, error) {
	if clientID == "" {
		return nil, oauthDomain.ErrClientNotFound
	}

	client, err := clientRepo.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, oauthDomain.ErrClientNotFound) {
			return nil, oauthDomain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}

	if !client.IsActive {
		return nil, oauthDomain.ErrClientNotFound
	}

	return client, nil
}

func operationStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
