package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
)

// UpdateClientOptions carries the update-client flag values. Empty Name, RedirectURIs
// and Scopes keep the current values.
type UpdateClientOptions struct {
	ClientID     string
	Name         string
	RedirectURIs []string
	Scopes       []string
	IsActive     bool
	Format       string
}

// RunUpdateClient replaces the mutable fields of a registered client. When no redirect
// URIs are passed it shows the current ones and asks whether to keep them.
// The client ID and secret remain unchanged.
//
// Requirements: Database must be migrated and the client must exist.
func RunUpdateClient(
	ctx context.Context,
	clientUseCase oauthUseCase.ClientUseCase,
	logger *slog.Logger,
	io IOTuple,
	opts UpdateClientOptions,
) error {
	logger.Info("updating client", slog.String("client_id", opts.ClientID))

	existingClient, err := clientUseCase.Get(ctx, opts.ClientID)
	if err != nil {
		return fmt.Errorf("failed to get existing client: %w", err)
	}

	name := opts.Name
	if name == "" {
		name = existingClient.Name
	}

	scopes := splitList(opts.Scopes)
	if len(scopes) == 0 {
		scopes = existingClient.AllowedScopes
	}

	redirectURIs := splitList(opts.RedirectURIs)
	if len(redirectURIs) == 0 {
		redirectURIs, err = promptForRedirectURIsUpdate(io, existingClient.RedirectURIs)
		if err != nil {
			return fmt.Errorf("failed to get redirect URIs: %w", err)
		}
	}

	input := &oauthDomain.UpdateClientInput{
		Name:          name,
		RedirectURIs:  redirectURIs,
		AllowedScopes: scopes,
		IsActive:      opts.IsActive,
	}

	if err := clientUseCase.Update(ctx, opts.ClientID, input); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	if opts.Format == "json" {
		writeJSON(io.Writer, map[string]any{
			"client_id":      opts.ClientID,
			"name":           name,
			"redirect_uris":  redirectURIs,
			"allowed_scopes": scopes,
			"is_active":      opts.IsActive,
		})
	} else {
		outputUpdateText(io.Writer, opts.ClientID, input)
	}

	logger.Info("client updated successfully",
		slog.String("client_id", opts.ClientID),
		slog.String("name", name),
		slog.Bool("is_active", opts.IsActive),
	)

	return nil
}

// promptForRedirectURIsUpdate shows the registered redirect URIs and either keeps them
// or reads a replacement list.
func promptForRedirectURIsUpdate(io IOTuple, current []string) ([]string, error) {
	reader := bufio.NewReader(io.Reader)

	_, _ = fmt.Fprintln(io.Writer, "\nCurrent redirect URIs:")
	for i, uri := range current {
		_, _ = fmt.Fprintf(io.Writer, "  %d. %s\n", i+1, uri)
	}

	_, _ = fmt.Fprint(io.Writer, "Keep current redirect URIs? (y/n): ")
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "y" || answer == "yes" {
		return current, nil
	}

	return promptForRedirectURIs(IOTuple{Reader: reader, Writer: io.Writer})
}

// outputUpdateText outputs the result in human-readable text format.
func outputUpdateText(writer io.Writer, clientID string, input *oauthDomain.UpdateClientInput) {
	_, _ = fmt.Fprintln(writer, "\nClient updated successfully!")
	_, _ = fmt.Fprintf(writer, "Client ID: %s\n", clientID)
	_, _ = fmt.Fprintf(writer, "Name: %s\n", input.Name)
	_, _ = fmt.Fprintf(writer, "Redirect URIs: %s\n", strings.Join(input.RedirectURIs, ", "))
	_, _ = fmt.Fprintf(writer, "Allowed Scopes: %s\n", strings.Join(input.AllowedScopes, " "))
	_, _ = fmt.Fprintf(writer, "Active: %t\n", input.IsActive)
}
