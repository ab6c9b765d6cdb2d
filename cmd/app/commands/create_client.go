package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
)

// CreateClientOptions carries the create-client flag values.
type CreateClientOptions struct {
	Name         string
	RedirectURIs []string
	Scopes       []string
	Public       bool
	Format       string
}

// RunCreateClient registers a new OAuth client. Redirect URIs are prompted for when
// none are passed as flags. Confidential clients get a secret that is printed once.
//
// Requirements: Database must be migrated and accessible.
func RunCreateClient(
	ctx context.Context,
	clientUseCase oauthUseCase.ClientUseCase,
	logger *slog.Logger,
	opts CreateClientOptions,
	io IOTuple,
) error {
	logger.Info("creating new client", slog.String("name", opts.Name), slog.Bool("public", opts.Public))

	redirectURIs := splitList(opts.RedirectURIs)
	if len(redirectURIs) == 0 {
		var err error
		redirectURIs, err = promptForRedirectURIs(io)
		if err != nil {
			return fmt.Errorf("failed to get redirect URIs: %w", err)
		}
	}

	input := &oauthDomain.CreateClientInput{
		Name:          opts.Name,
		RedirectURIs:  redirectURIs,
		AllowedScopes: splitList(opts.Scopes),
		Public:        opts.Public,
	}

	output, err := clientUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if opts.Format == "json" {
		writeJSON(io.Writer, map[string]any{
			"client_id":     output.ID,
			"client_secret": output.PlainSecret,
			"public":        opts.Public,
			"redirect_uris": redirectURIs,
		})
	} else {
		outputCreateText(io.Writer, output, redirectURIs)
	}

	logger.Info("client created successfully",
		slog.String("client_id", output.ID),
		slog.String("name", opts.Name),
	)

	return nil
}

// outputCreateText outputs the result in human-readable text format.
func outputCreateText(writer io.Writer, output *oauthDomain.CreateClientOutput, redirectURIs []string) {
	_, _ = fmt.Fprintln(writer, "\nClient created successfully!")
	_, _ = fmt.Fprintf(writer, "Client ID: %s\n", output.ID)
	_, _ = fmt.Fprintf(writer, "Redirect URIs: %s\n", strings.Join(redirectURIs, ", "))
	if output.PlainSecret == "" {
		_, _ = fmt.Fprintln(writer, "Public client: no secret issued, PKCE is required.")
		return
	}
	_, _ = fmt.Fprintf(writer, "Client Secret: %s\n", output.PlainSecret)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The secret is shown only once. Store it securely.")
}
