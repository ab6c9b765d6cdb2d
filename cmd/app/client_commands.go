package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/authserver/cmd/app/commands"
	"github.com/allisson/authserver/internal/app"
	"github.com/allisson/authserver/internal/config"
)

func getClientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-client",
			Usage: "Register a new OAuth client",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable application name",
				},
				&cli.StringSliceFlag{
					Name:    "redirect-uri",
					Aliases: []string{"r"},
					Usage:   "Allowed redirect URI, repeatable (omit for interactive mode)",
				},
				&cli.StringSliceFlag{
					Name:    "scope",
					Aliases: []string{"s"},
					Usage:   "Allowed scopes, space or comma separated (e.g., 'links.read links.write')",
				},
				&cli.BoolFlag{
					Name:    "public",
					Aliases: []string{"p"},
					Value:   false,
					Usage:   "Register a public client without a secret (PKCE required)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				clientUseCase, err := container.ClientUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateClient(
					ctx,
					clientUseCase,
					container.Logger(),
					commands.CreateClientOptions{
						Name:         cmd.String("name"),
						RedirectURIs: cmd.StringSlice("redirect-uri"),
						Scopes:       cmd.StringSlice("scope"),
						Public:       cmd.Bool("public"),
						Format:       cmd.String("format"),
					},
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "update-client",
			Usage: "Update an existing OAuth client's registration",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Client ID (cl_...)",
				},
				&cli.StringFlag{
					Name:    "name",
					Aliases: []string{"n"},
					Usage:   "Human-readable application name (omit to keep current)",
				},
				&cli.StringSliceFlag{
					Name:    "redirect-uri",
					Aliases: []string{"r"},
					Usage:   "Allowed redirect URI, repeatable (omit for interactive mode)",
				},
				&cli.StringSliceFlag{
					Name:    "scope",
					Aliases: []string{"s"},
					Usage:   "Allowed scopes, space or comma separated (omit to keep current)",
				},
				&cli.BoolFlag{
					Name:    "active",
					Aliases: []string{"a"},
					Value:   true,
					Usage:   "Whether the client can obtain codes and tokens",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				clientUseCase, err := container.ClientUseCase()
				if err != nil {
					return err
				}

				return commands.RunUpdateClient(
					ctx,
					clientUseCase,
					container.Logger(),
					commands.DefaultIO(),
					commands.UpdateClientOptions{
						ClientID:     cmd.String("id"),
						Name:         cmd.String("name"),
						RedirectURIs: cmd.StringSlice("redirect-uri"),
						Scopes:       cmd.StringSlice("scope"),
						IsActive:     cmd.Bool("active"),
						Format:       cmd.String("format"),
					},
				)
			},
		},
	}
}
