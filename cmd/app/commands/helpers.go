// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/authserver/internal/app"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// splitList splits flag values on commas and whitespace so that both
// --scope "links.read links.write" and --scope links.read,links.write work.
func splitList(values []string) []string {
	var items []string
	for _, value := range values {
		items = append(items, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	return items
}

// promptForRedirectURIs reads one redirect URI per line until an empty line.
func promptForRedirectURIs(io IOTuple) ([]string, error) {
	reader := bufio.NewReader(io.Reader)

	_, _ = fmt.Fprintln(io.Writer, "\nEnter redirect URIs, one per line (empty line to finish)")

	var uris []string
	for {
		_, _ = fmt.Fprintf(io.Writer, "Redirect URI #%d: ", len(uris)+1)
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			uris = append(uris, line)
		}
		if err != nil || line == "" {
			break
		}
	}

	if len(uris) == 0 {
		return nil, fmt.Errorf("at least one redirect URI is required")
	}
	return uris, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(writer io.Writer, v any) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
