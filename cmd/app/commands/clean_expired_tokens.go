package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
)

// RunCleanExpiredTokens deletes authorization codes and tokens that expired more than
// the specified number of days ago. Supports dry-run mode to preview the deletion count
// and both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredTokens(
	ctx context.Context,
	tokenUseCase oauthUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning expired tokens",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := tokenUseCase.CleanupExpired(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		})
	} else if dryRun {
		_, _ = fmt.Fprintf(
			writer,
			"Dry-run mode: Would delete %d expired code(s) and token(s) older than %d day(s)\n",
			count,
			days,
		)
	} else {
		_, _ = fmt.Fprintf(
			writer,
			"Successfully deleted %d expired code(s) and token(s) older than %d day(s)\n",
			count,
			days,
		)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}
