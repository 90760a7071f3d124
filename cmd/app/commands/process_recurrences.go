package commands

import (
	"context"
	"fmt"
	"log/slog"

	recurrenceUsecase "github.com/allisson/marketplace/internal/recurrence/usecase"
)

// RunProcessRecurrences runs a single scheduler pass and exits. Intended for
// cron-style deployments where the long-running scheduler loop is not wanted.
func RunProcessRecurrences(
	ctx context.Context,
	scheduler recurrenceUsecase.SchedulerUseCase,
	logger *slog.Logger,
) error {
	logger.Info("processing due recurrence definitions")

	if err := scheduler.ProcessDueDefinitions(ctx); err != nil {
		return fmt.Errorf("failed to process due definitions: %w", err)
	}

	logger.Info("recurrence processing completed")
	return nil
}
