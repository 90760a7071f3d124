package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// SchedulerConfig holds scheduler loop configuration.
type SchedulerConfig struct {
	Interval    time.Duration
	Timezone    string
	BatchSize   int
	Concurrency int
}

// SchedulerLoop periodically scans for due recurrence definitions and hands
// them to the materializer. A database lock keeps at most one instance
// scanning at a time, which also guarantees a definition is never processed
// concurrently with itself.
type SchedulerLoop struct {
	config         SchedulerConfig
	definitionRepo DefinitionRepository
	materializer   MaterializerUseCase
	lock           SchedulerLock
	location       *time.Location
	logger         *slog.Logger
}

// NewSchedulerLoop creates a scheduler loop. The configured timezone must be
// a valid IANA name; an unknown zone is a configuration error.
func NewSchedulerLoop(
	config SchedulerConfig,
	definitionRepo DefinitionRepository,
	materializer MaterializerUseCase,
	lock SchedulerLock,
	logger *slog.Logger,
) (*SchedulerLoop, error) {
	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load scheduler timezone")
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &SchedulerLoop{
		config:         config,
		definitionRepo: definitionRepo,
		materializer:   materializer,
		lock:           lock,
		location:       location,
		logger:         logger,
	}, nil
}

// Start runs the scheduler loop until the context is canceled.
func (s *SchedulerLoop) Start(ctx context.Context) error {
	s.logger.Info("starting recurrence scheduler",
		slog.Duration("interval", s.config.Interval),
		slog.Int("batch_size", s.config.BatchSize),
		slog.String("timezone", s.config.Timezone),
	)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping recurrence scheduler")
			return ctx.Err()
		case <-ticker.C:
			if err := s.ProcessDueDefinitions(ctx); err != nil {
				s.logger.Error("failed to process due definitions", slog.Any("error", err))
			}
		}
	}
}

// ProcessDueDefinitions runs one scheduler pass: acquire the scheduler lock,
// load the due batch, and materialize each definition. A definition that
// fails is logged and skipped; one bad definition never stalls the batch.
// When another instance holds the lock the pass is skipped entirely.
func (s *SchedulerLoop) ProcessDueDefinitions(ctx context.Context) error {
	acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to acquire scheduler lock")
	}
	if !acquired {
		s.logger.Debug("scheduler lock held by another instance, skipping pass")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logger.Warn("failed to release scheduler lock", slog.Any("error", err))
		}
	}()

	now := time.Now().In(s.location)

	definitions, err := s.definitionRepo.FindDue(ctx, now, s.config.BatchSize)
	if err != nil {
		return apperrors.Wrap(err, "failed to load due definitions")
	}
	if len(definitions) == 0 {
		return nil
	}

	s.logger.Info("processing due definitions", slog.Int("count", len(definitions)))

	g := &errgroup.Group{}
	g.SetLimit(s.config.Concurrency)
	for _, definition := range definitions {
		g.Go(func() error {
			if _, err := s.materializer.ProcessDue(ctx, definition, now); err != nil {
				s.logger.Error("failed to materialize definition",
					slog.String("definition_id", definition.ID.String()),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}
	return g.Wait()
}
