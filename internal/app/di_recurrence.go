package app

import (
	"fmt"
	"sync"

	orderRepository "github.com/allisson/marketplace/internal/order/repository"
	recurrenceRepository "github.com/allisson/marketplace/internal/recurrence/repository"
	recurrenceUsecase "github.com/allisson/marketplace/internal/recurrence/usecase"
)

// recurrenceComponents holds the recurring-order feature's lazily built parts.
type recurrenceComponents struct {
	definitionRepo recurrenceUsecase.DefinitionRepository
	occurrenceRepo recurrenceUsecase.OccurrenceRepository
	orderRepo      recurrenceUsecase.OrderRepository
	schedulerLock  recurrenceUsecase.SchedulerLock
	materializer   recurrenceUsecase.MaterializerUseCase
	scheduler      recurrenceUsecase.SchedulerUseCase
	reposInit      sync.Once
	materInit      sync.Once
	schedInit      sync.Once
}

// initRecurrenceRepositories creates the driver-specific repositories and lock.
func (c *Container) initRecurrenceRepositories() error {
	db, err := c.DB()
	if err != nil {
		return fmt.Errorf("failed to get database for recurrence repositories: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		c.recurrence.definitionRepo = recurrenceRepository.NewMySQLDefinitionRepository(db)
		c.recurrence.occurrenceRepo = recurrenceRepository.NewMySQLOccurrenceRepository(db)
		c.recurrence.orderRepo = orderRepository.NewMySQLOrderRepository(db)
		c.recurrence.schedulerLock = recurrenceRepository.NewMySQLSchedulerLock(db)
	case "postgres":
		c.recurrence.definitionRepo = recurrenceRepository.NewPostgreSQLDefinitionRepository(db)
		c.recurrence.occurrenceRepo = recurrenceRepository.NewPostgreSQLOccurrenceRepository(db)
		c.recurrence.orderRepo = orderRepository.NewPostgreSQLOrderRepository(db)
		c.recurrence.schedulerLock = recurrenceRepository.NewPostgreSQLSchedulerLock(db)
	default:
		return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return nil
}

// recurrenceRepositories initializes the repositories once and reports any failure.
func (c *Container) recurrenceRepositories() error {
	c.recurrence.reposInit.Do(func() {
		if err := c.initRecurrenceRepositories(); err != nil {
			c.initErrors["recurrenceRepos"] = err
		}
	})
	if storedErr, exists := c.initErrors["recurrenceRepos"]; exists {
		return storedErr
	}
	return nil
}

// Materializer returns the recurring order materializer use case.
func (c *Container) Materializer() (recurrenceUsecase.MaterializerUseCase, error) {
	c.recurrence.materInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["materializer"] = err
			return
		}
		if err := c.recurrenceRepositories(); err != nil {
			c.initErrors["materializer"] = err
			return
		}
		routerUseCase, err := c.NotificationRouterUseCase()
		if err != nil {
			c.initErrors["materializer"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["materializer"] = err
			return
		}

		materializer := recurrenceUsecase.NewRecurringOrderMaterializer(
			txManager,
			c.recurrence.definitionRepo,
			c.recurrence.occurrenceRepo,
			c.recurrence.orderRepo,
			routerUseCase,
			c.Logger(),
		)
		c.recurrence.materializer = recurrenceUsecase.NewMaterializerUseCaseWithMetrics(materializer, businessMetrics)
	})
	if storedErr, exists := c.initErrors["materializer"]; exists {
		return nil, storedErr
	}
	return c.recurrence.materializer, nil
}

// Scheduler returns the recurring order scheduler loop.
func (c *Container) Scheduler() (recurrenceUsecase.SchedulerUseCase, error) {
	c.recurrence.schedInit.Do(func() {
		materializer, err := c.Materializer()
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}
		if err := c.recurrenceRepositories(); err != nil {
			c.initErrors["scheduler"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}

		loop, err := recurrenceUsecase.NewSchedulerLoop(
			recurrenceUsecase.SchedulerConfig{
				Interval:    c.config.SchedulerInterval,
				Timezone:    c.config.SchedulerTimezone,
				BatchSize:   c.config.SchedulerBatchSize,
				Concurrency: c.config.SchedulerConcurrency,
			},
			c.recurrence.definitionRepo,
			materializer,
			c.recurrence.schedulerLock,
			c.Logger(),
		)
		if err != nil {
			c.initErrors["scheduler"] = fmt.Errorf("failed to create scheduler: %w", err)
			return
		}
		c.recurrence.scheduler = recurrenceUsecase.NewSchedulerUseCaseWithMetrics(loop, businessMetrics)
	})
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.recurrence.scheduler, nil
}
