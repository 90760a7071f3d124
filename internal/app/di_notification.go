package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/marketplace/internal/notification/gateway"
	notificationHTTP "github.com/allisson/marketplace/internal/notification/http"
	notificationRepository "github.com/allisson/marketplace/internal/notification/repository"
	notificationUsecase "github.com/allisson/marketplace/internal/notification/usecase"
)

// notificationComponents holds the notification feature's lazily built parts.
type notificationComponents struct {
	notificationRepo notificationUsecase.NotificationRepository
	deliveryRepo     notificationUsecase.DeliveryRepository
	subscriptionRepo notificationUsecase.SubscriptionRepository
	redisClient      *redis.Client
	unreadCache      notificationUsecase.UnreadCache
	gateway          notificationUsecase.Gateway
	gatewayCleanup   func()
	routerUseCase    notificationUsecase.RouterUseCase
	retryUseCase     notificationUsecase.RetryUseCase
	handler          *notificationHTTP.NotificationHandler
	reposInit        sync.Once
	cacheInit        sync.Once
	gatewayInit      sync.Once
	routerInit       sync.Once
	retryInit        sync.Once
	handlerInit      sync.Once
}

// initNotificationRepositories creates the driver-specific repositories.
func (c *Container) initNotificationRepositories() error {
	db, err := c.DB()
	if err != nil {
		return fmt.Errorf("failed to get database for notification repositories: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		c.notification.notificationRepo = notificationRepository.NewMySQLNotificationRepository(db)
		c.notification.deliveryRepo = notificationRepository.NewMySQLDeliveryRepository(db)
		c.notification.subscriptionRepo = notificationRepository.NewMySQLSubscriptionRepository(db)
	case "postgres":
		c.notification.notificationRepo = notificationRepository.NewPostgreSQLNotificationRepository(db)
		c.notification.deliveryRepo = notificationRepository.NewPostgreSQLDeliveryRepository(db)
		c.notification.subscriptionRepo = notificationRepository.NewPostgreSQLSubscriptionRepository(db)
	default:
		return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return nil
}

// notificationRepositories initializes the repositories once and reports any failure.
func (c *Container) notificationRepositories() error {
	c.notification.reposInit.Do(func() {
		if err := c.initNotificationRepositories(); err != nil {
			c.initErrors["notificationRepos"] = err
		}
	})
	if storedErr, exists := c.initErrors["notificationRepos"]; exists {
		return storedErr
	}
	return nil
}

// UnreadCache returns the Redis-backed unread counter cache.
// Returns nil when Redis is disabled; unread counts then always come from
// the database.
func (c *Container) UnreadCache() (notificationUsecase.UnreadCache, error) {
	c.notification.cacheInit.Do(func() {
		if !c.config.RedisEnabled {
			return
		}
		opts, err := redis.ParseURL(c.config.RedisURL)
		if err != nil {
			c.initErrors["unreadCache"] = fmt.Errorf("failed to parse redis url: %w", err)
			return
		}
		c.notification.redisClient = redis.NewClient(opts)
		c.notification.unreadCache = notificationRepository.NewRedisUnreadRepository(c.notification.redisClient)
	})
	if storedErr, exists := c.initErrors["unreadCache"]; exists {
		return nil, storedErr
	}
	return c.notification.unreadCache, nil
}

// DeliveryGateway returns the pubsub-backed out-of-band delivery gateway.
func (c *Container) DeliveryGateway() (notificationUsecase.Gateway, error) {
	c.notification.gatewayInit.Do(func() {
		pubsubGateway, cleanup, err := gateway.NewPubSubGateway(
			context.Background(), c.config.PushTopicURL, c.config.EmailTopicURL, c.Logger())
		if err != nil {
			c.initErrors["deliveryGateway"] = fmt.Errorf("failed to create delivery gateway: %w", err)
			return
		}
		c.notification.gateway = pubsubGateway
		c.notification.gatewayCleanup = cleanup
	})
	if storedErr, exists := c.initErrors["deliveryGateway"]; exists {
		return nil, storedErr
	}
	return c.notification.gateway, nil
}

// NotificationRouterUseCase returns the event routing use case.
func (c *Container) NotificationRouterUseCase() (notificationUsecase.RouterUseCase, error) {
	c.notification.routerInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["notificationRouter"] = err
			return
		}
		if err := c.notificationRepositories(); err != nil {
			c.initErrors["notificationRouter"] = err
			return
		}
		cache, err := c.UnreadCache()
		if err != nil {
			c.initErrors["notificationRouter"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["notificationRouter"] = err
			return
		}

		router := notificationUsecase.NewNotificationRouter(
			txManager,
			c.notification.notificationRepo,
			c.notification.deliveryRepo,
			c.notification.subscriptionRepo,
			cache,
			c.Registry(),
			c.Logger(),
		)
		c.notification.routerUseCase = notificationUsecase.NewRouterUseCaseWithMetrics(router, businessMetrics)
	})
	if storedErr, exists := c.initErrors["notificationRouter"]; exists {
		return nil, storedErr
	}
	return c.notification.routerUseCase, nil
}

// DeliveryRetryUseCase returns the delivery retry manager.
func (c *Container) DeliveryRetryUseCase() (notificationUsecase.RetryUseCase, error) {
	c.notification.retryInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["deliveryRetry"] = err
			return
		}
		if err := c.notificationRepositories(); err != nil {
			c.initErrors["deliveryRetry"] = err
			return
		}
		deliveryGateway, err := c.DeliveryGateway()
		if err != nil {
			c.initErrors["deliveryRetry"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["deliveryRetry"] = err
			return
		}

		manager := notificationUsecase.NewDeliveryRetryManager(
			notificationUsecase.RetryConfig{
				Interval:  c.config.RetryInterval,
				BatchSize: c.config.RetryBatchSize,
			},
			txManager,
			c.notification.deliveryRepo,
			c.notification.subscriptionRepo,
			deliveryGateway,
			c.Logger(),
		)
		c.notification.retryUseCase = notificationUsecase.NewRetryUseCaseWithMetrics(manager, businessMetrics)
	})
	if storedErr, exists := c.initErrors["deliveryRetry"]; exists {
		return nil, storedErr
	}
	return c.notification.retryUseCase, nil
}

// NotificationHandler returns the notification HTTP handler.
func (c *Container) NotificationHandler() (*notificationHTTP.NotificationHandler, error) {
	c.notification.handlerInit.Do(func() {
		routerUseCase, err := c.NotificationRouterUseCase()
		if err != nil {
			c.initErrors["notificationHandler"] = err
			return
		}
		c.notification.handler = notificationHTTP.NewNotificationHandler(routerUseCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["notificationHandler"]; exists {
		return nil, storedErr
	}
	return c.notification.handler, nil
}
