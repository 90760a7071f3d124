package app

import (
	"fmt"
	"sync"

	realtimeHTTP "github.com/allisson/marketplace/internal/realtime/http"
	"github.com/allisson/marketplace/internal/realtime/registry"
	"github.com/allisson/marketplace/internal/realtime/service"
)

// realtimeComponents holds the real-time channel's lazily built parts.
type realtimeComponents struct {
	registry      *registry.Registry
	tokenVerifier service.TokenVerifier
	livenessMon   *service.LivenessMonitor
	handler       *realtimeHTTP.Handler
	registryInit  sync.Once
	verifierInit  sync.Once
	livenessInit  sync.Once
	handlerInit   sync.Once
}

// Registry returns the real-time connection registry.
func (c *Container) Registry() *registry.Registry {
	c.realtime.registryInit.Do(func() {
		c.realtime.registry = registry.New()
	})
	return c.realtime.registry
}

// TokenVerifier returns the handshake token verifier.
// The process fails fast when no JWT secret is configured, since every
// authenticated surface depends on it.
func (c *Container) TokenVerifier() (service.TokenVerifier, error) {
	c.realtime.verifierInit.Do(func() {
		if c.config.AuthJWTSecret == "" {
			c.initErrors["tokenVerifier"] = fmt.Errorf("AUTH_JWT_SECRET must be set")
			return
		}
		c.realtime.tokenVerifier = service.NewJWTTokenVerifier([]byte(c.config.AuthJWTSecret))
	})
	if storedErr, exists := c.initErrors["tokenVerifier"]; exists {
		return nil, storedErr
	}
	return c.realtime.tokenVerifier, nil
}

// LivenessMonitor returns the connection liveness monitor.
func (c *Container) LivenessMonitor() (*service.LivenessMonitor, error) {
	c.realtime.livenessInit.Do(func() {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["livenessMonitor"] = err
			return
		}
		c.realtime.livenessMon = service.NewLivenessMonitor(
			c.Registry(), c.config.LivenessInterval, c.Logger(), businessMetrics)
	})
	if storedErr, exists := c.initErrors["livenessMonitor"]; exists {
		return nil, storedErr
	}
	return c.realtime.livenessMon, nil
}

// RealtimeHandler returns the websocket handshake handler.
func (c *Container) RealtimeHandler() (*realtimeHTTP.Handler, error) {
	c.realtime.handlerInit.Do(func() {
		verifier, err := c.TokenVerifier()
		if err != nil {
			c.initErrors["realtimeHandler"] = err
			return
		}
		routerUseCase, err := c.NotificationRouterUseCase()
		if err != nil {
			c.initErrors["realtimeHandler"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["realtimeHandler"] = err
			return
		}
		c.realtime.handler = realtimeHTTP.NewHandler(
			verifier, c.Registry(), routerUseCase, c.Logger(), businessMetrics)
	})
	if storedErr, exists := c.initErrors["realtimeHandler"]; exists {
		return nil, storedErr
	}
	return c.realtime.handler, nil
}
