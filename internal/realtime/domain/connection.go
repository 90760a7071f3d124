package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/errors"
)

// ErrSendBufferFull indicates the connection's outbound buffer is saturated
// (slow or stalled consumer). The delivery is not retried on this handle.
var ErrSendBufferFull = errors.Wrap(errors.ErrUnavailable, "connection send buffer full")

// Transport is one live bidirectional session with a client. Send must
// preserve the order of calls made from a single goroutine; Ping may be
// called concurrently with Send.
type Transport interface {
	Send(envelope Envelope) error
	Ping(deadline time.Time) error
	Close() error
}

// Connection represents one registered real-time session: an actor, its
// role, an optional order-id subscription filter, and the transport handle.
// LastSeen is updated by every inbound liveness frame and read by the
// liveness monitor, so access is guarded.
type Connection struct {
	ID      uuid.UUID
	ActorID uuid.UUID
	Role    Role

	transport Transport

	mu               sync.RWMutex
	lastSeenAt       time.Time
	subscribedOrders map[uuid.UUID]struct{}
}

// NewConnection wraps a transport handle for the given actor.
func NewConnection(actorID uuid.UUID, role Role, transport Transport) *Connection {
	return &Connection{
		ID:         uuid.Must(uuid.NewV7()),
		ActorID:    actorID,
		Role:       role,
		transport:  transport,
		lastSeenAt: time.Now(),
	}
}

// Touch records inbound liveness (pong or any client frame).
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastSeenAt = time.Now()
	c.mu.Unlock()
}

// LastSeenAt returns the instant of the last inbound liveness signal.
func (c *Connection) LastSeenAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeenAt
}

// SubscribeOrders narrows the connection to the given order ids. Passing an
// empty slice clears the filter (all order events are delivered again).
func (c *Connection) SubscribeOrders(orderIDs []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(orderIDs) == 0 {
		c.subscribedOrders = nil
		return
	}

	set := make(map[uuid.UUID]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		set[id] = struct{}{}
	}
	c.subscribedOrders = set
}

// WantsOrder reports whether the connection should receive events for the
// given order. Without a subscription filter every order is wanted.
func (c *Connection) WantsOrder(orderID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.subscribedOrders == nil {
		return true
	}
	_, ok := c.subscribedOrders[orderID]
	return ok
}

// Send delivers an envelope over the transport.
func (c *Connection) Send(envelope Envelope) error {
	return c.transport.Send(envelope)
}

// Ping sends a liveness probe over the transport.
func (c *Connection) Ping(deadline time.Time) error {
	return c.transport.Ping(deadline)
}

// Close closes the underlying transport.
func (c *Connection) Close() error {
	return c.transport.Close()
}
