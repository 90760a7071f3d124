// Package registry maintains the in-memory map of live real-time sessions.
//
// The registry is an explicitly constructed object with a defined lifecycle,
// passed by reference to the components that need it; tests can run multiple
// isolated instances. All operations are safe under concurrent access from
// many connection handlers. Broadcast callers take a snapshot and iterate
// outside the lock, so eviction during a broadcast never invalidates
// iteration.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/realtime/domain"
)

// Registry is a goroutine-safe index of live connections keyed by actor id.
// An actor may hold several simultaneous connections (multi-device); each
// handle belongs to exactly one registry entry.
type Registry struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.Connection
	byActor map[uuid.UUID]map[uuid.UUID]*domain.Connection
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:    make(map[uuid.UUID]*domain.Connection),
		byActor: make(map[uuid.UUID]map[uuid.UUID]*domain.Connection),
	}
}

// Register adds a connection. Registering an already-known handle replaces
// its entry rather than duplicating it.
func (r *Registry) Register(conn *domain.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[conn.ID] = conn

	actorConns, ok := r.byActor[conn.ActorID]
	if !ok {
		actorConns = make(map[uuid.UUID]*domain.Connection)
		r.byActor[conn.ActorID] = actorConns
	}
	actorConns[conn.ID] = conn
}

// Unregister removes a connection by handle id. Unknown ids are a no-op,
// making eviction idempotent. The transport is not closed here; closing is
// the caller's responsibility after the handle has left the registry.
func (r *Registry) Unregister(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byID[connID]
	if !ok {
		return
	}
	delete(r.byID, connID)

	if actorConns, ok := r.byActor[conn.ActorID]; ok {
		delete(actorConns, connID)
		if len(actorConns) == 0 {
			delete(r.byActor, conn.ActorID)
		}
	}
}

// Lookup returns a snapshot of the actor's live connections.
func (r *Registry) Lookup(actorID uuid.UUID) []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actorConns, ok := r.byActor[actorID]
	if !ok {
		return nil
	}

	conns := make([]*domain.Connection, 0, len(actorConns))
	for _, conn := range actorConns {
		conns = append(conns, conn)
	}
	return conns
}

// LookupByRole returns a snapshot of all live connections held by actors
// with the given role.
func (r *Registry) LookupByRole(role domain.Role) []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []*domain.Connection
	for _, conn := range r.byID {
		if conn.Role == role {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Snapshot returns all live connections for iteration outside the lock.
func (r *Registry) Snapshot() []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*domain.Connection, 0, len(r.byID))
	for _, conn := range r.byID {
		conns = append(conns, conn)
	}
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Shutdown unregisters and closes every connection. Used on process
// shutdown so clients observe a clean close instead of a timeout.
func (r *Registry) Shutdown() {
	for _, conn := range r.Snapshot() {
		r.Unregister(conn.ID)
		_ = conn.Close()
	}
}
