package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/allisson/marketplace/internal/realtime/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// nopTransport is a transport that accepts everything.
type nopTransport struct{}

func (nopTransport) Send(envelope domain.Envelope) error { return nil }
func (nopTransport) Ping(deadline time.Time) error       { return nil }
func (nopTransport) Close() error                        { return nil }

func newConn(actorID uuid.UUID, role domain.Role) *domain.Connection {
	return domain.NewConnection(actorID, role, nopTransport{})
}

func TestRegisterAndLookup(t *testing.T) {
	reg := New()
	actor := uuid.Must(uuid.NewV7())

	h1 := newConn(actor, domain.RoleCustomer)
	h2 := newConn(actor, domain.RoleCustomer)

	reg.Register(h1)
	reg.Register(h2)

	conns := reg.Lookup(actor)
	assert.Len(t, conns, 2)
	assert.ElementsMatch(t, []*domain.Connection{h1, h2}, conns)

	reg.Unregister(h1.ID)

	conns = reg.Lookup(actor)
	assert.Len(t, conns, 1)
	assert.Equal(t, h2, conns[0])
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := New()
	conn := newConn(uuid.Must(uuid.NewV7()), domain.RoleMerchant)

	reg.Register(conn)
	reg.Register(conn)

	assert.Equal(t, 1, reg.Len())
}

func TestUnregisterUnknownIsNoOp(t *testing.T) {
	reg := New()

	reg.Unregister(uuid.Must(uuid.NewV7()))

	assert.Equal(t, 0, reg.Len())
}

func TestUnregisterRemovesEmptyActorEntry(t *testing.T) {
	reg := New()
	actor := uuid.Must(uuid.NewV7())
	conn := newConn(actor, domain.RoleCustomer)

	reg.Register(conn)
	reg.Unregister(conn.ID)

	assert.Nil(t, reg.Lookup(actor))
	assert.Equal(t, 0, reg.Len())
}

func TestLookupByRole(t *testing.T) {
	reg := New()

	admin1 := newConn(uuid.Must(uuid.NewV7()), domain.RoleAdmin)
	admin2 := newConn(uuid.Must(uuid.NewV7()), domain.RoleAdmin)
	customer := newConn(uuid.Must(uuid.NewV7()), domain.RoleCustomer)

	reg.Register(admin1)
	reg.Register(admin2)
	reg.Register(customer)

	admins := reg.LookupByRole(domain.RoleAdmin)
	assert.Len(t, admins, 2)
	assert.ElementsMatch(t, []*domain.Connection{admin1, admin2}, admins)

	assert.Empty(t, reg.LookupByRole(domain.RoleMerchant))
}

func TestSnapshotIsStableDuringMutation(t *testing.T) {
	reg := New()
	for i := 0; i < 10; i++ {
		reg.Register(newConn(uuid.Must(uuid.NewV7()), domain.RoleCustomer))
	}

	snapshot := reg.Snapshot()
	assert.Len(t, snapshot, 10)

	// Mutating the registry does not invalidate an in-progress iteration.
	for _, conn := range snapshot {
		reg.Unregister(conn.ID)
	}
	assert.Len(t, snapshot, 10)
	assert.Equal(t, 0, reg.Len())
}

func TestConcurrentAccess(t *testing.T) {
	reg := New()
	actor := uuid.Must(uuid.NewV7())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := newConn(actor, domain.RoleCustomer)
			reg.Register(conn)
			reg.Lookup(actor)
			reg.LookupByRole(domain.RoleCustomer)
			reg.Unregister(conn.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Len())
}

func TestShutdownClosesEverything(t *testing.T) {
	reg := New()
	for i := 0; i < 5; i++ {
		reg.Register(newConn(uuid.Must(uuid.NewV7()), domain.RoleCustomer))
	}

	reg.Shutdown()

	assert.Equal(t, 0, reg.Len())
}
