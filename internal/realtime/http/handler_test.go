package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/metrics"
	"github.com/allisson/marketplace/internal/realtime/domain"
	"github.com/allisson/marketplace/internal/realtime/registry"
	"github.com/allisson/marketplace/internal/realtime/service"
)

type stubVerifier struct {
	claims *service.Claims
	err    error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*service.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type stubNotifications struct {
	mu         sync.Mutex
	unread     int64
	unreadErr  error
	markedRead []uuid.UUID
}

func (s *stubNotifications) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	return s.unread, s.unreadErr
}

func (s *stubNotifications) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markedRead = append(s.markedRead, notificationID)
	return nil
}

func (s *stubNotifications) marked() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.markedRead...)
}

type wsFixture struct {
	server        *httptest.Server
	registry      *registry.Registry
	notifications *stubNotifications
	actorID       uuid.UUID
}

func newWSFixture(t *testing.T, verifierErr error) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	actorID := uuid.Must(uuid.NewV7())
	verifier := &stubVerifier{claims: &service.Claims{ActorID: actorID, Role: domain.RoleCustomer}, err: verifierErr}
	notifications := &stubNotifications{unread: 3}
	reg := registry.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewHandler(verifier, reg, notifications, logger, metrics.NewNoOpBusinessMetrics())

	router := gin.New()
	router.GET("/ws", handler.Serve)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{server: server, registry: reg, notifications: notifications, actorID: actorID}
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=valid"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) domain.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope domain.Envelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func waitFor(t *testing.T, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestServe_RejectsMissingToken(t *testing.T) {
	fixture := newWSFixture(t, nil)

	resp, err := http.Get(fixture.server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, fixture.registry.Len())
}

func TestServe_RejectsInvalidToken(t *testing.T) {
	fixture := newWSFixture(t, apperrors.Wrap(apperrors.ErrUnauthorized, "bad credential"))

	resp, err := http.Get(fixture.server.URL + "/ws?token=bad")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, fixture.registry.Len())
}

func TestServe_ConnectSendsUnreadSnapshot(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)

	envelope := readEnvelope(t, conn)
	assert.Equal(t, domain.EnvelopeUnreadNotifications, envelope.Type)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, data["count"])

	waitFor(t, func() bool { return fixture.registry.Len() == 1 }, "connection never registered")
	assert.Len(t, fixture.registry.Lookup(fixture.actorID), 1)
}

func TestServe_PingFrameAnsweredWithPong(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)
	readEnvelope(t, conn) // unread snapshot

	require.NoError(t, conn.WriteJSON(domain.Frame{Type: domain.FramePing}))

	envelope := readEnvelope(t, conn)
	assert.Equal(t, domain.EnvelopePong, envelope.Type)
}

func TestServe_MarkNotificationReadFrame(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)
	readEnvelope(t, conn)

	notificationID := uuid.Must(uuid.NewV7())
	require.NoError(t, conn.WriteJSON(domain.Frame{
		Type:           domain.FrameMarkNotificationRead,
		NotificationID: notificationID,
	}))

	waitFor(t, func() bool { return len(fixture.notifications.marked()) == 1 }, "mark read never reached the usecase")
	assert.Equal(t, notificationID, fixture.notifications.marked()[0])
}

func TestServe_SubscribeOrdersNarrowsDelivery(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)
	readEnvelope(t, conn)

	wantedOrder := uuid.Must(uuid.NewV7())
	otherOrder := uuid.Must(uuid.NewV7())
	require.NoError(t, conn.WriteJSON(domain.Frame{
		Type:     domain.FrameSubscribeOrders,
		OrderIDs: []uuid.UUID{wantedOrder},
	}))

	waitFor(t, func() bool {
		handles := fixture.registry.Lookup(fixture.actorID)
		return len(handles) == 1 && !handles[0].WantsOrder(otherOrder)
	}, "subscription filter never applied")

	handle := fixture.registry.Lookup(fixture.actorID)[0]
	assert.True(t, handle.WantsOrder(wantedOrder))
	assert.False(t, handle.WantsOrder(otherOrder))
}

func TestServe_UnknownFrameKeepsSessionOpen(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)
	readEnvelope(t, conn)

	require.NoError(t, conn.WriteJSON(domain.Frame{Type: "make_coffee"}))

	// The session must still answer application pings after a bad frame.
	require.NoError(t, conn.WriteJSON(domain.Frame{Type: domain.FramePing}))
	envelope := readEnvelope(t, conn)
	assert.Equal(t, domain.EnvelopePong, envelope.Type)
}

func TestServe_DisconnectRemovesFromRegistry(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)
	readEnvelope(t, conn)

	waitFor(t, func() bool { return fixture.registry.Len() == 1 }, "connection never registered")

	require.NoError(t, conn.Close())

	waitFor(t, func() bool { return fixture.registry.Len() == 0 }, "connection never unregistered after close")
}

func TestWSTransport_SendAfterCloseFails(t *testing.T) {
	fixture := newWSFixture(t, nil)
	conn := fixture.dial(t)
	readEnvelope(t, conn)

	waitFor(t, func() bool { return fixture.registry.Len() == 1 }, "connection never registered")
	handle := fixture.registry.Lookup(fixture.actorID)[0]

	require.NoError(t, handle.Close())

	err := handle.Send(domain.NewEnvelope(domain.EnvelopeNewOrder, nil))
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}
