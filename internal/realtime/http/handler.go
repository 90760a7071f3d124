// Package http provides the websocket handshake endpoint and the per-client
// read loop for the real-time channel.
package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/httputil"
	"github.com/allisson/marketplace/internal/metrics"
	"github.com/allisson/marketplace/internal/realtime/domain"
	"github.com/allisson/marketplace/internal/realtime/registry"
	"github.com/allisson/marketplace/internal/realtime/service"
)

// NotificationReader is the slice of the notification feature the websocket
// channel needs: the unread snapshot pushed on connect and the inline
// read-acknowledgement frame.
type NotificationReader interface {
	UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error
}

type unreadPayload struct {
	Count int64 `json:"count"`
}

// Handler upgrades authenticated requests to websocket sessions and runs
// each session's read loop until the client disconnects.
type Handler struct {
	upgrader      websocket.Upgrader
	verifier      service.TokenVerifier
	registry      *registry.Registry
	notifications NotificationReader
	logger        *slog.Logger
	metrics       metrics.BusinessMetrics
}

// NewHandler creates a websocket handler.
func NewHandler(
	verifier service.TokenVerifier,
	reg *registry.Registry,
	notifications NotificationReader,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		verifier:      verifier,
		registry:      reg,
		notifications: notifications,
		logger:        logger,
		metrics:       businessMetrics,
	}
}

// Serve handles GET /ws. The bearer credential is verified before the
// upgrade, so unauthenticated clients get a plain HTTP 401 and never
// consume a websocket session.
func (h *Handler) Serve(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "missing handshake credential"), h.logger)
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	ctx := c.Request.Context()

	transport := newWSTransport(wsConn, h.logger)
	conn := domain.NewConnection(claims.ActorID, claims.Role, transport)

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetPongHandler(func(string) error {
		conn.Touch()
		return nil
	})

	h.registry.Register(conn)
	h.metrics.RecordOperation(ctx, "realtime", "connect", "success")
	h.logger.Info("websocket connected",
		slog.String("connection_id", conn.ID.String()),
		slog.String("actor_id", conn.ActorID.String()),
		slog.String("role", string(conn.Role)),
	)

	h.sendUnreadSnapshot(ctx, conn)
	h.readLoop(ctx, conn, wsConn)

	h.registry.Unregister(conn.ID)
	_ = conn.Close()
	h.metrics.RecordOperation(ctx, "realtime", "disconnect", "success")
	h.logger.Info("websocket disconnected", slog.String("connection_id", conn.ID.String()))
}

// sendUnreadSnapshot pushes the current unread notification count so the
// client can render its badge without an extra round trip. A counter
// failure is logged and skipped; it never aborts the session.
func (h *Handler) sendUnreadSnapshot(ctx context.Context, conn *domain.Connection) {
	count, err := h.notifications.UnreadCount(ctx, conn.ActorID)
	if err != nil {
		h.logger.Warn("unread count lookup failed",
			slog.String("actor_id", conn.ActorID.String()),
			slog.Any("error", err),
		)
		return
	}

	envelope := domain.NewEnvelope(domain.EnvelopeUnreadNotifications, unreadPayload{Count: count})
	if err := conn.Send(envelope); err != nil {
		h.logger.Warn("unread snapshot delivery failed", slog.Any("error", err))
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *domain.Connection, wsConn *websocket.Conn) {
	for {
		var frame domain.Frame
		if err := wsConn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
				// Malformed frames are discarded; the session survives.
				h.logger.Warn("discarding malformed frame", slog.Any("error", err))
				conn.Touch()
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}

		// Any well-formed inbound frame counts as liveness.
		conn.Touch()

		switch frame.Type {
		case domain.FramePing:
			if err := conn.Send(domain.NewEnvelope(domain.EnvelopePong, nil)); err != nil {
				h.logger.Warn("pong delivery failed", slog.Any("error", err))
			}

		case domain.FrameMarkNotificationRead:
			if frame.NotificationID == uuid.Nil {
				h.logger.Warn("mark_notification_read frame without notification_id")
				continue
			}
			if err := h.notifications.MarkRead(ctx, conn.ActorID, frame.NotificationID); err != nil {
				h.logger.Warn("mark notification read failed",
					slog.String("notification_id", frame.NotificationID.String()),
					slog.Any("error", err),
				)
			}

		case domain.FrameSubscribeOrders:
			conn.SubscribeOrders(frame.OrderIDs)

		default:
			h.logger.Warn("ignoring unknown frame type", slog.String("type", frame.Type))
		}
	}
}

// bearerToken extracts the handshake credential. Browsers cannot set
// headers on websocket requests, so the query parameter is checked first
// with the Authorization header as fallback for non-browser clients.
func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
