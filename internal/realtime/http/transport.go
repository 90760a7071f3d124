package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/realtime/domain"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// wsTransport adapts a websocket connection to domain.Transport. Envelopes
// are funneled through a buffered channel into a single writer goroutine,
// which keeps per-connection delivery ordered even when several broadcasts
// race. Control frames bypass the channel; gorilla permits WriteControl
// concurrently with the data writer.
type wsTransport struct {
	conn   *websocket.Conn
	send   chan domain.Envelope
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
}

func newWSTransport(conn *websocket.Conn, logger *slog.Logger) *wsTransport {
	t := &wsTransport{
		conn:   conn,
		send:   make(chan domain.Envelope, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go t.writePump()
	return t
}

func (t *wsTransport) writePump() {
	for {
		select {
		case <-t.done:
			return
		case envelope := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteJSON(envelope); err != nil {
				t.logger.Warn("websocket write failed", slog.Any("error", err))
				_ = t.Close()
				return
			}
		}
	}
}

// Send queues an envelope for the writer goroutine. A saturated buffer
// means the consumer stopped reading; the envelope is dropped with
// ErrSendBufferFull instead of blocking the broadcaster.
func (t *wsTransport) Send(envelope domain.Envelope) error {
	select {
	case <-t.done:
		return apperrors.Wrap(apperrors.ErrUnavailable, "connection closed")
	case t.send <- envelope:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

func (t *wsTransport) Ping(deadline time.Time) error {
	return t.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		err = t.conn.Close()
	})
	return err
}
