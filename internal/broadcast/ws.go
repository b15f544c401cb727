package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// WSObserver delivers events as JSON text frames over a websocket connection
type WSObserver struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewWSObserver wraps an upgraded connection
func NewWSObserver(conn *websocket.Conn) *WSObserver {
	return &WSObserver{id: uuid.NewString(), conn: conn}
}

func (o *WSObserver) ID() string { return o.id }

// Ready reports whether the connection is still open
func (o *WSObserver) Ready() bool { return !o.closed.Load() }

func (o *WSObserver) Send(event model.ProgressEvent) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	if err := o.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		o.closed.Store(true)
		return err
	}
	if err := o.conn.WriteJSON(event); err != nil {
		o.closed.Store(true)
		return err
	}
	return nil
}

// Close sends a close frame (best effort) and closes the connection
func (o *WSObserver) Close() error {
	if o.closed.Swap(true) {
		return o.conn.Close()
	}
	o.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = o.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	o.writeMu.Unlock()
	return o.conn.Close()
}

// ServeConn acknowledges the connection, registers it and blocks until the
// peer disconnects. Inbound messages are read and discarded.
func (h *Hub) ServeConn(conn *websocket.Conn, runID string) {
	observer := NewWSObserver(conn)
	defer observer.Close()

	ack := model.ProgressEvent{
		Type:      model.EventTypeConnected,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
	}
	if err := observer.Send(ack); err != nil {
		h.log.WithError(err).Debug("failed to acknowledge websocket connection")
		return
	}

	unregister := h.Register(observer, runID)
	defer unregister()

	log := h.log.With("observer", observer.ID())
	log.Debug("observer connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				log.WithError(err).Debug("observer connection closed unexpectedly")
			}
			observer.closed.Store(true)
			log.Debug("observer disconnected")
			return
		}
	}
}
