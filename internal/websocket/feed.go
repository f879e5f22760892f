// Package websocket streams job status transitions to connected clients.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain/entities"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// JobStatusEvent is one frame of the feed.
type JobStatusEvent struct {
	JobID     string             `json:"job_id"`
	Kind      entities.JobKind   `json:"kind"`
	Status    entities.JobStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// client pairs a connection with its buffered outbound queue. The queue
// decouples broadcasters from the socket write.
type client struct {
	conn *websocket.Conn
	send chan JobStatusEvent
}

// Feed broadcasts job status transitions to every connected client. It
// implements the usecase StatusNotifier interface: NotifyJobStatus only
// enqueues, a client that cannot keep up is dropped rather than waited on.
type Feed struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewFeed(logger *zap.Logger) *Feed {
	return &Feed{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handle upgrades the connection and keeps it registered until the client
// goes away. Clients only listen; inbound frames are discarded.
func (f *Feed) Handle(c echo.Context) error {
	conn, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		f.logger.Error("Failed to upgrade websocket connection", zap.Error(err))
		return err
	}

	cl := &client{
		conn: conn,
		send: make(chan JobStatusEvent, sendBufferSize),
	}

	f.mu.Lock()
	f.clients[cl] = struct{}{}
	count := len(f.clients)
	f.mu.Unlock()

	f.logger.Info("Job feed client connected", zap.Int("clients", count))

	go f.writeLoop(cl)
	go f.readLoop(cl)
	return nil
}

// writeLoop drains the client's queue onto the socket. It exits when the
// queue is closed or a write fails.
func (f *Feed) writeLoop(cl *client) {
	defer f.remove(cl)
	for event := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func (f *Feed) readLoop(cl *client) {
	defer f.remove(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// remove unregisters a client and closes its queue. Safe to call more than
// once; the queue is closed only while the client is still registered, under
// the same lock NotifyJobStatus sends under.
func (f *Feed) remove(cl *client) {
	f.mu.Lock()
	_, registered := f.clients[cl]
	if registered {
		delete(f.clients, cl)
		close(cl.send)
	}
	f.mu.Unlock()

	cl.conn.Close()
	if registered {
		f.logger.Info("Job feed client disconnected")
	}
}

// NotifyJobStatus queues one transition for every client. A client whose
// queue is full is dropped on the spot; the broadcast never waits on a
// socket.
func (f *Feed) NotifyJobStatus(jobID string, kind entities.JobKind, status entities.JobStatus) {
	event := JobStatusEvent{
		JobID:     jobID,
		Kind:      kind,
		Status:    status,
		Timestamp: time.Now(),
	}

	f.mu.Lock()
	for cl := range f.clients {
		select {
		case cl.send <- event:
		default:
			delete(f.clients, cl)
			close(cl.send)
			cl.conn.Close()
			f.logger.Warn("Dropping slow job feed client", zap.String("jobID", jobID))
		}
	}
	f.mu.Unlock()
}
