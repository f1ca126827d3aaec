package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/btcsuite/websocket"
)

// notifyWriteTimeout bounds how long Broadcast waits on a single slow
// client before giving up on that write.
const notifyWriteTimeout = 5 * time.Second

// Notifier broadcasts each secret_msg retired by a split to every
// connected websocket client. It is an observability feed, not a
// protocol-level guarantee: a client that connects after a split simply
// misses that notification, the same way a log tailer would.
type Notifier struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewNotifier returns an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers it for broadcasts until
// the client disconnects.
func (n *Notifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("notify: upgrade failed: %v", err)
		return
	}

	n.mu.Lock()
	n.conns[conn] = struct{}{}
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		delete(n.conns, conn)
		n.mu.Unlock()
		conn.Close()
	}()

	// The feed is write-only from the server's side; block here reading
	// (and discarding) so the handler notices a client disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends secretMsg to every connected client, closing and
// unregistering any client whose write fails or does not complete within
// notifyWriteTimeout.
func (n *Notifier) Broadcast(secretMsg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for conn := range n.conns {
		conn.SetWriteDeadline(time.Now().Add(notifyWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(secretMsg)); err != nil {
			log.Debugf("notify: dropping client after write error: %v", err)
			go conn.Close()
			delete(n.conns, conn)
		}
	}
}
