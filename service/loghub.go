package service

import (
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const logBufferLines = 200

// LogHub tees the process log into a ring buffer and fans lines out to
// websocket subscribers, so operators can tail the pipeline remotely.
type LogHub struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	buffer []string
	subs   map[chan string]struct{}
}

func NewLogHub() *LogHub {
	return &LogHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
		subs: make(map[chan string]struct{}),
	}
}

// Attach installs the hub as a tee on the standard logger output.
func (h *LogHub) Attach() {
	log.SetOutput(io.MultiWriter(os.Stderr, h))
}

// Write implements io.Writer for log.SetOutput. Each write is one log
// line (the standard logger writes line-at-a-time).
func (h *LogHub) Write(p []byte) (int, error) {
	line := string(p)

	h.mu.Lock()
	h.buffer = append(h.buffer, line)
	if len(h.buffer) > logBufferLines {
		h.buffer = h.buffer[len(h.buffer)-logBufferLines:]
	}
	for ch := range h.subs {
		select {
		case ch <- line:
		default:
			// Slow subscriber drops lines rather than blocking logging.
		}
	}
	h.mu.Unlock()

	return len(p), nil
}

func (h *LogHub) subscribe() (chan string, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan string, 64)
	h.subs[ch] = struct{}{}
	backlog := make([]string, len(h.buffer))
	copy(backlog, h.buffer)
	return ch, backlog
}

func (h *LogHub) unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleStream upgrades the request and streams the backlog plus live
// log lines until the client disconnects.
func (h *LogHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4 * 1024)

	ch, backlog := h.subscribe()
	defer h.unsubscribe(ch)

	for _, line := range backlog {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket read error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case line := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}
}
