package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mkessler/nlhe-blueprint/internal/cfr"
)

// progressHub broadcasts training Progress snapshots to every connected
// websocket client, following internal/api/websocket.go's Hub from the
// coinjoin coordinator example: a registration map guarded by a mutex plus
// a buffered broadcast channel drained by a single writer goroutine. That
// example upgrades connections through a gin.Context; this one upgrades
// directly off net/http, since gin isn't part of this module's stack.
type progressHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	updates  chan cfr.Progress
}

func newProgressHub() *progressHub {
	return &progressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		updates: make(chan cfr.Progress, 64),
	}
}

func (h *progressHub) serve(addr string) {
	go h.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/progress", h.handleSubscribe)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("progress websocket server stopped")
	}
}

func (h *progressHub) run() {
	for p := range h.updates {
		payload, err := json.Marshal(p)
		if err != nil {
			continue
		}
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

func (h *progressHub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("progress websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Read loop purely to notice disconnects; clients never send anything.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *progressHub) broadcast(p cfr.Progress) {
	select {
	case h.updates <- p:
	default:
		log.Warn().Msg("progress broadcast channel full, dropping update")
	}
}
