package handler

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	closeWait      = 2 * time.Second
)

// wsClient is one open live feed.
type wsClient struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// WebSocketHandler streams live inventory views over WebSocket connections.
type WebSocketHandler struct {
	inventory Inventory
	upgrader  websocket.Upgrader
	logger    *zap.Logger
	mu        sync.Mutex
	clients   map[*websocket.Conn]*wsClient
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(inv Inventory, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		inventory: inv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/items", h.HandleItems).Methods(http.MethodGet)
	router.HandleFunc("/ws/items/{id}", h.HandleItem).Methods(http.MethodGet)
}

// HandleItems streams every change of the item list.
//
//nolint:contextcheck // the feed outlives the upgrade request
func (h *WebSocketHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	conn, ctx, ok := h.open(w, r)
	if !ok {
		return
	}

	go writePump(ctx, h, conn, h.inventory.AllItems(ctx), model.NewItemsMessage)
}

// HandleItem streams every change of one item. Absent items are sent as
// null.
//
//nolint:contextcheck // the feed outlives the upgrade request
func (h *WebSocketHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, errInvalidID.Error(), http.StatusBadRequest)
		return
	}

	conn, ctx, ok := h.open(w, r)
	if !ok {
		return
	}

	go writePump(ctx, h, conn, h.inventory.RetrieveItem(ctx, id), model.NewItemMessage)
}

// open upgrades the connection, registers the client and starts its read
// pump. The returned context ends when the client goes away or the server
// shuts down.
func (h *WebSocketHandler) open(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, bool) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return nil, nil, false
	}

	// The request context ends when the handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	client := &wsClient{cancel: cancel, done: make(chan struct{})}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("path", r.URL.Path),
	)

	go h.readPump(ctx, conn, cancel)
	return conn, ctx, true
}

// readPump drains client frames so pongs and close frames are processed.
func (h *WebSocketHandler) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump sends each live snapshot as a JSON frame and keeps the
// connection alive with pings. It owns the connection and closes it.
func writePump[T any](
	ctx context.Context,
	h *WebSocketHandler,
	conn *websocket.Conn,
	updates <-chan T,
	toMessage func(T) model.WebSocketMessage,
) {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		h.removeClient(conn)
	}()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(conn, "server shutting down")
			return
		case v, ok := <-updates:
			if !ok {
				h.sendCloseMessage(conn, "inventory closed")
				return
			}
			if err := h.send(conn, toMessage(v)); err != nil {
				h.logger.Debug("failed to send snapshot", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// send writes one message frame.
func (h *WebSocketHandler) send(conn *websocket.Conn, msg model.WebSocketMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// sendPing sends a ping message to the connection.
func (h *WebSocketHandler) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *WebSocketHandler) sendCloseMessage(conn *websocket.Conn, reason string) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient unregisters and closes a connection.
func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	client, exists := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if !exists {
		return
	}

	client.cancel()
	if err := conn.Close(); err != nil {
		h.logger.Debug("error closing connection", zap.Error(err))
	}
	close(client.done)
	h.logger.Info("websocket client disconnected", zap.String("remote_addr", conn.RemoteAddr().String()))
}

// ClientCount returns the number of open connections.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAllConnections sends a close frame to every client and waits for
// their writers to finish.
func (h *WebSocketHandler) CloseAllConnections() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.cancel()
	}

	timeout := time.After(closeWait)
	for _, client := range clients {
		select {
		case <-client.done:
		case <-timeout:
			h.logger.Warn("websocket clients did not close in time")
			return
		}
	}

	h.logger.Info("all websocket connections closed")
}
