package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/playmatatu/billiards/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// Client is one websocket connection watching a pool game area. A client
// without a player id is a spectator and may only read state.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	area     *game.PoolGameArea
	playerID string
	send     chan []byte
	limiter  *rate.Limiter
	logger   *zap.Logger
	release  func()
}

// room is every client on one area plus the area event subscriptions that
// feed them.
type room struct {
	clients     map[*Client]struct{}
	unsubscribe []func()
}

// Hub maintains the set of active clients per area
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	upgrader websocket.Upgrader
	rps      rate.Limit
	burst    int
	ticks    bool
	logger   *zap.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithRateLimit caps the commands each connection may send.
func WithRateLimit(perSecond float64, burst int) HubOption {
	return func(h *Hub) {
		h.rps = rate.Limit(perSecond)
		h.burst = burst
	}
}

// WithTickStream forwards every recorded mid-shot frame as a tick message.
// Without it clients animate from the shot_history sent when the shot ends.
func WithTickStream(enabled bool) HubOption {
	return func(h *Hub) { h.ticks = enabled }
}

// WithCheckOrigin replaces the upgrade origin check.
func WithCheckOrigin(check func(r *http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = check }
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		rooms: make(map[string]*room),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rps:    rate.Inf,
		burst:  1,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeWS upgrades the request and attaches the connection to area. release,
// if not nil, runs once the connection has been torn down.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, area *game.PoolGameArea, playerID string, release func()) {
	if release == nil {
		release = func() {}
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("area", area.ID()), zap.Error(err))
		release()
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		area:     area,
		playerID: playerID,
		send:     make(chan []byte, sendBuffer),
		limiter:  rate.NewLimiter(h.rps, h.burst),
		logger:   h.logger.With(zap.String("area", area.ID()), zap.String("player", playerID)),
		release:  release,
	}
	h.register(client)

	go client.writePump()
	go client.readPump()

	client.reply(TypeAreaUpdate, area.ToModel())
}

func (h *Hub) register(c *Client) {
	areaID := c.area.ID()

	h.mu.Lock()
	rm, ok := h.rooms[areaID]
	if !ok {
		rm = &room{clients: make(map[*Client]struct{})}
		rm.unsubscribe = h.watch(c.area)
		h.rooms[areaID] = rm
	}
	if c.playerID != "" {
		for old := range rm.clients {
			if old.playerID == c.playerID {
				c.logger.Info("player reconnecting, closing old connection")
				delete(rm.clients, old)
				close(old.send)
			}
		}
	}
	rm.clients[c] = struct{}{}
	size := len(rm.clients)
	h.mu.Unlock()

	c.logger.Info("client connected", zap.Int("room_size", size))
}

func (h *Hub) unregister(c *Client) {
	areaID := c.area.ID()

	h.mu.Lock()
	rm, ok := h.rooms[areaID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := rm.clients[c]; !ok {
		// Already replaced by a newer connection.
		h.mu.Unlock()
		return
	}
	delete(rm.clients, c)
	close(c.send)
	var unsubscribe []func()
	if len(rm.clients) == 0 {
		unsubscribe = rm.unsubscribe
		delete(h.rooms, areaID)
	}
	h.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	c.logger.Info("client disconnected")
}

// watch forwards area events to the area's room.
func (h *Hub) watch(area *game.PoolGameArea) []func() {
	id := area.ID()
	ev := area.Events()
	subs := []func(){
		ev.AreaChanged.Subscribe(func(m game.PoolGameAreaModel) { h.Broadcast(id, TypeAreaUpdate, m) }),
		ev.HistoryUpdated.Subscribe(func(s game.ShotHistory) { h.Broadcast(id, TypeShotHistory, s) }),
		ev.TurnChanged.Subscribe(func(tc game.TurnChange) { h.Broadcast(id, TypeTurnChanged, tc) }),
		ev.BallPlacementRequired.Subscribe(func(bp game.BallPlacement) { h.Broadcast(id, TypeBallPlacementRequired, bp) }),
		ev.GameOver.Subscribe(func(r game.GameResult) { h.Broadcast(id, TypeGameOver, r) }),
	}
	if h.ticks {
		subs = append(subs, ev.Tick.Subscribe(func(u game.TickUpdate) { h.Broadcast(id, TypeTick, u) }))
	}
	return subs
}

// Broadcast sends a message to every client in an area. Slow clients drop it.
func (h *Hub) Broadcast(areaID, msgType string, data interface{}) {
	payload, err := encode(msgType, data)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	rm, ok := h.rooms[areaID]
	if !ok {
		return
	}
	for client := range rm.clients {
		select {
		case client.send <- payload:
		default:
			client.logger.Warn("send buffer full, dropping message", zap.String("type", msgType))
		}
	}
}

// deliver queues payload for c if it is still connected.
func (h *Hub) deliver(c *Client, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rm, ok := h.rooms[c.area.ID()]
	if !ok {
		return
	}
	if _, ok := rm.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("send buffer full, dropping reply")
	}
}

// RoomSize reports how many clients watch an area.
func (h *Hub) RoomSize(areaID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rm, ok := h.rooms[areaID]; ok {
		return len(rm.clients)
	}
	return 0
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Closed by the hub; best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) reply(msgType string, data interface{}) {
	payload, err := encode(msgType, data)
	if err != nil {
		c.logger.Error("failed to marshal reply", zap.String("type", msgType), zap.Error(err))
		return
	}
	c.hub.deliver(c, payload)
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	payload, _ := json.Marshal(OutMessage{Type: TypeError, Message: message})
	c.hub.deliver(c, payload)
}
