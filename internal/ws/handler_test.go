package ws

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/physics"
)

type received struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	hub  *Hub
	area *game.PoolGameArea
	url  string
}

func newTestServer(t *testing.T, opts ...HubOption) *testServer {
	t.Helper()
	// Server goroutines outlive the test, so they must not log through t.
	logger := zap.NewNop()
	area, err := game.NewPoolGameArea(game.PoolGameAreaModel{ID: "lounge"}, game.BoundingBox{},
		game.WithLogger(logger), game.WithRand(rand.New(rand.NewSource(3))))
	require.NoError(t, err)

	hub := NewHub(logger, opts...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, area, r.URL.Query().Get("player"), nil)
	}))
	t.Cleanup(srv.Close)
	return &testServer{hub: hub, area: area, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (s *testServer) dial(t *testing.T, player string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url+"?player="+player, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	first := readType(t, conn, TypeAreaUpdate)
	var m game.PoolGameAreaModel
	require.NoError(t, json.Unmarshal(first.Data, &m))
	assert.Equal(t, "lounge", m.ID)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgType, Data: raw}))
}

// readType reads until a message of msgType arrives.
func readType(t *testing.T, conn *websocket.Conn, msgType string) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestJoinAndStart(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t, "alice")
	bob := s.dial(t, "bob")
	assert.Eventually(t, func() bool { return s.hub.RoomSize("lounge") == 2 }, time.Second, 10*time.Millisecond)

	send(t, alice, TypeStartGame, nil)
	assert.Equal(t, "Not seated", readType(t, alice, TypeError).Message)

	send(t, alice, TypeJoinGame, nil)
	var joined JoinedData
	require.NoError(t, json.Unmarshal(readType(t, alice, TypeJoined).Data, &joined))
	assert.Equal(t, 1, joined.Seat)

	send(t, alice, TypeStartGame, nil)
	assert.Equal(t, "Waiting for an opponent", readType(t, alice, TypeError).Message)

	send(t, bob, TypeJoinGame, nil)
	readType(t, bob, TypeJoined)
	send(t, bob, TypeStartGame, nil)

	for _, conn := range []*websocket.Conn{alice, bob} {
		var tc game.TurnChange
		require.NoError(t, json.Unmarshal(readType(t, conn, TypeTurnChanged).Data, &tc))
		assert.Contains(t, []string{"alice", "bob"}, tc.PlayerIDToMove)
	}
	assert.Equal(t, game.PhaseWaitingForShot, s.area.Phase())
}

func TestShotIsBroadcast(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t, "alice")
	bob := s.dial(t, "bob")
	watcher := s.dial(t, "")

	_, err := s.area.JoinGame("alice")
	require.NoError(t, err)
	_, err = s.area.JoinGame("bob")
	require.NoError(t, err)
	require.NoError(t, s.area.StartGame())

	mover := s.area.ToModel().PlayerIDToMove
	conns := map[string]*websocket.Conn{"alice": alice, "bob": bob}
	other := "alice"
	if mover == "alice" {
		other = "bob"
	}

	r := params.BallRadius
	start := physics.CueBallStart
	cue := physics.Cue{
		Position: physics.NewVector3(start.X-r, start.Y, r),
		Velocity: physics.NewVector3(5, 0, 0),
	}

	send(t, conns[other], TypePoolMove, PoolMoveData{Cue: cue})
	assert.Equal(t, game.ErrNotYourTurn.Error(), readType(t, conns[other], TypeError).Message)

	send(t, watcher, TypePoolMove, PoolMoveData{Cue: cue})
	assert.Equal(t, "Spectators cannot play", readType(t, watcher, TypeError).Message)

	send(t, conns[mover], TypePoolMove, PoolMoveData{Cue: cue})

	var result game.ShotResult
	require.NoError(t, json.Unmarshal(readType(t, conns[mover], TypeShotResult).Data, &result))
	assert.Equal(t, mover, result.PlayerID)
	assert.Equal(t, 1, result.FirstContact)

	var history game.ShotHistory
	require.NoError(t, json.Unmarshal(readType(t, watcher, TypeShotHistory).Data, &history))
	assert.Equal(t, result.ShotID, history.ShotID)
	assert.NotEmpty(t, history.Frames)

	send(t, watcher, TypeGetState, nil)
	var m game.PoolGameAreaModel
	require.NoError(t, json.Unmarshal(readType(t, watcher, TypeAreaUpdate).Data, &m))
	assert.Len(t, m.PoolBalls, physics.NumBalls)
}

func TestBadMessages(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t, "alice")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "Invalid message", readType(t, alice, TypeError).Message)

	send(t, alice, "dance", nil)
	assert.Equal(t, "Unknown message type", readType(t, alice, TypeError).Message)

	require.NoError(t, alice.WriteJSON(WSMessage{Type: TypePoolMove, Data: json.RawMessage(`"nope"`)}))
	assert.Equal(t, "Invalid shot data", readType(t, alice, TypeError).Message)

	send(t, alice, TypePlaceCueBall, PlaceCueBallData{X: 0.5, Y: 0.5})
	assert.Equal(t, game.ErrGameNotStarted.Error(), readType(t, alice, TypeError).Message)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, WithRateLimit(0.001, 1))
	alice := s.dial(t, "alice")

	send(t, alice, TypeGetState, nil)
	readType(t, alice, TypeAreaUpdate)
	send(t, alice, TypeGetState, nil)
	assert.Equal(t, "Too many messages", readType(t, alice, TypeError).Message)
}

func TestReconnectReplacesOldConnection(t *testing.T) {
	s := newTestServer(t)
	first := s.dial(t, "alice")
	s.dial(t, "alice")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return s.hub.RoomSize("lounge") == 1 }, time.Second, 10*time.Millisecond)
}

var params = physics.DefaultParams()

func TestReleaseRunsAfterDisconnect(t *testing.T) {
	area, err := game.NewPoolGameArea(game.PoolGameAreaModel{ID: "lounge"}, game.BoundingBox{})
	require.NoError(t, err)
	hub := NewHub(zap.NewNop())
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, area, "alice", func() { close(released) })
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	readType(t, conn, TypeAreaUpdate)
	assert.Equal(t, 1, hub.RoomSize("lounge"))

	conn.Close()
	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("area was not released after the connection closed")
	}
	assert.Zero(t, hub.RoomSize("lounge"))
}
