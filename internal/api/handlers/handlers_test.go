package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/leaderboard"
	"github.com/playmatatu/billiards/internal/physics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHistory struct {
	shots []game.ShotHistory
	limit int
	err   error
}

func (f *fakeHistory) RecentHistory(_ context.Context, areaID string, limit int) ([]game.ShotHistory, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []game.ShotHistory
	for _, s := range f.shots {
		if s.AreaID == areaID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBoard struct {
	entries []leaderboard.Entry
	limit   int
	err     error
}

func (f *fakeBoard) Top(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func (f *fakeBoard) Player(_ context.Context, id string) (leaderboard.Entry, error) {
	if f.err != nil {
		return leaderboard.Entry{}, f.err
	}
	for _, e := range f.entries {
		if e.PlayerID == id {
			return e, nil
		}
	}
	return leaderboard.Entry{}, leaderboard.ErrPlayerNotFound
}

type fakeHub struct {
	area     string
	playerID string
	called   bool
	releases []func()
}

func (f *fakeHub) ServeWS(w http.ResponseWriter, _ *http.Request, area *game.PoolGameArea, playerID string, release func()) {
	f.called = true
	f.area = area.ID()
	f.playerID = playerID
	f.releases = append(f.releases, release)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

type env struct {
	router  *gin.Engine
	areas   *game.AreaManager
	seats   *auth.Issuer
	history *fakeHistory
	board   *fakeBoard
	hub     *fakeHub
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	e := &env{
		areas:   game.NewAreaManager(nil, nil, logger),
		seats:   auth.NewIssuer("secret", time.Hour),
		history: &fakeHistory{},
		board:   &fakeBoard{},
		hub:     &fakeHub{},
	}
	t.Cleanup(e.areas.Close)

	r := gin.New()
	r.POST("/areas", CreateArea(e.areas, logger))
	r.GET("/areas", ListAreas(e.areas))
	r.GET("/areas/:id", GetArea(e.areas, logger))
	r.POST("/areas/:id/token", IssueSeatToken(e.areas, e.seats, logger))
	r.GET("/areas/:id/history", GetShotHistory(e.areas, e.history, logger))
	r.GET("/areas/:id/ws", HandleAreaWebSocket(e.areas, e.seats, e.hub, logger))
	r.GET("/leaderboard", GetLeaderboard(e.board, logger))
	r.GET("/leaderboard/:player", GetPlayerStats(e.board, logger))
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCreateAndGetArea(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/areas", game.MapObject{Name: "lounge", X: 10, Y: 20, Width: 64, Height: 32})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Area game.PoolGameAreaModel `json:"area"`
		Box  game.BoundingBox       `json:"box"`
	}
	decode(t, w, &created)
	assert.Equal(t, "lounge", created.Area.ID)
	assert.Equal(t, game.BoundingBox{X: 10, Y: 20, Width: 64, Height: 32}, created.Box)

	w = e.do(t, http.MethodPost, "/areas", game.MapObject{Name: "lounge", Width: 1, Height: 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/areas", game.MapObject{Name: "flat", Width: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/areas", nil)
	assert.JSONEq(t, `{"areas":["lounge"]}`, w.Body.String())

	w = e.do(t, http.MethodGet, "/areas/lounge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Area     game.PoolGameAreaModel `json:"area"`
		Phase    game.Phase             `json:"phase"`
		GameOver game.GameOverState     `json:"game_over"`
	}
	decode(t, w, &got)
	assert.Equal(t, "lounge", got.Area.ID)
	assert.Equal(t, game.PhaseNotStarted, got.Phase)
	assert.False(t, got.GameOver.IsGameOver)

	w = e.do(t, http.MethodGet, "/areas/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAreaGeneratesID(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/areas", game.MapObject{Width: 4, Height: 2})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Area game.PoolGameAreaModel `json:"area"`
	}
	decode(t, w, &created)
	assert.NotEmpty(t, created.Area.ID)
	assert.Equal(t, []string{created.Area.ID}, e.areas.AreaIDs())
}

func TestCreateAreaBadBody(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/areas", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueSeatToken(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"lounge", "cellar"} {
		_, err := e.areas.CreateArea(context.Background(), game.MapObject{Name: id, Width: 1, Height: 1})
		require.NoError(t, err)
	}

	type tokenResponse struct {
		PlayerID  string    `json:"player_id"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	issue := func(path, bearer string) (*httptest.ResponseRecorder, tokenResponse) {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		var resp tokenResponse
		if w.Code == http.StatusOK {
			decode(t, w, &resp)
		}
		return w, resp
	}

	w, first := issue("/areas/lounge/token", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, first.PlayerID)
	assert.True(t, first.ExpiresAt.After(time.Now()))
	claims, err := e.seats.Parse(first.Token)
	require.NoError(t, err)
	assert.Equal(t, "lounge", claims.AreaID)
	assert.Equal(t, first.PlayerID, claims.PlayerID)

	_, stranger := issue("/areas/lounge/token", "")
	assert.NotEqual(t, first.PlayerID, stranger.PlayerID, "every caller without a token is a new player")

	w, moved := issue("/areas/cellar/token", first.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.PlayerID, moved.PlayerID)
	claims, err = e.seats.Parse(moved.Token)
	require.NoError(t, err)
	assert.Equal(t, "cellar", claims.AreaID)

	// A forged identity cannot be claimed.
	forged, _, err := auth.NewIssuer("other-secret", time.Hour).Issue("lounge", first.PlayerID)
	require.NoError(t, err)
	w, _ = issue("/areas/lounge/token", forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = issue("/areas/nowhere/token", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAreaWebSocket(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"lounge", "cellar"} {
		_, err := e.areas.CreateArea(context.Background(), game.MapObject{Name: id, Width: 1, Height: 1})
		require.NoError(t, err)
	}
	token, _, err := e.seats.Issue("lounge", "alice")
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/areas/lounge/ws?token="+token, nil)
	assert.Equal(t, http.StatusSwitchingProtocols, w.Code)
	assert.Equal(t, "lounge", e.hub.area)
	assert.Equal(t, "alice", e.hub.playerID)

	e.hub.called = false
	w = e.do(t, http.MethodGet, "/areas/lounge/ws", nil)
	assert.Equal(t, http.StatusSwitchingProtocols, w.Code)
	assert.True(t, e.hub.called)
	assert.Empty(t, e.hub.playerID, "no token means spectator")

	req := httptest.NewRequest(http.MethodGet, "/areas/lounge/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, "alice", e.hub.playerID)

	e.hub.called = false
	w = e.do(t, http.MethodGet, "/areas/cellar/ws?token="+token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, e.hub.called)

	w = e.do(t, http.MethodGet, "/areas/lounge/ws?token=garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, e.hub.called)

	w = e.do(t, http.MethodGet, "/areas/nowhere/ws", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	// Accepted connections keep lounge pinned; the rejected ones let go of cellar.
	later := time.Now().Add(2 * time.Hour)
	assert.Equal(t, []string{"cellar"}, e.areas.EvictIdle(later, time.Hour))
	require.Len(t, e.hub.releases, 3)
	for _, release := range e.hub.releases {
		release()
	}
	assert.Equal(t, []string{"lounge"}, e.areas.EvictIdle(later, time.Hour))
}

func TestGetShotHistory(t *testing.T) {
	e := newEnv(t)
	_, err := e.areas.CreateArea(context.Background(), game.MapObject{Name: "lounge", Width: 1, Height: 1})
	require.NoError(t, err)
	e.history.shots = []game.ShotHistory{
		{AreaID: "lounge", ShotID: "s2"},
		{AreaID: "lounge", ShotID: "s1"},
		{AreaID: "cellar", ShotID: "x"},
	}

	w := e.do(t, http.MethodGet, "/areas/lounge/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Shots []game.ShotHistory `json:"shots"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Shots, 2)
	assert.Equal(t, "s2", resp.Shots[0].ShotID)
	assert.Equal(t, 5, e.history.limit)

	e.do(t, http.MethodGet, "/areas/lounge/history?limit=abc", nil)
	assert.Equal(t, defaultHistoryLimit, e.history.limit)

	e.history.err = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, e.do(t, http.MethodGet, "/areas/lounge/history", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/areas/nowhere/history", nil).Code)
}

func TestNoHistoryStore(t *testing.T) {
	r := gin.New()
	areas := game.NewAreaManager(nil, nil, nil)
	defer areas.Close()
	r.GET("/areas/:id/history", GetShotHistory(areas, nil, zap.NewNop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/areas/lounge/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLeaderboard(t *testing.T) {
	e := newEnv(t)
	e.board.entries = []leaderboard.Entry{
		{PlayerID: "alice", Wins: 3, Losses: 1},
		{PlayerID: "bob", Wins: 1, Losses: 3},
	}

	w := e.do(t, http.MethodGet, "/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Entries []leaderboard.Entry `json:"entries"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "alice", resp.Entries[0].PlayerID)
	assert.Equal(t, 2, e.board.limit)

	e.do(t, http.MethodGet, "/leaderboard", nil)
	assert.Equal(t, leaderboard.DefaultLimit, e.board.limit)

	w = e.do(t, http.MethodGet, "/leaderboard/bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bob leaderboard.Entry
	decode(t, w, &bob)
	assert.Equal(t, 1, bob.Wins)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/leaderboard/carol", nil).Code)

	e.board.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, e.do(t, http.MethodGet, "/leaderboard", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, e.do(t, http.MethodGet, "/leaderboard/bob", nil).Code)
}

func TestLeaderboardDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/leaderboard", GetLeaderboard(nil, zap.NewNop()))
	r.GET("/leaderboard/:player", GetPlayerStats(nil, zap.NewNop()))

	for _, path := range []string{"/leaderboard", "/leaderboard/alice"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestHealthCheck(t *testing.T) {
	r := gin.New()
	r.GET("/ok", HealthCheck(map[string]Check{
		"redis": func(context.Context) error { return nil },
	}))
	r.GET("/degraded", HealthCheck(map[string]Check{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var ok map[string]interface{}
	decode(t, w, &ok)
	assert.Equal(t, "ok", ok["status"])
	assert.Equal(t, map[string]interface{}{"redis": "ok"}, ok["dependencies"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/degraded", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var bad map[string]interface{}
	decode(t, w, &bad)
	assert.Equal(t, "degraded", bad["status"])
	assert.Equal(t, map[string]interface{}{"redis": "ok", "postgres": "connection refused"}, bad["dependencies"])
}

func TestGetConfig(t *testing.T) {
	r := gin.New()
	r.GET("/config", GetConfig(physics.DefaultParams(), game.DefaultSimConfig()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Table struct {
			Length  float64          `json:"length"`
			Width   float64          `json:"width"`
			Pockets []physics.Pocket `json:"pockets"`
		} `json:"table"`
		BallRadius float64 `json:"ball_radius"`
		SimMode    string  `json:"sim_mode"`
	}
	decode(t, w, &resp)
	assert.Equal(t, physics.TableLength, resp.Table.Length)
	assert.Equal(t, physics.TableWidth, resp.Table.Width)
	assert.Len(t, resp.Table.Pockets, 6)
	assert.Equal(t, physics.DefaultParams().BallRadius, resp.BallRadius)
	assert.Equal(t, game.DefaultSimConfig().Mode, resp.SimMode)
}
