package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/physics"
)

// SimConfig controls how a shot is stepped.
type SimConfig struct {
	// Mode is physics.ModeFixed or physics.ModeEvent.
	Mode        string
	TickSeconds float64
	// MaxTicks stops a shot that never settles.
	MaxTicks int
	// HistoryStride records every n-th tick into the shot history.
	HistoryStride int
}

// DefaultSimConfig steps at 100 Hz and records at 50 Hz.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Mode:          physics.ModeFixed,
		TickSeconds:   0.01,
		MaxTicks:      6000,
		HistoryStride: 1,
	}
}

func (c SimConfig) validate() error {
	if c.Mode != physics.ModeFixed && c.Mode != physics.ModeEvent {
		return fmt.Errorf("unknown simulation mode %q", c.Mode)
	}
	if c.TickSeconds <= 0 || c.MaxTicks <= 0 || c.HistoryStride <= 0 {
		return fmt.Errorf("tick %v, max ticks %d and history stride %d must be positive",
			c.TickSeconds, c.MaxTicks, c.HistoryStride)
	}
	return nil
}

// Option configures a PoolGameArea.
type Option func(*PoolGameArea)

func WithLogger(l *zap.Logger) Option {
	return func(a *PoolGameArea) { a.logger = l }
}

// WithRand sets the source used to pick who breaks.
func WithRand(r *rand.Rand) Option {
	return func(a *PoolGameArea) { a.rng = r }
}

func WithParams(p physics.Params) Option {
	return func(a *PoolGameArea) { a.params = p }
}

func WithSimConfig(c SimConfig) Option {
	return func(a *PoolGameArea) { a.sim = c }
}

var standardTable = physics.NewStandardTable()

// ShotResult describes what one PoolMove did.
type ShotResult struct {
	ShotID          string            `json:"shotID"`
	ShotNumber      int               `json:"shotNumber"`
	PlayerID        string            `json:"playerID"`
	Ticks           int               `json:"ticks"`
	TimedOut        bool              `json:"timedOut,omitempty"`
	Collisions      int               `json:"collisions"`
	FirstContact    int               `json:"firstContact"`
	PocketedBalls   []int             `json:"pocketedBalls"`
	Foul            *FoulInfo         `json:"foul,omitempty"`
	TypeAssigned    bool              `json:"typeAssigned"`
	Player1BallType BallType          `json:"player1BallType,omitempty"`
	Player2BallType BallType          `json:"player2BallType,omitempty"`
	NextPlayerID    string            `json:"nextPlayerID,omitempty"`
	BallInHand      bool              `json:"ballInHand"`
	GameOver        bool              `json:"gameOver"`
	WinnerID        string            `json:"winnerID,omitempty"`
	WinType         string            `json:"winType,omitempty"`
	Model           PoolGameAreaModel `json:"model"`
	History         ShotHistory       `json:"-"`
}

// PoolGameArea is one pool table and the 8-ball game played on it.
//
// All state sits behind mu. A shot marks the area as in motion, simulates on a
// copy of the balls without holding the lock and commits the result at the
// end, so commands arriving mid-shot are rejected instead of blocking.
type PoolGameArea struct {
	id  string
	box BoundingBox

	params physics.Params
	table  *physics.Table
	sim    SimConfig
	logger *zap.Logger
	events Events

	// emitMu is taken before mu is released so events leave in commit order.
	// Subscribers must not call back into the area.
	emitMu sync.Mutex

	mu                sync.Mutex
	rng               *rand.Rand
	player1ID         string
	player2ID         string
	player1Type       BallType
	player2Type       BallType
	isPlayer1Turn     bool
	isBallBeingPlaced bool
	isBreakShot       bool
	started           bool
	inMotion          bool
	over              bool
	player1Won        bool
	winnerID          string
	shots             int
	lastActivity      time.Time
	balls             [physics.NumBalls]physics.Ball
}

// NewPoolGameArea restores an area from a snapshot.
func NewPoolGameArea(model PoolGameAreaModel, box BoundingBox, opts ...Option) (*PoolGameArea, error) {
	if model.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedArea)
	}
	a := &PoolGameArea{
		id:            model.ID,
		box:           box,
		params:        physics.DefaultParams(),
		table:         standardTable,
		sim:           DefaultSimConfig(),
		logger:        zap.NewNop(),
		isPlayer1Turn: true,
		lastActivity:  time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.sim.validate(); err != nil {
		return nil, err
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a.logger = a.logger.With(zap.String("area", a.id))

	if err := a.UpdateFrom(model); err != nil {
		return nil, err
	}
	return a, nil
}

// NewPoolGameAreaFromMapObject creates an empty area for a map rectangle.
// The rectangle must have a size.
func NewPoolGameAreaFromMapObject(obj MapObject, opts ...Option) (*PoolGameArea, error) {
	if obj.Width <= 0 || obj.Height <= 0 {
		return nil, fmt.Errorf("%w %q: missing width or height", ErrMalformedArea, obj.Name)
	}
	box := BoundingBox{X: obj.X, Y: obj.Y, Width: obj.Width, Height: obj.Height}
	return NewPoolGameArea(PoolGameAreaModel{ID: obj.Name, IsPlayer1Turn: true}, box, opts...)
}

func (a *PoolGameArea) ID() string       { return a.id }
func (a *PoolGameArea) Box() BoundingBox { return a.box }
func (a *PoolGameArea) Events() *Events  { return &a.events }

func (a *PoolGameArea) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phaseLocked()
}

// LastActivity is when a command last changed the area.
func (a *PoolGameArea) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActivity
}

// Idle reports whether nobody is seated and no shot is running.
func (a *PoolGameArea) Idle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.player1ID == "" && a.player2ID == "" && !a.inMotion
}

func (a *PoolGameArea) phaseLocked() Phase {
	switch {
	case !a.started:
		return PhaseNotStarted
	case a.over:
		return PhaseGameOver
	case a.inMotion:
		return PhaseBallsInMotion
	case a.isBallBeingPlaced:
		return PhaseBallInHand
	}
	return PhaseWaitingForShot
}

// handOff releases mu once the caller holds emitMu. The caller unlocks emitMu
// after publishing.
func (a *PoolGameArea) handOff() {
	a.emitMu.Lock()
	a.mu.Unlock()
}

func (a *PoolGameArea) playerIDToMoveLocked() string {
	if !a.started || a.over {
		return ""
	}
	if a.isPlayer1Turn {
		return a.player1ID
	}
	return a.player2ID
}

// ToModel returns a snapshot. While balls are moving it shows the table as it
// was when the shot was taken.
func (a *PoolGameArea) ToModel() PoolGameAreaModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modelLocked()
}

func (a *PoolGameArea) modelLocked() PoolGameAreaModel {
	m := PoolGameAreaModel{
		ID:                a.id,
		Player1ID:         a.player1ID,
		Player2ID:         a.player2ID,
		Player1BallType:   a.player1Type,
		Player2BallType:   a.player2Type,
		PlayerIDToMove:    a.playerIDToMoveLocked(),
		IsPlayer1Turn:     a.isPlayer1Turn,
		IsBallBeingPlaced: a.isBallBeingPlaced,
		IsBreakShot:       a.isBreakShot,
		WinnerID:          a.winnerID,
		PoolBalls:         []PoolBallModel{},
	}
	if a.started {
		m.PoolBalls = ballModels(&a.balls)
	}
	return m
}

// UpdateFrom replaces the live state with a snapshot. The area id is kept.
func (a *PoolGameArea) UpdateFrom(m PoolGameAreaModel) error {
	if !validBallType(m.Player1BallType) || !validBallType(m.Player2BallType) {
		return fmt.Errorf("%w: ball types %q/%q", ErrInvalidSnapshot, m.Player1BallType, m.Player2BallType)
	}
	var balls [physics.NumBalls]physics.Ball
	started := len(m.PoolBalls) > 0
	if started {
		var err error
		if balls, err = arenaFromModels(&a.params, m.PoolBalls); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inMotion {
		return ErrBallsInMotion
	}

	a.player1ID = m.Player1ID
	a.player2ID = m.Player2ID
	a.player1Type = m.Player1BallType
	a.player2Type = m.Player2BallType
	a.isPlayer1Turn = m.IsPlayer1Turn
	a.isBallBeingPlaced = m.IsBallBeingPlaced
	a.isBreakShot = m.IsBreakShot
	a.started = started
	a.balls = balls
	a.winnerID = m.WinnerID
	a.over = false
	a.player1Won = false

	if !started {
		return nil
	}
	if m.WinnerID != "" {
		a.over = true
		a.player1Won = m.WinnerID == m.Player1ID
	} else if st := gameOverFor(&a.balls, a.isPlayer1Turn, a.player1Type, a.player2Type); st.IsGameOver {
		a.over = true
		a.player1Won = st.DidPlayer1Win
	}
	if a.over {
		a.isBallBeingPlaced = false
	}
	return nil
}

// IsGameOver reports whether the game has ended and who won. It never changes state.
func (a *PoolGameArea) IsGameOver() GameOverState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.over {
		return GameOverState{IsGameOver: true, DidPlayer1Win: a.player1Won}
	}
	if !a.started {
		return GameOverState{}
	}
	return gameOverFor(&a.balls, a.isPlayer1Turn, a.player1Type, a.player2Type)
}

// StartGame racks the balls and picks who breaks.
func (a *PoolGameArea) StartGame() error {
	return a.ResetGame()
}

// ResetGame racks the balls, clears ball types and ball in hand, and picks a
// random player to break.
func (a *PoolGameArea) ResetGame() error {
	a.mu.Lock()
	if a.inMotion {
		a.mu.Unlock()
		return ErrBallsInMotion
	}
	a.balls = physics.RackBalls(&a.params)
	a.player1Type, a.player2Type = "", ""
	a.isBallBeingPlaced = false
	a.isBreakShot = true
	a.started = true
	a.over = false
	a.player1Won = false
	a.winnerID = ""
	a.shots = 0
	a.isPlayer1Turn = a.rng.Float64() < 0.5
	a.lastActivity = time.Now()
	model := a.modelLocked()
	a.handOff()
	defer a.emitMu.Unlock()

	a.logger.Info("game started", zap.Bool("player1_breaks", model.IsPlayer1Turn))
	a.events.AreaChanged.emit(model)
	a.events.TurnChanged.emit(TurnChange{AreaID: a.id, PlayerIDToMove: model.PlayerIDToMove, IsPlayer1Turn: model.IsPlayer1Turn})
	return nil
}

func (a *PoolGameArea) canShootLocked(playerID string) error {
	switch {
	case !a.started:
		return ErrGameNotStarted
	case a.over:
		return ErrGameOver
	case a.inMotion:
		return ErrBallsInMotion
	case a.player1ID == "" || a.player2ID == "":
		return ErrNoOpponent
	case playerID == "" || playerID != a.playerIDToMoveLocked():
		return ErrNotYourTurn
	case a.isBallBeingPlaced:
		return ErrBallInHand
	}
	return nil
}

func (a *PoolGameArea) seatIDs(isPlayer1 bool) (self, other string) {
	if isPlayer1 {
		return a.player1ID, a.player2ID
	}
	return a.player2ID, a.player1ID
}

func (a *PoolGameArea) typeOf(isPlayer1 bool) BallType {
	if isPlayer1 {
		return a.player1Type
	}
	return a.player2Type
}

// PoolMove strikes the cue ball with cue and plays the shot out until every
// ball is at rest, then applies the 8-ball rules.
func (a *PoolGameArea) PoolMove(playerID string, cue physics.Cue) (*ShotResult, error) {
	a.mu.Lock()
	if err := a.canShootLocked(playerID); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	balls := a.balls
	params := a.params
	if !params.CueStrike(cue, &balls[physics.CueBallNumber]) {
		a.mu.Unlock()
		return nil, ErrInvalidCue
	}
	shooterIsP1 := a.isPlayer1Turn
	shooterType := a.typeOf(shooterIsP1)
	tracker := newShotTracker(shooterType, pocketedOfType(&a.balls, shooterType) == groupSize)
	base := a.modelLocked()
	a.inMotion = true
	a.mu.Unlock()

	shotID := uuid.NewString()
	ticks, timedOut, frames := a.simulate(shotID, base, &params, &balls, tracker)
	tracker.finish()

	a.mu.Lock()
	a.inMotion = false
	a.balls = balls
	a.shots++
	a.lastActivity = time.Now()
	shooterID, opponentID := a.seatIDs(shooterIsP1)

	res := &ShotResult{
		ShotID:        shotID,
		ShotNumber:    a.shots,
		PlayerID:      playerID,
		Ticks:         ticks,
		TimedOut:      timedOut,
		Collisions:    tracker.collisions,
		FirstContact:  tracker.firstContact,
		PocketedBalls: append([]int{}, tracker.pocketed...),
		Foul:          tracker.foul,
	}

	if !a.isBreakShot && tracker.foul == nil && a.player1Type == "" && a.player2Type == "" {
		if n := tracker.firstObjectBall(); n >= 0 {
			t := BallTypeByNumber(n)
			if shooterIsP1 {
				a.player1Type, a.player2Type = t, opposite(t)
			} else {
				a.player2Type, a.player1Type = t, opposite(t)
			}
			res.TypeAssigned = true
		}
	}
	a.isBreakShot = false

	// Decided before the turn passes so the rule judges the shooter.
	if tracker.eightPocket && tracker.cuePocketed {
		a.finishLocked(!shooterIsP1)
		res.WinType = WinScratchOnEight
	} else if st := gameOverFor(&a.balls, a.isPlayer1Turn, a.player1Type, a.player2Type); st.IsGameOver {
		a.finishLocked(st.DidPlayer1Win)
		res.WinType = WinIllegalEight
		if st.DidPlayer1Win == shooterIsP1 {
			res.WinType = WinPocketedEight
		}
	} else {
		a.isPlayer1Turn = !a.isPlayer1Turn
		a.isBallBeingPlaced = tracker.foul != nil
	}

	res.Player1BallType, res.Player2BallType = a.player1Type, a.player2Type
	res.NextPlayerID = a.playerIDToMoveLocked()
	res.BallInHand = a.isBallBeingPlaced
	res.GameOver = a.over
	res.WinnerID = a.winnerID
	res.Model = a.modelLocked()
	res.History = ShotHistory{AreaID: a.id, ShotID: shotID, Frames: frames}
	player1Won := a.player1Won
	a.handOff()
	defer a.emitMu.Unlock()

	a.logger.Info("shot played",
		zap.String("shot_id", shotID),
		zap.String("player", playerID),
		zap.Int("ticks", ticks),
		zap.Ints("pocketed", res.PocketedBalls),
		zap.Bool("scratch", res.Foul != nil),
		zap.Bool("game_over", res.GameOver),
		zap.String("next", res.NextPlayerID),
	)

	a.events.HistoryUpdated.emit(res.History)
	a.events.AreaChanged.emit(res.Model)
	if res.GameOver {
		loserID := opponentID
		if res.WinnerID == opponentID {
			loserID = shooterID
		}
		a.events.GameOver.emit(GameResult{
			AreaID:        a.id,
			WinnerID:      res.WinnerID,
			LoserID:       loserID,
			DidPlayer1Win: player1Won,
			Reason:        res.WinType,
		})
		return res, nil
	}
	a.events.TurnChanged.emit(TurnChange{AreaID: a.id, PlayerIDToMove: res.NextPlayerID, IsPlayer1Turn: res.Model.IsPlayer1Turn})
	if res.BallInHand {
		a.events.BallPlacementRequired.emit(BallPlacement{AreaID: a.id, PlayerID: res.NextPlayerID})
	}
	return res, nil
}

// simulate runs the tick loop on balls, which belong to the caller alone.
func (a *PoolGameArea) simulate(shotID string, base PoolGameAreaModel, params *physics.Params,
	balls *[physics.NumBalls]physics.Ball, tracker *shotTracker) (ticks int, timedOut bool, frames []PoolGameAreaModel) {

	frame := func() PoolGameAreaModel {
		f := base
		f.PoolBalls = ballModels(balls)
		return f
	}
	record := func() {
		f := frame()
		frames = append(frames, f)
		a.events.Tick.emit(TickUpdate{AreaID: a.id, ShotID: shotID, Tick: ticks, Model: f})
	}

	record()
	sim, err := physics.NewSimulator(a.sim.Mode, params, a.table, balls)
	if err != nil {
		// Mode was validated at construction.
		a.logger.Error("simulator unavailable", zap.Error(err))
		return 0, false, frames
	}

	for sim.InMotion() && ticks < a.sim.MaxTicks {
		tracker.observe(sim.Step(a.sim.TickSeconds))
		ticks++
		if ticks%a.sim.HistoryStride == 0 {
			record()
		}
	}

	if sim.InMotion() {
		timedOut = true
		a.logger.Warn("shot hit the tick limit, stopping balls", zap.String("shot_id", shotID), zap.Int("ticks", ticks))
		for i := range balls {
			if balls[i].InPlay() {
				balls[i].Stop()
				balls[i].Position.Z = params.BallRadius
			}
		}
	}
	if ticks%a.sim.HistoryStride != 0 || timedOut {
		record()
	}
	return ticks, timedOut, frames
}

func (a *PoolGameArea) finishLocked(player1Won bool) {
	a.over = true
	a.player1Won = player1Won
	a.isBallBeingPlaced = false
	if player1Won {
		a.winnerID = a.player1ID
	} else {
		a.winnerID = a.player2ID
	}
}

// PlaceCueBall puts the cue ball down for the player with ball in hand. The
// spot must be on the cloth and clear of every other ball.
func (a *PoolGameArea) PlaceCueBall(playerID string, pos physics.Vector3) error {
	a.mu.Lock()
	switch {
	case !a.started:
		a.mu.Unlock()
		return ErrGameNotStarted
	case a.over:
		a.mu.Unlock()
		return ErrGameOver
	case a.inMotion:
		a.mu.Unlock()
		return ErrBallsInMotion
	case !a.isBallBeingPlaced:
		a.mu.Unlock()
		return ErrNotPlacingBall
	case playerID == "" || playerID != a.playerIDToMoveLocked():
		a.mu.Unlock()
		return ErrNotYourTurn
	}

	r := a.params.BallRadius
	spot := physics.NewVector3(pos.X, pos.Y, r)
	if !spot.IsFinite() || !a.table.OnSurface(spot, r) {
		a.mu.Unlock()
		return fmt.Errorf("%w: (%.3f, %.3f) is off the cloth", ErrInvalidPlacement, pos.X, pos.Y)
	}
	for i := range a.balls {
		b := &a.balls[i]
		if i == physics.CueBallNumber || !b.InPlay() {
			continue
		}
		if b.Position.Sub(spot).Planar().Magnitude() < 2*r {
			a.mu.Unlock()
			return fmt.Errorf("%w: overlaps ball %d", ErrInvalidPlacement, i)
		}
	}

	a.balls[physics.CueBallNumber] = physics.NewBall(&a.params, physics.CueBallNumber, spot.X, spot.Y)
	a.isBallBeingPlaced = false
	a.lastActivity = time.Now()
	model := a.modelLocked()
	a.handOff()
	defer a.emitMu.Unlock()

	a.logger.Info("cue ball placed", zap.String("player", playerID), zap.Float64("x", spot.X), zap.Float64("y", spot.Y))
	a.events.AreaChanged.emit(model)
	a.events.TurnChanged.emit(TurnChange{AreaID: a.id, PlayerIDToMove: model.PlayerIDToMove, IsPlayer1Turn: model.IsPlayer1Turn})
	return nil
}

// SetPlayer1 seats id as player one and reports whether anything changed.
func (a *PoolGameArea) SetPlayer1(id string) bool {
	return a.setSeat(true, id)
}

// SetPlayer2 seats id as player two and reports whether anything changed.
func (a *PoolGameArea) SetPlayer2(id string) bool {
	return a.setSeat(false, id)
}

func (a *PoolGameArea) setSeat(player1 bool, id string) bool {
	a.mu.Lock()
	seat := &a.player2ID
	if player1 {
		seat = &a.player1ID
	}
	if *seat == id {
		a.mu.Unlock()
		return false
	}
	*seat = id
	a.lastActivity = time.Now()
	model := a.modelLocked()
	a.handOff()
	defer a.emitMu.Unlock()

	a.events.AreaChanged.emit(model)
	return true
}

// JoinGame seats playerID in the first free seat and returns 1 or 2. A player
// already seated gets their seat back.
func (a *PoolGameArea) JoinGame(playerID string) (int, error) {
	if playerID == "" {
		return 0, ErrInvalidPlayer
	}
	a.mu.Lock()
	var seat int
	switch {
	case a.player1ID == playerID:
		a.mu.Unlock()
		return 1, nil
	case a.player2ID == playerID:
		a.mu.Unlock()
		return 2, nil
	case a.player1ID == "":
		a.player1ID, seat = playerID, 1
	case a.player2ID == "":
		a.player2ID, seat = playerID, 2
	default:
		a.mu.Unlock()
		return 0, ErrSeatTaken
	}
	a.lastActivity = time.Now()
	model := a.modelLocked()
	a.handOff()
	defer a.emitMu.Unlock()

	a.logger.Info("player joined", zap.String("player", playerID), zap.Int("seat", seat))
	a.events.AreaChanged.emit(model)
	return seat, nil
}

// RemovePlayer frees the seat held by playerID. Leaving a game in progress
// forfeits it to the opponent; once both seats are empty the table is cleared.
func (a *PoolGameArea) RemovePlayer(playerID string) bool {
	if playerID == "" {
		return false
	}
	a.mu.Lock()
	var wasPlayer1 bool
	switch playerID {
	case a.player1ID:
		a.player1ID, wasPlayer1 = "", true
	case a.player2ID:
		a.player2ID = ""
	default:
		a.mu.Unlock()
		return false
	}

	_, otherID := a.seatIDs(wasPlayer1)
	forfeit := a.started && !a.over && !a.inMotion && otherID != ""
	if forfeit {
		a.finishLocked(!wasPlayer1)
	}
	if a.player1ID == "" && a.player2ID == "" && !a.inMotion {
		a.started, a.over, a.player1Won = false, false, false
		a.winnerID = ""
		a.player1Type, a.player2Type = "", ""
		a.isPlayer1Turn, a.isBallBeingPlaced, a.isBreakShot = true, false, false
		a.balls = [physics.NumBalls]physics.Ball{}
	}
	a.lastActivity = time.Now()
	model := a.modelLocked()
	a.handOff()
	defer a.emitMu.Unlock()

	a.logger.Info("player left", zap.String("player", playerID), zap.Bool("forfeit", forfeit))
	a.events.AreaChanged.emit(model)
	if forfeit {
		a.events.GameOver.emit(GameResult{
			AreaID:        a.id,
			WinnerID:      otherID,
			LoserID:       playerID,
			DidPlayer1Win: !wasPlayer1,
			Reason:        WinForfeit,
		})
	}
	return true
}
