package ws

import (
	"encoding/json"

	"github.com/playmatatu/billiards/internal/physics"
)

// Incoming message types.
const (
	TypeJoinGame     = "join_game"
	TypeLeaveGame    = "leave_game"
	TypeStartGame    = "start_game"
	TypeResetGame    = "reset_game"
	TypePoolMove     = "pool_move"
	TypePlaceCueBall = "place_cue_ball"
	TypeGetState     = "get_state"
)

// Outgoing message types.
const (
	TypeAreaUpdate            = "area_update"
	TypeTick                  = "tick"
	TypeShotHistory           = "shot_history"
	TypeShotResult            = "shot_result"
	TypeTurnChanged           = "turn_changed"
	TypeBallPlacementRequired = "ball_placement_required"
	TypeGameOver              = "game_over"
	TypeJoined                = "joined"
	TypeError                 = "error"
)

// WSMessage is what clients send.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OutMessage is what the server sends.
type OutMessage struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type PoolMoveData struct {
	Cue physics.Cue `json:"cue"`
}

type PlaceCueBallData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type JoinedData struct {
	Seat int `json:"seat"`
}

func encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(OutMessage{Type: msgType, Data: data})
}
