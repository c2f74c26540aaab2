package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/physics"
)

// readPump reads commands until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.release()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			c.sendError("Too many messages")
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage processes incoming pool game messages.
func (c *Client) handleMessage(msg WSMessage) {
	if msg.Type == TypeGetState {
		c.reply(TypeAreaUpdate, c.area.ToModel())
		return
	}
	if c.playerID == "" {
		c.sendError("Spectators cannot play")
		return
	}

	switch msg.Type {
	case TypeJoinGame:
		seat, err := c.area.JoinGame(c.playerID)
		if err != nil {
			c.sendError(errorText(err))
			return
		}
		c.reply(TypeJoined, JoinedData{Seat: seat})

	case TypeLeaveGame:
		if !c.area.RemovePlayer(c.playerID) {
			c.sendError("Not seated")
		}

	case TypeStartGame, TypeResetGame:
		c.handleStart()

	case TypePoolMove:
		var data PoolMoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handlePoolMove(data)

	case TypePlaceCueBall:
		var data PlaceCueBallData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid placement data")
			return
		}
		if err := c.area.PlaceCueBall(c.playerID, physics.NewVector3(data.X, data.Y, 0)); err != nil {
			c.sendError(errorText(err))
		}

	default:
		c.sendError("Unknown message type")
	}
}

// handleStart racks a new game. Only a seated player may do it, and only
// once both seats are filled.
func (c *Client) handleStart() {
	m := c.area.ToModel()
	if m.Player1ID != c.playerID && m.Player2ID != c.playerID {
		c.sendError("Not seated")
		return
	}
	if m.Player1ID == "" || m.Player2ID == "" {
		c.sendError("Waiting for an opponent")
		return
	}
	if err := c.area.ResetGame(); err != nil {
		c.sendError(errorText(err))
	}
}

func (c *Client) handlePoolMove(data PoolMoveData) {
	result, err := c.area.PoolMove(c.playerID, data.Cue)
	if err != nil {
		c.sendError(errorText(err))
		return
	}
	c.logger.Debug("shot played", zap.String("shot_id", result.ShotID), zap.Int("ticks", result.Ticks))
	c.reply(TypeShotResult, result)
}

// errorText turns a game error into the message sent to the player.
func errorText(err error) string {
	for _, known := range []error{
		game.ErrGameNotStarted,
		game.ErrNotYourTurn,
		game.ErrNoOpponent,
		game.ErrBallsInMotion,
		game.ErrBallInHand,
		game.ErrNotPlacingBall,
		game.ErrInvalidPlacement,
		game.ErrInvalidCue,
		game.ErrGameOver,
		game.ErrSeatTaken,
		game.ErrInvalidPlayer,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "Internal error"
}
