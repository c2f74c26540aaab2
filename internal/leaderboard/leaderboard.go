package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrPlayerNotFound = errors.New("player has no recorded games")

// Entry is one leaderboard row.
type Entry struct {
	PlayerID  string    `db:"player_id" json:"playerID"`
	Wins      int       `db:"wins" json:"wins"`
	Losses    int       `db:"losses" json:"losses"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Repository stores win counts in Postgres. It satisfies game.WinRecorder.
type Repository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRepository(db *sqlx.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// RecordWin credits winnerID with a win and loserID, when known, with a loss.
// Both rows and the result log are written in one transaction.
func (r *Repository) RecordWin(ctx context.Context, winnerID, loserID string) error {
	if winnerID == "" {
		return fmt.Errorf("record win: empty winner")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pool_leaderboard (player_id, wins, losses, updated_at)
		VALUES ($1, 1, 0, NOW())
		ON CONFLICT (player_id) DO UPDATE SET
			wins = pool_leaderboard.wins + 1,
			updated_at = NOW()`, winnerID); err != nil {
		return fmt.Errorf("credit win to %s: %w", winnerID, err)
	}

	if loserID != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pool_leaderboard (player_id, wins, losses, updated_at)
			VALUES ($1, 0, 1, NOW())
			ON CONFLICT (player_id) DO UPDATE SET
				losses = pool_leaderboard.losses + 1,
				updated_at = NOW()`, loserID); err != nil {
			return fmt.Errorf("record loss for %s: %w", loserID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pool_results (winner_id, loser_id, created_at) VALUES ($1, $2, NOW())`,
		winnerID, loserID); err != nil {
		return fmt.Errorf("log result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug("leaderboard updated", zap.String("winner", winnerID), zap.String("loser", loserID))
	return nil
}

// Top returns the best players by wins. limit is clamped to [1, MaxLimit].
func (r *Repository) Top(ctx context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	entries := []Entry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT player_id, wins, losses, updated_at
		FROM pool_leaderboard
		ORDER BY wins DESC, losses ASC, player_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top %d: %w", limit, err)
	}
	return entries, nil
}

func (r *Repository) Player(ctx context.Context, playerID string) (Entry, error) {
	var e Entry
	err := r.db.GetContext(ctx, &e,
		`SELECT player_id, wins, losses, updated_at FROM pool_leaderboard WHERE player_id = $1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrPlayerNotFound
	}
	if err != nil {
		return e, fmt.Errorf("player %s: %w", playerID, err)
	}
	return e, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
