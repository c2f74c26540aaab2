package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/game"
)

const (
	areaKeyPrefix    = "pool_area:"
	historyKeyPrefix = "pool_history:"
	// historyKeep is how many shots of history each area retains.
	historyKeep = 50
)

// Store keeps area snapshots as JSON and shot histories as msgpack lists.
// Both expire after ttl of inactivity.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{rdb: rdb, ttl: ttl, logger: logger}
}

func areaKey(id string) string    { return areaKeyPrefix + id }
func historyKey(id string) string { return historyKeyPrefix + id }

// SaveArea writes the snapshot under pool_area:<id>.
func (s *Store) SaveArea(ctx context.Context, model game.PoolGameAreaModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal area %s: %w", model.ID, err)
	}
	if err := s.rdb.SetEx(ctx, areaKey(model.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save area %s: %w", model.ID, err)
	}
	s.logger.Debug("area saved", zap.String("area", model.ID), zap.Int("bytes", len(data)))
	return nil
}

// LoadArea returns game.ErrAreaNotFound when the key is missing or expired.
func (s *Store) LoadArea(ctx context.Context, id string) (game.PoolGameAreaModel, error) {
	var model game.PoolGameAreaModel
	data, err := s.rdb.Get(ctx, areaKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model, game.ErrAreaNotFound
	}
	if err != nil {
		return model, fmt.Errorf("load area %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &model); err != nil {
		return model, fmt.Errorf("decode area %s: %w", id, err)
	}
	return model, nil
}

// SaveHistory pushes the shot onto the area's history list, newest first,
// trimming it to the last historyKeep shots.
func (s *Store) SaveHistory(ctx context.Context, h game.ShotHistory) error {
	data, err := EncodeHistory(h)
	if err != nil {
		return err
	}
	key := historyKey(h.AreaID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, historyKeep-1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history %s/%s: %w", h.AreaID, h.ShotID, err)
	}
	s.logger.Debug("shot history saved",
		zap.String("area", h.AreaID),
		zap.String("shot_id", h.ShotID),
		zap.Int("frames", len(h.Frames)),
		zap.Int("bytes", len(data)))
	return nil
}

// RecentHistory returns up to limit shots, newest first.
func (s *Store) RecentHistory(ctx context.Context, areaID string, limit int) ([]game.ShotHistory, error) {
	if limit <= 0 || limit > historyKeep {
		limit = historyKeep
	}
	raw, err := s.rdb.LRange(ctx, historyKey(areaID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", areaID, err)
	}
	out := make([]game.ShotHistory, 0, len(raw))
	for _, r := range raw {
		h, err := DecodeHistory([]byte(r))
		if err != nil {
			s.logger.Warn("skipping unreadable shot history", zap.String("area", areaID), zap.Error(err))
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// DeleteArea removes the snapshot and history of an area.
func (s *Store) DeleteArea(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, areaKey(id), historyKey(id)).Err()
}

// EncodeHistory is the msgpack form used for stored histories.
func EncodeHistory(h game.ShotHistory) ([]byte, error) {
	data, err := msgpack.Marshal(&h)
	if err != nil {
		return nil, fmt.Errorf("encode history %s: %w", h.ShotID, err)
	}
	return data, nil
}

func DecodeHistory(data []byte) (game.ShotHistory, error) {
	var h game.ShotHistory
	if err := msgpack.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("decode history: %w", err)
	}
	return h, nil
}
