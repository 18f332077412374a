// Package leaderboard keeps lifetime trivia points in a Redis sorted set.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/scythe504/trivia-backend/internal"
)

const (
	ScoreKey = "leaderboard:score"
	NamesKey = "leaderboard:names"
)

type Entry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int64  `json:"score"`
	Rank       int64  `json:"rank"`
}

type Board interface {
	Record(ctx context.Context, scores []internal.ScoreEntry) error
	Top(ctx context.Context, limit int64) ([]Entry, error)
}

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Record adds each player's game score to their lifetime total.
func (r *Redis) Record(ctx context.Context, scores []internal.ScoreEntry) error {
	if len(scores) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range scores {
			pipe.ZIncrBy(ctx, ScoreKey, float64(s.Score), s.PlayerID)
			pipe.HSet(ctx, NamesKey, s.PlayerID, s.PlayerName)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest lifetime totals, rank 1 first.
func (r *Redis) Top(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	results, err := r.client.ZRevRangeWithScores(ctx, ScoreKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(results) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(results))
	for i, z := range results {
		ids[i] = z.Member.(string)
	}
	names, err := r.client.HMGet(ctx, NamesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard names: %w", err)
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		name, _ := names[i].(string)
		entries[i] = Entry{
			PlayerID:   ids[i],
			PlayerName: name,
			Score:      int64(z.Score),
			Rank:       int64(i) + 1,
		}
	}
	return entries, nil
}

func (r *Redis) Health(ctx context.Context) map[string]string {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return map[string]string{"redis": "down", "redis_error": err.Error()}
	}
	return map[string]string{"redis": "up"}
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Record(context.Context, []internal.ScoreEntry) error { return nil }

func (Noop) Top(context.Context, int64) ([]Entry, error) { return []Entry{}, nil }
