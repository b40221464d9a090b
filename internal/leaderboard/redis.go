// Package leaderboard keeps a Redis sorted set of achievement points per
// user. It is fed by completion transitions, which happen at most once per
// (user, achievement), so each unlock is counted once.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/shelfquest/achievements-backend/internal/catalog"
	"github.com/shelfquest/achievements-backend/internal/config"
)

// ErrNotRanked is returned by Rank for users with no points.
var ErrNotRanked = errors.New("user not ranked")

// DefaultKey is the sorted set used when none is configured.
const DefaultKey = "achievements:points"

// Entry is one leaderboard position. Rank is 1-based.
type Entry struct {
	Rank   int64  `json:"rank"`
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

// Leaderboard reads and writes the points sorted set.
type Leaderboard struct {
	client *redis.Client
	key    string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg config.RedisConfig) (*Leaderboard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewWithClient(client, cfg.LeaderboardKey), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, key string) *Leaderboard {
	if key == "" {
		key = DefaultKey
	}
	return &Leaderboard{client: client, key: key}
}

// Close closes the Redis connection.
func (l *Leaderboard) Close() error {
	return l.client.Close()
}

// Unlocked adds the definition's points to the user's score.
func (l *Leaderboard) Unlocked(ctx context.Context, userID string, def catalog.Definition) error {
	if def.Points <= 0 {
		return nil
	}
	score, err := l.client.ZIncrBy(ctx, l.key, float64(def.Points), userID).Result()
	if err != nil {
		return fmt.Errorf("incrementing points: %w", err)
	}
	log.Debug().
		Str("user_id", userID).
		Str("achievement_key", def.Key).
		Float64("points", score).
		Msg("leaderboard updated")
	return nil
}

// Top returns the n highest scoring users.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	results, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}
	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries = append(entries, Entry{
			Rank:   int64(i + 1),
			UserID: member,
			Points: int64(z.Score),
		})
	}
	return entries, nil
}

// Rank returns the user's position and points, or ErrNotRanked.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (Entry, error) {
	pipe := l.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, l.key, userID)
	scoreCmd := pipe.ZScore(ctx, l.key, userID)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, fmt.Errorf("getting rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotRanked
	}
	if err != nil {
		return Entry{}, fmt.Errorf("getting rank: %w", err)
	}
	score, err := scoreCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, fmt.Errorf("getting score: %w", err)
	}
	return Entry{Rank: rank + 1, UserID: userID, Points: int64(score)}, nil
}
