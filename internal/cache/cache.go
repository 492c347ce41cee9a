// Package cache stores computed leaderboards so repeated reads of a game's
// board skip the join and aggregation queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"speedrun/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache is implemented by Redis and Nop.
//
// Get also returns the game's current generation. Set stores rows under the
// generation the caller read before querying the database, so a board built
// while an invalidation ran is never served afterwards.
type LeaderboardCache interface {
	Get(ctx context.Context, gameID uint, variant string) (rows []models.RecordView, gen int64, ok bool)
	Set(ctx context.Context, gameID uint, gen int64, variant string, rows []models.RecordView)
	InvalidateGame(ctx context.Context, gameID uint)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, uint, string) ([]models.RecordView, int64, bool) { return nil, 0, false }
func (Nop) Set(context.Context, uint, int64, string, []models.RecordView)        {}
func (Nop) InvalidateGame(context.Context, uint)                                 {}

// Redis keeps leaderboards under leaderboard:game:<id>:board:<gen>:<variant>
// and the game's generation under leaderboard:game:<id>:gen.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis parses a redis:// URL and pings the server.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func genKey(gameID uint) string {
	return fmt.Sprintf("leaderboard:game:%d:gen", gameID)
}

func boardKey(gameID uint, gen int64, variant string) string {
	return fmt.Sprintf("leaderboard:game:%d:board:%d:%s", gameID, gen, variant)
}

func (r *Redis) generation(ctx context.Context, gameID uint) (int64, error) {
	gen, err := r.client.Get(ctx, genKey(gameID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) Get(ctx context.Context, gameID uint, variant string) ([]models.RecordView, int64, bool) {
	gen, err := r.generation(ctx, gameID)
	if err != nil {
		log.Printf("leaderboard cache generation: %v", err)
		return nil, 0, false
	}
	data, err := r.client.Get(ctx, boardKey(gameID, gen, variant)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("leaderboard cache get: %v", err)
		}
		return nil, gen, false
	}
	var rows []models.RecordView
	if err := json.Unmarshal(data, &rows); err != nil {
		log.Printf("leaderboard cache decode: %v", err)
		return nil, gen, false
	}
	return rows, gen, true
}

func (r *Redis) Set(ctx context.Context, gameID uint, gen int64, variant string, rows []models.RecordView) {
	data, err := json.Marshal(rows)
	if err != nil {
		log.Printf("leaderboard cache encode: %v", err)
		return
	}
	if err := r.client.Set(ctx, boardKey(gameID, gen, variant), data, r.ttl).Err(); err != nil {
		log.Printf("leaderboard cache set: %v", err)
	}
}

// InvalidateGame moves the game to a new generation and drops the boards
// stored so far.
func (r *Redis) InvalidateGame(ctx context.Context, gameID uint) {
	if err := r.client.Incr(ctx, genKey(gameID)).Err(); err != nil {
		log.Printf("leaderboard cache bump generation: %v", err)
		return
	}
	iter := r.client.Scan(ctx, 0, fmt.Sprintf("leaderboard:game:%d:board:*", gameID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("leaderboard cache scan: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("leaderboard cache invalidate: %v", err)
	}
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
