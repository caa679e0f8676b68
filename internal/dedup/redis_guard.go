package dedup

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lingua-prep/backend/internal/models"
)

const redisOpTimeout = 2 * time.Second

// RedisGuard backs the Guard contract with a shared TTL store so every
// instance behind a load balancer sees the same marks. Redis errors are
// logged and answered conservatively (nothing recent, nothing today); the
// state reader's history-derived check covers for a guard outage.
type RedisGuard struct {
	rdb *redis.Client
}

// NewRedisGuard connects to REDIS_ADDR-style address and verifies the
// connection before returning.
func NewRedisGuard(addr string) (*RedisGuard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisGuard{rdb: rdb}, nil
}

func (g *RedisGuard) lastKey(userID, wordID int64) string {
	return fmt.Sprintf("guard:last:%d:%d", userID, wordID)
}

func (g *RedisGuard) dayKey(userID int64, day string) string {
	return fmt.Sprintf("guard:day:%d:%s", userID, day)
}

func (g *RedisGuard) modsKey(userID int64, day string) string {
	return fmt.Sprintf("guard:mods:%d:%s", userID, day)
}

func (g *RedisGuard) recentKey(userID int64) string {
	return fmt.Sprintf("guard:recent:%d", userID)
}

func (g *RedisGuard) MarkReviewed(userID, wordID int64, module models.ModuleSource, ts time.Time, correct bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	day := dayOf(ts)
	pipe := g.rdb.Pipeline()

	last := g.lastKey(userID, wordID)
	pipe.HSet(ctx, last, map[string]interface{}{
		"module":  string(module),
		"ts":      ts.UTC().Format(time.RFC3339Nano),
		"correct": strconv.FormatBool(correct),
	})
	pipe.Expire(ctx, last, retention)

	dk := g.dayKey(userID, day)
	pipe.SAdd(ctx, dk, wordID)
	pipe.Expire(ctx, dk, 48*time.Hour)

	mk := g.modsKey(userID, day)
	pipe.SAdd(ctx, mk, string(module))
	pipe.Expire(ctx, mk, 48*time.Hour)

	rk := g.recentKey(userID)
	pipe.ZAdd(ctx, rk, redis.Z{Score: float64(ts.Unix()), Member: wordID})
	pipe.Expire(ctx, rk, retention)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[dedup] redis mark failed for user %d word %d: %v", userID, wordID, err)
	}
}

func (g *RedisGuard) GetLastReview(userID, wordID int64) (ReviewMark, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := g.rdb.HGetAll(ctx, g.lastKey(userID, wordID)).Result()
	if err != nil {
		log.Printf("[dedup] redis read failed for user %d word %d: %v", userID, wordID, err)
		return ReviewMark{}, false
	}
	if len(fields) == 0 {
		return ReviewMark{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, fields["ts"])
	if err != nil {
		return ReviewMark{}, false
	}
	correct, _ := strconv.ParseBool(fields["correct"])

	return ReviewMark{
		ModuleSource: models.ModuleSource(fields["module"]),
		Timestamp:    ts,
		Correct:      correct,
	}, true
}

func (g *RedisGuard) WasReviewedRecently(userID, wordID int64, window time.Duration) bool {
	mark, ok := g.GetLastReview(userID, wordID)
	if !ok || !mark.Correct {
		return false
	}
	return time.Since(mark.Timestamp) < window
}

func (g *RedisGuard) GetReviewedWordsToday(userID int64) []int64 {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	members, err := g.rdb.SMembers(ctx, g.dayKey(userID, dayOf(time.Now()))).Result()
	if err != nil {
		log.Printf("[dedup] redis day query failed for user %d: %v", userID, err)
		return nil
	}
	return parseWordIDs(members)
}

func (g *RedisGuard) GetWordsReviewedInLastNHours(userID int64, hours int) []int64 {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
	members, err := g.rdb.ZRangeByScore(ctx, g.recentKey(userID), &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		log.Printf("[dedup] redis recent query failed for user %d: %v", userID, err)
		return nil
	}
	return parseWordIDs(members)
}

func (g *RedisGuard) GetModulesReviewedToday(userID int64) []models.ModuleSource {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	members, err := g.rdb.SMembers(ctx, g.modsKey(userID, dayOf(time.Now()))).Result()
	if err != nil {
		log.Printf("[dedup] redis modules query failed for user %d: %v", userID, err)
		return nil
	}
	modules := make([]models.ModuleSource, 0, len(members))
	for _, m := range members {
		modules = append(modules, models.ModuleSource(m))
	}
	return modules
}

// Purge is a no-op for redis: every key carries a TTL, and stale recent-set
// members fall outside every query's score range before their key expires.
func (g *RedisGuard) Purge() {}

func parseWordIDs(members []string) []int64 {
	words := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			words = append(words, id)
		}
	}
	return words
}
