package typing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one sorted set per conversation, member = user ID, score = unix millis
// of the last signal. It is shared by every API instance.
type RedisStore struct {
	cli *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(cli *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cli: cli, ttl: ttl}
}

func key(conversationID int64) string {
	return fmt.Sprintf("hubtc:typing:%d", conversationID)
}

func (s *RedisStore) Touch(ctx context.Context, conversationID, userID int64, at time.Time) error {
	k := key(conversationID)
	pipe := s.cli.TxPipeline()
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(at.UnixMilli()), Member: strconv.FormatInt(userID, 10)})
	// the whole set expires once nobody has typed for two TTLs
	pipe.PExpire(ctx, k, 2*s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("typing touch: %w", err)
	}
	return nil
}

func (s *RedisStore) Active(ctx context.Context, conversationID int64, since time.Time) ([]Signal, error) {
	k := key(conversationID)
	minScore := since.UnixMilli()

	if err := s.cli.ZRemRangeByScore(ctx, k, "-inf", "("+strconv.FormatInt(minScore, 10)).Err(); err != nil {
		return nil, fmt.Errorf("typing sweep: %w", err)
	}

	entries, err := s.cli.ZRevRangeByScoreWithScores(ctx, k, &redis.ZRangeBy{
		Min: strconv.FormatInt(minScore, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("typing range: %w", err)
	}

	signals := make([]Signal, 0, len(entries))
	for _, z := range entries {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		signals = append(signals, Signal{UserID: userID, At: time.UnixMilli(int64(z.Score))})
	}
	sortSignals(signals)
	return signals, nil
}
