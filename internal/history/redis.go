package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	recentKey    = "trades:recent"
	eventChannel = "trades:events"

	// recentLimit bounds the recent-trades list length.
	recentLimit = 200
)

// RedisRecorder keeps a capped list of recent trades and publishes each one
// on a pub/sub channel for live consumers.
type RedisRecorder struct {
	client redis.Cmdable
}

func NewRedisRecorder(client redis.Cmdable) (*RedisRecorder, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisRecorder{client: client}, nil
}

func (r *RedisRecorder) Record(ctx context.Context, rec *TradeRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trade record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, recentKey, b)
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
	pipe.Publish(ctx, eventChannel, b)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recently recorded trades, newest
// first.
func (r *RedisRecorder) Recent(ctx context.Context, limit int) ([]*TradeRecord, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}

	vals, err := r.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}

	out := make([]*TradeRecord, 0, len(vals))
	for _, v := range vals {
		var rec TradeRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}
