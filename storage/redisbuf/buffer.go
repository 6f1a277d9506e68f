// Package redisbuf parks invocation-log entries that the primary sink
// rejected, so a later drain can replay them. Entries expire after a day;
// losing observability rows is preferable to unbounded queue growth.
package redisbuf

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/toolguard/metrics"
	"github.com/vietddude/toolguard/recorder"
)

// entryTTL bounds how long a parked entry stays replayable.
const entryTTL = 24 * time.Hour

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Buffer is a Redis-backed retry-later queue for invocation-log entries.
type Buffer struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Buffer, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Buffer{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (b *Buffer) Close() error {
	return b.rdb.Close()
}

func queueKey() string {
	return "invocation_buffer"
}

func entryKey(id string) string {
	return fmt.Sprintf("invocation_entry:%s", id)
}

// Park stores an entry for later replay. Oldest entries drain first.
func (b *Buffer) Park(ctx context.Context, entry *recorder.InvocationLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if err := b.rdb.Set(ctx, entryKey(entry.ID), data, entryTTL).Err(); err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}

	if err := b.rdb.ZAdd(ctx, queueKey(), redis.Z{
		Score:  float64(entry.StartedAt.UnixMilli()),
		Member: entry.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	metrics.BufferedEntries.Inc()
	return nil
}

// Drain replays up to limit parked entries into sink, oldest first. It stops
// at the first insert failure so a still-broken sink doesn't spin the queue.
// limit <= 0 drains everything.
func (b *Buffer) Drain(ctx context.Context, sink recorder.Store, limit int) (int, error) {
	drained := 0
	for limit <= 0 || drained < limit {
		ids, err := b.rdb.ZRange(ctx, queueKey(), 0, 0).Result()
		if err != nil {
			return drained, fmt.Errorf("zrange failed: %w", err)
		}
		if len(ids) == 0 {
			return drained, nil
		}
		id := ids[0]

		data, err := b.rdb.Get(ctx, entryKey(id)).Bytes()
		if err == redis.Nil {
			// Payload expired but ID still queued, drop it.
			b.rdb.ZRem(ctx, queueKey(), id)
			metrics.BufferedEntries.Dec()
			continue
		}
		if err != nil {
			return drained, fmt.Errorf("failed to get entry: %w", err)
		}

		var entry recorder.InvocationLogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return drained, fmt.Errorf("failed to unmarshal entry: %w", err)
		}

		if err := sink.Insert(ctx, &entry); err != nil {
			return drained, fmt.Errorf("failed to replay entry %s: %w", id, err)
		}

		if err := b.rdb.ZRem(ctx, queueKey(), id).Err(); err != nil {
			return drained, fmt.Errorf("failed to remove from queue: %w", err)
		}
		if err := b.rdb.Del(ctx, entryKey(id)).Err(); err != nil {
			return drained, fmt.Errorf("failed to delete entry: %w", err)
		}
		metrics.BufferedEntries.Dec()
		drained++
	}
	return drained, nil
}

// Len returns the number of parked entries.
func (b *Buffer) Len(ctx context.Context) (int64, error) {
	count, err := b.rdb.ZCard(ctx, queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return count, nil
}
