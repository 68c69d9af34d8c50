package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"opsdash/pkg/models"
)

// DefaultKey is the list refresh jobs are queued on.
const DefaultKey = "opsdash:refresh_jobs"

// Config configures the Redis refresh queue.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
}

// Queue is a Redis list used as a FIFO job queue: RPUSH in, BLPOP out.
type Queue struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewQueue creates a Redis list-backed queue.
func NewQueue(cfg Config) (*Queue, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Queue{
		client:       client,
		key:          cfg.Key,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// Enqueue appends a refresh job.
func (q *Queue) Enqueue(ctx context.Context, job models.RefreshJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal refresh job: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push refresh job: %w", err)
	}
	return nil
}

// Pop pops one message from the list. It returns nil, nil when the block
// timeout elapses with nothing queued.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	res, err := q.client.BLPop(ctx, q.blockTimeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Len reports the queue depth.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Close closes the queue.
func (q *Queue) Close() error {
	return q.client.Close()
}
