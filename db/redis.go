package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

const (
	BriefingQueueKey = "pulsebrief:queue:briefing"
	DeadLetterKey    = "pulsebrief:queue:failed"
)

func ConnectRedis(ctx context.Context, redisURL string) error {
	if redisURL == "" {
		return errors.New("REDIS_URL environment variable is not set")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	Redis = redis.NewClient(opt)

	_, err = Redis.Ping(ctx).Result()
	return err
}

func CloseRedis() {
	if Redis != nil {
		Redis.Close()
	}
}

// Job is one queued briefing request.
type Job struct {
	RequestID   string `json:"request_id"`
	Topic       string `json:"topic"`
	MaxArticles int    `json:"max_articles"`
	Attempt     int    `json:"attempt,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

func EncodeJob(job Job) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeJob(data string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if job.RequestID == "" {
		return nil, errors.New("decode job: missing request_id")
	}
	return &job, nil
}

// Queue is a FIFO of briefing jobs over a Redis list: LPUSH in, BRPOP out.
type Queue struct {
	client redis.Cmdable
	key    string
	dead   string
}

func NewQueue(client redis.Cmdable) *Queue {
	return &Queue{client: client, key: BriefingQueueKey, dead: DeadLetterKey}
}

func (q *Queue) PushJob(ctx context.Context, job Job) error {
	data, err := EncodeJob(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// PopJob blocks up to timeout. It returns nil, nil when nothing arrived.
// A payload that cannot be decoded is moved to the dead-letter list and
// reported as an error.
func (q *Queue) PopJob(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	job, err := DecodeJob(result[1])
	if err != nil {
		if dlErr := q.client.LPush(ctx, q.dead, result[1]).Err(); dlErr != nil {
			return nil, errors.Join(err, dlErr)
		}
		return nil, err
	}
	return job, nil
}

func (q *Queue) PushDeadLetter(ctx context.Context, job Job) error {
	data, err := EncodeJob(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.dead, data).Err()
}

func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
