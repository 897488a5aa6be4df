package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const queueKey = "oracle:jobs"

// Task is what travels through Redis. Attempt counts deliveries of this
// job so the worker knows when retries are exhausted.
type Task struct {
	JobID   string `json:"job_id"`
	Attempt int    `json:"attempt"`
}

// Queue is a Redis list used as a FIFO job queue. LPUSH + BRPOP gives
// oldest-first delivery with blocking consumers.
type Queue struct {
	rdb *redis.Client
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	b, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueKey, b).Err()
}

// Dequeue blocks up to timeout for the next task. Returns false when the
// wait expired with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (Task, bool, error) {
	res, err := q.rdb.BRPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, err
	}
	// BRPOP returns [key, value]
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return Task{}, false, err
	}
	return task, true, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, queueKey).Result()
}
