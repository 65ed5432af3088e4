package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionQueue is a Redis list holding definition IDs that are waiting
// to be delivered to the remote Jobs API.
type SubmissionQueue struct {
	client    *redis.Client
	queueName string
}

func NewSubmissionQueue(client *redis.Client) *SubmissionQueue {
	return &SubmissionQueue{
		client:    client,
		queueName: "jobforge:queue:pending",
	}
}

// Push appends a definition ID to the pending list.
func (q *SubmissionQueue) Push(ctx context.Context, definitionID string) error {
	return q.client.RPush(ctx, q.queueName, definitionID).Err()
}

// Pop removes and returns the oldest pending definition ID, blocking until
// one is available or ctx is cancelled.
func (q *SubmissionQueue) Pop(ctx context.Context) (string, error) {
	result, err := q.client.BLPop(ctx, 0*time.Second, q.queueName).Result()
	if err != nil {
		return "", err
	}
	// result holds the key name followed by the popped element.
	return result[1], nil
}
