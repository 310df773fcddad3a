package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Redis key prefixes
const (
	queuePrefix  = "queue:"
	failedPrefix = "failed:"
)

// RedisQueue dispatches jobs through Redis lists while persisting each job
// row in the database. The database row is the source of truth for status;
// Redis only carries the dispatch signal, so a flushed Redis loses no jobs.
type RedisQueue struct {
	client *redis.Client
	db     *gorm.DB
	ctx    context.Context
}

// NewRedisQueue creates a new Redis-backed queue
func NewRedisQueue(client *redis.Client, db *gorm.DB) *RedisQueue {
	return &RedisQueue{
		client: client,
		db:     db,
		ctx:    context.Background(),
	}
}

// Close closes the Redis client
func (r *RedisQueue) Close() error {
	return r.client.Close()
}

// EnqueueJob satisfies Enqueuer
func (r *RedisQueue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	return r.Enqueue(jobType, payload)
}

// Enqueue persists a job and pushes its ID onto the Redis list for its type
func (r *RedisQueue) Enqueue(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   payloadBytes,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.db.Create(&job).Error; err != nil {
		return "", err
	}

	queueName := queuePrefix + string(jobType)
	if err := r.client.LPush(r.ctx, queueName, job.ID.String()).Err(); err != nil {
		return "", fmt.Errorf("failed to add job to queue: %w", err)
	}

	return job.ID.String(), nil
}

// Dequeue blocks up to timeout waiting for a job of the given type. A nil
// job with nil error means the wait timed out.
func (r *RedisQueue) Dequeue(jobType JobType, timeout time.Duration) (*Job, error) {
	queueName := queuePrefix + string(jobType)

	result, err := r.client.BRPop(r.ctx, timeout, queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job from queue: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}

	var job Job
	if err := r.db.Where("id = ?", result[1]).First(&job).Error; err != nil {
		return nil, fmt.Errorf("failed to load dequeued job: %w", err)
	}

	if err := r.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark job processing: %w", err)
	}

	return &job, nil
}

// Complete marks a job as done and stores its result
func (r *RedisQueue) Complete(job *Job, result interface{}) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	return r.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     JobStatusCompleted,
		"result":     resultJSON,
		"updated_at": time.Now(),
	}).Error
}

// Fail marks a job as failed and records it on the failed list
func (r *RedisQueue) Fail(job *Job, cause error) error {
	if err := r.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      cause.Error(),
		"updated_at": time.Now(),
	}).Error; err != nil {
		return err
	}

	failedList := failedPrefix + string(job.Type)
	return r.client.LPush(r.ctx, failedList, job.ID.String()).Err()
}
