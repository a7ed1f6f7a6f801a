package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SnapshotPublisher hands a submitted attempt to whatever renders its result.
type SnapshotPublisher interface {
	Publish(ctx context.Context, rec *model.SubmissionRecord) error
}

// LocalPublisher stores records directly in the result repository.
type LocalPublisher struct {
	results *repository.ResultRepository
}

// NewLocalPublisher creates a LocalPublisher.
func NewLocalPublisher(results *repository.ResultRepository) *LocalPublisher {
	return &LocalPublisher{results: results}
}

// Publish implements SnapshotPublisher.
func (p *LocalPublisher) Publish(ctx context.Context, rec *model.SubmissionRecord) error {
	return p.results.Save(ctx, rec)
}

// AttemptEvent is announced on the attempt and exam PubSub channels.
type AttemptEvent struct {
	AttemptID string             `json:"attempt_id"`
	ExamID    int                `json:"exam_id"`
	Event     string             `json:"event"`
	Reason    model.SubmitReason `json:"reason"`
}

// RedisPublisher queues records on submitted_snapshots_queue for the
// SnapshotWorker and announces the submission over PubSub.
type RedisPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb: rdb,
		log: log.With().Str("component", "snapshot_publisher").Logger(),
	}
}

// Publish implements SnapshotPublisher.
func (p *RedisPublisher) Publish(ctx context.Context, rec *model.SubmissionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	event, err := json.Marshal(AttemptEvent{
		AttemptID: rec.AttemptID.String(),
		ExamID:    rec.ExamID,
		Event:     "submitted",
		Reason:    rec.Snapshot.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.RPush(ctx, config.WorkerKey.SubmittedSnapshotsQueue, payload)
	pipe.Publish(ctx, config.CacheKey.AttemptEventsChannel(rec.AttemptID.String()), event)
	pipe.Publish(ctx, config.CacheKey.ExamEventsChannel(rec.ExamID), event)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue snapshot: %w", err)
	}

	p.log.Debug().
		Str("attempt_id", rec.AttemptID.String()).
		Msg("Snapshot queued")
	return nil
}
