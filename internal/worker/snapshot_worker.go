package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/exammaker/exammaker-backend/internal/config"
	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ResultStore receives submission records.
type ResultStore interface {
	Save(ctx context.Context, rec *model.SubmissionRecord) error
}

// SnapshotWorker consumes submitted_snapshots_queue and stores each record
// for the result view.
type SnapshotWorker struct {
	rdb        *redis.Client
	store      ResultStore
	log        zerolog.Logger
	queue      string
	pollWait   time.Duration
	retryDelay time.Duration
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(rdb *redis.Client, store ResultStore, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		rdb:        rdb,
		store:      store,
		log:        log.With().Str("component", "snapshot_worker").Logger(),
		queue:      config.WorkerKey.SubmittedSnapshotsQueue,
		pollWait:   time.Second,
		retryDelay: 5 * time.Second,
	}
}

// Start begins the worker loop and returns once ctx is cancelled and the
// queue has been drained. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SnapshotWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or pollWait elapses.
	result, err := w.rdb.BLPop(ctx, w.pollWait, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			w.sleep(ctx, w.pollWait)
		}
		return
	}
	if len(result) < 2 {
		return
	}

	rec, err := decodeRecord(result[1])
	if err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping item")
		return
	}

	if err := w.store.Save(ctx, rec); err != nil {
		w.log.Error().Err(err).
			Str("attempt_id", rec.AttemptID.String()).
			Dur("retry_in", w.retryDelay).
			Msg("Store error, requeueing")
		w.rdb.RPush(context.Background(), w.queue, result[1])
		w.sleep(ctx, w.retryDelay)
		return
	}

	w.log.Debug().
		Str("attempt_id", rec.AttemptID.String()).
		Str("reason", string(rec.Snapshot.Reason)).
		Msg("Snapshot stored")
}

// drain stores every record still queued before shutdown.
func (w *SnapshotWorker) drain(ctx context.Context) {
	drained := 0
	for {
		item, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}

		rec, err := decodeRecord(item)
		if err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.store.Save(ctx, rec); err != nil {
			w.log.Error().Err(err).Msg("Drain store error")
			w.rdb.RPush(ctx, w.queue, item)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func (w *SnapshotWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func decodeRecord(raw string) (*model.SubmissionRecord, error) {
	var rec model.SubmissionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
