package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/pkg/queue"
)

// ObjectDeleter removes stored media objects.
type ObjectDeleter interface {
	DeleteMedia(ctx context.Context, key string) error
}

// JobQueue is the slice of the job queue the processor drives.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// MediaCleanupProcessor deletes storage objects whose media rows were removed.
type MediaCleanupProcessor struct {
	objects ObjectDeleter
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewMediaCleanupProcessor creates a media cleanup processor.
func NewMediaCleanupProcessor(objects ObjectDeleter, q JobQueue, logger *zap.Logger) *MediaCleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaCleanupProcessor{objects: objects, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// WithBackoff overrides the pause after a failed job or dequeue.
func (p *MediaCleanupProcessor) WithBackoff(d time.Duration) *MediaCleanupProcessor {
	p.backoff = d
	return p
}

// Process executes one media_delete job.
func (p *MediaCleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMediaDelete {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MediaDeletePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Key == "" {
		p.logger.Warn("media delete job without key", zap.String("job_id", job.ID), zap.String("media_id", payload.MediaID))
		return nil
	}
	if err := p.objects.DeleteMedia(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete media %s: %w", payload.MediaID, err)
	}
	p.logger.Info("media object deleted", zap.String("media_id", payload.MediaID), zap.String("s3_key", payload.Key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *MediaCleanupProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("media worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *MediaCleanupProcessor) sleep(ctx context.Context) {
	if p.backoff <= 0 {
		return
	}
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
