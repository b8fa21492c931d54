package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"distillery/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueExport = "jobs:export"

	jobTypeExport = "export"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

var _ service.ExportQueue = (*Dispatcher)(nil)

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueExport pushes a purchasing workbook job to Redis.
func (d *Dispatcher) EnqueueExport(ctx context.Context, job service.ExportJob) error {
	return d.enqueue(ctx, QueueExport, jobTypeExport, job)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// StartWorkerPool launches numWorkers goroutines consuming the export queue.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, exports *ExportWorker) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, exports, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, exports *ExportWorker, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueExport).Result()
			if err != nil {
				if !afterPopError(ctx, err, id) {
					return
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			if err := processJob(ctx, exports, result[1]); err != nil {
				var job Job
				_ = json.Unmarshal([]byte(result[1]), &job)
				SendToDLQ(ctx, rdb, result[0], job, err.Error())
			}
		}
	}
}

// popBackoff is how long a worker waits after Redis itself failed.
var popBackoff = 2 * time.Second

// afterPopError handles a failed BRPOP. An empty queue (redis.Nil) retries at
// once; any other error waits popBackoff first. It returns false once ctx is done.
func afterPopError(ctx context.Context, err error, id int) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, redis.Nil) {
		return true
	}
	log.Warn().Err(err).Int("worker", id).Dur("backoff", popBackoff).Msg("queue pop failed")
	select {
	case <-ctx.Done():
		return false
	case <-time.After(popBackoff):
		return true
	}
}

func processJob(ctx context.Context, exports *ExportWorker, raw string) error {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}
	switch job.Type {
	case jobTypeExport:
		var payload service.ExportJob
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal export payload: %w", err)
		}
		return exports.Handle(ctx, payload)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}
