package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobTypeEmailRemito = "email_remito"

	// MaxAttempts is the number of deliveries before a job goes to the DLQ.
	MaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobHandler processes one job payload. A returned error schedules a retry
// until MaxAttempts is reached.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueRemitoEmail pushes a "send remito by e-mail" job.
func (d *Dispatcher) EnqueueRemitoEmail(ctx context.Context, remitoID uint, toEmail string) error {
	return d.enqueue(ctx, QueueEmail, Job{ID: uuid.NewString(), Type: JobTypeEmailRemito}, EmailJobPayload{RemitoID: remitoID, ToEmail: toEmail})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return errors.New("dispatcher: redis no disponible")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]JobHandler
	queues   []string
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, handlers map[string]JobHandler) *Pool {
	return &Pool{rdb: rdb, handlers: handlers, queues: []string{QueueEmail}}
}

// Start launches numWorkers goroutines plus the retry scheduler. Each worker
// blocks on BRPOP, so it uses no CPU when idle. Cancel ctx and call Wait to drain.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runRetryCron(ctx)
	}()
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

// Wait blocks until every worker goroutine has returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.ProcessJob(ctx, result[0], result[1])
		}
	}
}

// ProcessJob runs one raw job taken from queue. Failures are scheduled for a
// delayed retry with an incremented attempt count; the last failure moves the
// job to the DLQ.
func (p *Pool) ProcessJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, Job{Type: "desconocido", Payload: quoted}, err.Error())
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "tipo de job sin handler")
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		log.Info().Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts).Msg("job processed")
		return
	}

	if job.Attempts >= MaxAttempts || errors.Is(err, ErrPermanente) {
		SendToDLQ(ctx, p.rdb, queue, job, err.Error())
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).
		Dur("retry_in", RetryBackoff(job.Attempts)).Msg("job failed, retry scheduled")
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error().Err(mErr).Msg("failed to re-encode job")
		return
	}
	if sErr := scheduleRetry(ctx, p.rdb, queue, encoded, job.Attempts); sErr != nil {
		log.Error().Err(sErr).Str("queue", queue).Msg("failed to schedule retry")
	}
}

// ErrPermanente marks failures that retrying cannot fix, such as a malformed
// payload; those jobs skip straight to the DLQ.
var ErrPermanente = errors.New("worker: fallo permanente")
