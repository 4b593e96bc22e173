package worker

// dlq.go
// Jobs that exhaust MaxAttempts, or fail permanently, land in dlq:{queue}.
// An operator inspects them and, once the cause is fixed (SMTP credentials,
// client e-mail), sends them back with RequeueDLQ.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"

	// dlqMaxEntries bounds the list; the oldest entries are trimmed.
	dlqMaxEntries = 1000
)

type DLQEntry struct {
	JobID         string          `json:"job_id,omitempty"`
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// SendToDLQ records job as dead. Errors are logged, not returned: the job has
// already been consumed and there is nowhere else to put it.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := DLQEntry{
		JobID:         job.ID,
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC(),
		Attempts:      job.Attempts,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	key := DLQPrefix + queue
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, dlqMaxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: failed to push entry")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_id", job.ID).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// DLQEntries returns up to n entries, newest first.
func DLQEntries(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DLQEntry, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: entrada ilegible")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RequeueDLQ moves up to n of the oldest entries back onto queue with a fresh
// attempt count. Unreadable entries are dropped.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string, n int) (int, error) {
	key := DLQPrefix + queue
	moved := 0
	for moved < n {
		raw, err := rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: entrada ilegible descartada")
			continue
		}
		id := e.JobID
		if id == "" {
			id = uuid.NewString()
		}
		encoded, err := json.Marshal(Job{ID: id, Type: e.JobType, Payload: e.Payload})
		if err != nil {
			return moved, err
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			_ = rdb.RPush(ctx, key, raw).Err()
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		log.Info().Int("count", moved).Str("queue", queue).Msg("dlq: jobs re-queued")
	}
	return moved, nil
}
