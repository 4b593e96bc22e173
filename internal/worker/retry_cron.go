package worker

// retry_cron.go
// Failed jobs are not pushed straight back onto their queue: they wait in a
// sorted set (retry:{queue}) scored by the unix time of the next attempt. A
// background goroutine ticks and moves due jobs back to the queue, so a relay
// outage does not burn all attempts within seconds.

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	RetryPrefix = "retry:"

	retryTickInterval = 5 * time.Second
	retryBatchSize    = 50
	retryBase         = 30 * time.Second
	retryMax          = 10 * time.Minute
)

// RetryBackoff returns the wait before the next attempt: 30s, 60s, 120s…
// capped at 10 minutes.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := retryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= retryMax {
			return retryMax
		}
	}
	return d
}

func scheduleRetry(ctx context.Context, rdb *redis.Client, queue string, encoded []byte, attempt int) error {
	due := time.Now().Add(RetryBackoff(attempt))
	return rdb.ZAdd(ctx, RetryPrefix+queue, redis.Z{Score: float64(due.Unix()), Member: encoded}).Err()
}

// RetryPending returns how many jobs of queue are waiting for their next attempt.
func RetryPending(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.ZCard(ctx, RetryPrefix+queue).Result()
}

// PromoteDue moves jobs whose retry time is at or before now back onto queue.
// ZREM decides ownership, so several server instances can tick concurrently
// without delivering a job twice.
func PromoteDue(ctx context.Context, rdb *redis.Client, queue string, now time.Time) (int, error) {
	key := RetryPrefix + queue
	due, err := rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		removed, err := rdb.ZRem(ctx, key, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := rdb.LPush(ctx, queue, member).Err(); err != nil {
			// Put it back so the job is not lost.
			_ = rdb.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: member}).Err()
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (p *Pool) runRetryCron(ctx context.Context) {
	ticker := time.NewTicker(retryTickInterval)
	defer ticker.Stop()

	log.Info().Msg("retry_cron: started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("retry_cron: shutting down")
			return
		case <-ticker.C:
			for _, q := range p.queues {
				n, err := PromoteDue(ctx, p.rdb, q, time.Now())
				if err != nil && ctx.Err() == nil {
					log.Error().Err(err).Str("queue", q).Msg("retry_cron: failed to promote due jobs")
					continue
				}
				if n > 0 {
					log.Info().Int("count", n).Str("queue", q).Msg("retry_cron: jobs re-queued")
				}
			}
		}
	}
}
