package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Ingester stores one notebook delivered over the stream
type Ingester interface {
	Ingest(ctx context.Context, sub *Submission) error
}

// Consumer reads notebook submissions from a Redis stream consumer group.
// Messages are acked once stored or dead-lettered; anything interrupted by
// shutdown stays in the PEL and is reclaimed later.
type Consumer struct {
	client        redis.Cmdable
	streamKey     string
	consumerGroup string
	consumerName  string
	ingester      Ingester
	retryHandler  *RetryHandler
	retention     time.Duration

	batchSize     int64
	block         time.Duration
	claimIdle     time.Duration
	claimInterval time.Duration
	trimInterval  time.Duration
}

type ConsumerOption func(*Consumer)

// WithClaim sets how long a pending message must sit idle before another
// consumer reclaims it, and how often the PEL is scanned.
func WithClaim(idle, interval time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.claimIdle = idle
		c.claimInterval = interval
	}
}

func WithBatchSize(n int64) ConsumerOption {
	return func(c *Consumer) { c.batchSize = n }
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	consumerGroup string,
	consumerName string,
	ingester Ingester,
	retryHandler *RetryHandler,
	retention time.Duration,
	opts ...ConsumerOption,
) *Consumer {
	c := &Consumer{
		client:        client,
		streamKey:     streamKey,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
		ingester:      ingester,
		retryHandler:  retryHandler,
		retention:     retention,
		batchSize:     10,
		block:         time.Second,
		claimIdle:     time.Minute,
		claimInterval: 30 * time.Second,
		trimInterval:  time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start blocks until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Str("group", c.consumerGroup).Msg("Failed to create consumer group")
	}

	// Crash recovery: anything left pending by a previous run
	c.reclaim(ctx)

	go c.trimLoop(ctx)

	lastClaim := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if time.Since(lastClaim) > c.claimInterval {
			c.reclaim(ctx)
			lastClaim = time.Now()
		}

		if err := c.readBatch(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Error reading notebook stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	// "$" means a new group only sees messages published after it exists
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	if err == nil {
		log.Info().
			Str("group", c.consumerGroup).
			Str("stream", c.streamKey).
			Msg("Created notebook consumer group")
	}
	return nil
}

// reclaim takes over messages idle in the PEL longer than claimIdle and
// processes them, walking the XAUTOCLAIM cursor to the end.
func (c *Consumer) reclaim(ctx context.Context) {
	cursor := "0-0"
	total := 0
	for ctx.Err() == nil {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.streamKey,
			Group:    c.consumerGroup,
			Consumer: c.consumerName,
			MinIdle:  c.claimIdle,
			Start:    cursor,
			Count:    c.batchSize,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warn().Err(err).Msg("Failed to reclaim pending notebook messages")
			}
			return
		}

		for i := range msgs {
			c.handle(ctx, &msgs[i])
		}
		total += len(msgs)

		if next == "0-0" || next == "" {
			break
		}
		cursor = next
	}

	if total > 0 {
		log.Info().Int("claimed", total).Msg("Reclaimed pending notebook messages")
	}
}

func (c *Consumer) readBatch(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    c.batchSize,
		Block:    c.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, s := range streams {
		if s.Stream != c.streamKey {
			continue
		}
		for i := range s.Messages {
			c.handle(ctx, &s.Messages[i])
		}
	}
	return nil
}

// handle stores one message. It returns true when the message was acked.
func (c *Consumer) handle(ctx context.Context, msg *redis.XMessage) bool {
	fields := stringFields(msg.Values)

	sub, err := ParseSubmission(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Malformed notebook message")
		c.retryHandler.DeadLetter(ctx, msg.ID, toInterfaceMap(fields), err)
		return c.ack(ctx, msg.ID)
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		return c.ingester.Ingest(ctx, sub)
	}, msg.ID, toInterfaceMap(fields))
	if err != nil && ctx.Err() != nil {
		log.Warn().Str("message_id", msg.ID).Msg("Shutdown interrupted notebook ingest, leaving message pending")
		return false
	}
	// on err the retry handler has already dead-lettered it
	return c.ack(ctx, msg.ID)
}

// trimLoop drops stream entries older than the retention window
func (c *Consumer) trimLoop(ctx context.Context) {
	ticker := time.NewTicker(c.trimInterval)
	defer ticker.Stop()

	for {
		if err := c.trim(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to trim notebook stream")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) trim(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)
	minID := fmt.Sprintf("%d-0", cutoff.UnixMilli())

	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}
	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Trimmed notebook stream")
	}
	return nil
}

func (c *Consumer) ack(ctx context.Context, messageID string) bool {
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return false
	}
	return true
}

func stringFields(values map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields
}

func toInterfaceMap(fields map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
