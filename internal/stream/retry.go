package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 10 * time.Second
	defaultJitter     = 0.5
)

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

func IsPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

// RetryHandler retries message processing with exponential backoff and
// moves messages that keep failing to a dead-letter stream.
type RetryHandler struct {
	client        redis.Cmdable
	deadLetterKey string
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
	jitter        float64
}

type RetryOption func(*RetryHandler)

func WithBackoff(maxRetries int, baseDelay, maxDelay time.Duration) RetryOption {
	return func(h *RetryHandler) {
		h.maxRetries = maxRetries
		h.baseDelay = baseDelay
		h.maxDelay = maxDelay
	}
}

// WithJitter sets the randomization factor applied to each delay
func WithJitter(factor float64) RetryOption {
	return func(h *RetryHandler) { h.jitter = factor }
}

func NewRetryHandler(client redis.Cmdable, deadLetterKey string, opts ...RetryOption) *RetryHandler {
	h := &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxRetries:    defaultMaxRetries,
		baseDelay:     defaultBaseDelay,
		maxDelay:      defaultMaxDelay,
		jitter:        defaultJitter,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// policy doubles the delay from baseDelay up to maxDelay. Only the retry
// count ends the schedule, not elapsed time.
func (h *RetryHandler) policy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.baseDelay
	b.MaxInterval = h.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = h.jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// RetryWithBackoff runs fn until it succeeds, returns a permanent error, or
// the retries are used up. Failed messages are dead-lettered; a cancelled
// ctx returns without dead-lettering so the message stays pending.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	attempt := 0
	schedule := backoff.WithContext(backoff.WithMaxRetries(h.policy(), uint64(max(h.maxRetries, 0))), ctx)

	err := backoff.RetryNotify(func() error {
		attempt++
		return fn()
	}, schedule, func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt).
			Dur("backoff", next).
			Msg("Processing failed, retrying")
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	h.DeadLetter(ctx, messageID, fields, err)
	return fmt.Errorf("message %s failed after %d attempts: %w", messageID, attempt, err)
}

// DeadLetter copies a failed message and its error onto the dead-letter stream
func (h *RetryHandler) DeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values["original_id"] = messageID
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	if cause != nil {
		values["error"] = cause.Error()
	}

	err := h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Err()
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to write message to dead-letter stream")
		return
	}

	log.Warn().
		Str("message_id", messageID).
		Str("dead_letter_key", h.deadLetterKey).
		Msg("Message moved to dead-letter stream")
}
