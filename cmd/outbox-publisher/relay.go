package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/metrics"
	"github.com/angelmondragon/rentals-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultIdle        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxPause           = 10 * time.Second
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type RelayParams struct {
	Outbox     config.OutboxConfig
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	Registry   registryResolver
	Metrics    *metrics.OutcomeCounter
	// Topics overrides the per-topic publisher cache. Tests only.
	Topics func(topic string) publisher
}

// Relay moves committed outbox rows onto the domain topic. Each batch is
// fetched with SKIP LOCKED, published concurrently, and marked in the same
// transaction so a crash mid-batch re-delivers rather than loses events.
type Relay struct {
	logg        *logger.Logger
	db          dbClient
	pubsub      pubSubClient
	repo        outboxRepository
	registry    registryResolver
	metrics     *metrics.OutcomeCounter
	topics      func(topic string) publisher
	cache       *topicCache
	batchSize   int
	maxAttempts int
	idle        time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		pubsub:      p.PubSub,
		repo:        p.Repository,
		registry:    p.Registry,
		metrics:     p.Metrics,
		topics:      p.Topics,
		batchSize:   positiveOr(p.Outbox.BatchSize, defaultBatchSize),
		maxAttempts: positiveOr(p.Outbox.MaxAttempts, defaultMaxAttempts),
		idle:        defaultIdle,
	}
	if p.Outbox.PollIntervalMS > 0 {
		r.idle = time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond
	}
	if r.topics == nil {
		r.cache = newTopicCache(p.PubSub)
		r.topics = r.cache.get
	}
	return r, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run drains until ctx is cancelled. A full batch is followed immediately by
// the next one; an empty batch waits one idle interval; a failed batch
// backs off exponentially.
func (r *Relay) Run(ctx context.Context) error {
	deps := []struct {
		name string
		ping func(context.Context) error
	}{{"database", r.db.Ping}, {"pubsub", r.pubsub.Ping}}
	for _, dep := range deps {
		if err := dep.ping(ctx); err != nil {
			r.logg.Error(ctx, dep.name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	defer r.cache.stop()

	pace := newPacer(r.idle, maxPause)
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}

		busy, err := r.drainOnce(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			wait = pace.failed()
		case busy:
			pace.reset()
			continue
		default:
			pace.reset()
			wait = pace.idle()
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

// verdict is what happened to one row in a batch.
type verdict struct {
	event   models.OutboxEvent
	topic   string
	outcome string
	err     error
}

// drainOnce handles one batch and reports whether any rows were found.
func (r *Relay) drainOnce(ctx context.Context) (bool, error) {
	found := false
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.repo.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		found = len(rows) > 0
		for _, v := range r.publishAll(ctx, rows) {
			if err := r.record(ctx, tx, v); err != nil {
				return err
			}
		}
		return nil
	})
	return found, err
}

// publishAll submits every row before waiting on any result so the client
// can batch them, then collects verdicts in row order.
func (r *Relay) publishAll(ctx context.Context, rows []models.OutboxEvent) []verdict {
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	verdicts := make([]verdict, len(rows))
	pending := make([]publishResult, len(rows))
	for i, row := range rows {
		verdicts[i].event = row
		resolved, err := r.registry.Resolve(row)
		if err != nil {
			verdicts[i].outcome, verdicts[i].err = metrics.OutboxParked, err
			continue
		}
		verdicts[i].topic = resolved.Descriptor.Topic
		pub := r.topics(resolved.Descriptor.Topic)
		if pub == nil {
			verdicts[i].outcome = metrics.OutboxParked
			verdicts[i].err = fmt.Errorf("no publisher for topic %s", resolved.Descriptor.Topic)
			continue
		}
		if pending[i] = pub.Publish(publishCtx, message(row, resolved)); pending[i] == nil {
			verdicts[i].outcome = metrics.OutboxParked
			verdicts[i].err = fmt.Errorf("publisher returned no result for topic %s", resolved.Descriptor.Topic)
		}
	}

	for i, res := range pending {
		if res == nil {
			continue
		}
		_, err := res.Get(publishCtx)
		verdicts[i].outcome, verdicts[i].err = r.classify(rows[i], err)
	}
	return verdicts
}

func (r *Relay) classify(row models.OutboxEvent, err error) (string, error) {
	if err == nil {
		return metrics.OutboxPublished, nil
	}
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return metrics.OutboxParked, err
	}
	if row.AttemptCount+1 >= r.maxAttempts {
		return metrics.OutboxParked, fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err)
	}
	return metrics.OutboxRetry, err
}

func (r *Relay) record(ctx context.Context, tx *gorm.DB, v verdict) error {
	r.metrics.Inc(v.outcome)
	ctx = r.logg.WithFields(ctx, map[string]any{
		"outbox_id":      v.event.ID.String(),
		"event_type":     v.event.EventType,
		"aggregate_type": v.event.AggregateType,
		"aggregate_id":   v.event.AggregateID,
		"attempt_count":  v.event.AttemptCount,
		"topic":          v.topic,
		"outcome":        v.outcome,
	})

	var err error
	switch v.outcome {
	case metrics.OutboxPublished:
		err = r.repo.MarkPublishedTx(tx, v.event.ID)
		r.logg.Debug(ctx, "outbox event published")
	case metrics.OutboxRetry:
		err = r.repo.MarkFailedTx(tx, v.event.ID, v.err)
		r.logg.Warn(r.logg.WithField(ctx, "error", v.err.Error()), "outbox publish failed, will retry")
	default:
		// Parked rows keep their last error and drop out of future batches.
		err = r.repo.MarkTerminalTx(tx, v.event.ID, v.err, r.maxAttempts)
		r.logg.Warn(r.logg.WithField(ctx, "error", v.err.Error()), "outbox event parked")
	}
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", v.outcome, v.event.ID, err)
	}
	return nil
}

func message(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID,
			"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
