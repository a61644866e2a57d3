package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/redis"
	"github.com/hermeshr/tenancy/pkg/requestid"
	"github.com/hermeshr/tenancy/pkg/schema"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

// EventHandler processes one decoded event.
type EventHandler interface {
	Handle(ctx context.Context, e Event) error
}

// Consumer reads tenant lifecycle events and runs each one as its own unit
// of work through the binder. Entries are acknowledged only after the
// handler succeeded, or when retrying could never succeed.
type Consumer struct {
	stream        Stream
	binder        *tenant.Binder
	handler       EventHandler
	route         tenant.Route
	claimInterval time.Duration
	retryInterval time.Duration
	permanent     []error
	metrics       *Metrics
	log           *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithClaimInterval sets how often stale unacknowledged entries are reclaimed.
func WithClaimInterval(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.claimInterval = d
		}
	}
}

// WithRetryInterval sets the pause after a failed stream read.
func WithRetryInterval(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithPermanentErrors adds errors after which an event is discarded
// instead of redelivered.
func WithPermanentErrors(errs ...error) ConsumerOption {
	return func(c *Consumer) { c.permanent = append(c.permanent, errs...) }
}

// WithConsumerMetrics enables consumer metrics.
func WithConsumerMetrics(m *Metrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

// WithConsumerLogger sets the consumer logger.
func WithConsumerLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.log = l
		}
	}
}

// NewConsumer creates a consumer. Events run on an exempt route: the unit of
// work starts non-tenant and handlers switch to the event's tenant
// explicitly.
func NewConsumer(stream Stream, binder *tenant.Binder, handler EventHandler, opts ...ConsumerOption) (*Consumer, error) {
	if stream == nil || binder == nil || handler == nil {
		return nil, ErrNilDependency
	}

	c := &Consumer{
		stream:        stream,
		binder:        binder,
		handler:       handler,
		route:         tenant.NewRoute(tenant.Named("tenant-events"), tenant.Exempt()),
		claimInterval: time.Minute,
		retryInterval: 5 * time.Second,
		permanent: []error{
			ErrMalformedEvent,
			ErrUnknownEventType,
			schema.ErrInvalidTenantID,
			schema.ErrDropNotAllowed,
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("events"))
	return c, nil
}

// Run consumes until ctx is cancelled. Entries this consumer left pending in
// a previous run are processed first.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.stream.Setup(ctx); err != nil {
		return err
	}

	if msgs, err := c.stream.Pending(ctx); err != nil {
		c.log.WarnContext(ctx, "Failed to read pending events", logger.Error(err))
	} else {
		c.process(ctx, msgs)
	}

	claim := time.NewTicker(c.claimInterval)
	defer claim.Stop()

	c.log.InfoContext(ctx, "Event consumer started")
	for {
		select {
		case <-ctx.Done():
			c.log.InfoContext(ctx, "Event consumer stopped")
			return nil
		case <-claim.C:
			msgs, err := c.stream.Claim(ctx)
			if err != nil {
				c.log.WarnContext(ctx, "Failed to claim stale events", logger.Error(err))
			}
			c.process(ctx, msgs)
		default:
		}

		msgs, err := c.stream.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.log.ErrorContext(ctx, "Failed to read events", logger.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(c.retryInterval):
			}
			continue
		}
		c.process(ctx, msgs)
	}
}

func (c *Consumer) process(ctx context.Context, msgs []redis.StreamMessage) {
	for _, msg := range msgs {
		if ctx.Err() != nil {
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg redis.StreamMessage) {
	log := c.log.With(logger.MessageID(msg.ID))

	e, err := Decode(msg.Values)
	if err == nil {
		log = log.With(logger.EventType(string(e.Type)), logger.Tenant(e.TenantID))
		start := time.Now()
		err = c.binder.Run(requestid.WithContext(ctx, msg.ID), c.route, func(ctx context.Context) error {
			return c.safeHandle(ctx, e)
		})
		log = log.With(logger.Duration(time.Since(start)))
	}

	switch {
	case err == nil:
		c.metrics.observe(e.Type, resultAcked)
	case c.isPermanent(err):
		log.ErrorContext(ctx, "Discarding event that cannot succeed", logger.Error(err))
		c.metrics.observe(e.Type, resultDiscarded)
	default:
		log.ErrorContext(ctx, "Event failed, leaving it for redelivery", logger.Error(err))
		c.metrics.observe(e.Type, resultFailed)
		return
	}

	if err := c.stream.Ack(ctx, msg.ID); err != nil {
		log.ErrorContext(ctx, "Failed to acknowledge event", logger.Error(err))
	}
}

// safeHandle turns a handler panic into an error so the entry stays
// pending and the consumer keeps running.
func (c *Consumer) safeHandle(ctx context.Context, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrHandlerPanicked, fmt.Errorf("%v", r))
		}
	}()
	return c.handler.Handle(ctx, e)
}

func (c *Consumer) isPermanent(err error) bool {
	for _, target := range c.permanent {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
