package events

import (
	"context"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hermeshr/tenancy/pkg/redis"
)

// Stream is the consumer-group view of the event stream.
type Stream interface {
	// Setup creates the stream and consumer group when missing.
	Setup(ctx context.Context) error
	// Pending returns entries delivered to this consumer earlier and never
	// acknowledged.
	Pending(ctx context.Context) ([]redis.StreamMessage, error)
	// Read waits for new entries.
	Read(ctx context.Context) ([]redis.StreamMessage, error)
	// Claim takes over entries left unacknowledged by any consumer for too long.
	Claim(ctx context.Context) ([]redis.StreamMessage, error)
	Ack(ctx context.Context, ids ...string) error
}

// StreamConfig describes the Redis stream carrying tenant lifecycle events.
type StreamConfig struct {
	Stream string `env:"EVENTS_STREAM" envDefault:"tenant-events"`
	Group  string `env:"EVENTS_GROUP" envDefault:"tenancy"`
	// Consumer names this process within the group; defaults to the host name.
	Consumer string `env:"EVENTS_CONSUMER"`
	// Batch is the maximum number of entries per read.
	Batch int64 `env:"EVENTS_BATCH_SIZE" envDefault:"10"`
	// Block is how long a read waits for new entries.
	Block time.Duration `env:"EVENTS_BLOCK" envDefault:"5s"`
	// MinIdle is the age after which unacknowledged entries are reclaimed.
	MinIdle time.Duration `env:"EVENTS_CLAIM_MIN_IDLE" envDefault:"1m"`
}

// RedisStream implements Stream on a Redis consumer group.
type RedisStream struct {
	client goredis.UniversalClient
	cfg    StreamConfig
}

// NewRedisStream binds cfg to client.
func NewRedisStream(client goredis.UniversalClient, cfg StreamConfig) *RedisStream {
	if cfg.Consumer == "" {
		cfg.Consumer, _ = os.Hostname()
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 10
	}
	return &RedisStream{client: client, cfg: cfg}
}

func (s *RedisStream) Setup(ctx context.Context) error {
	return redis.EnsureGroup(ctx, s.client, s.cfg.Stream, s.cfg.Group)
}

func (s *RedisStream) Pending(ctx context.Context) ([]redis.StreamMessage, error) {
	return redis.ReadGroup(ctx, s.client, s.cfg.Stream, s.cfg.Group, s.cfg.Consumer, "0", s.cfg.Batch, -1)
}

func (s *RedisStream) Read(ctx context.Context) ([]redis.StreamMessage, error) {
	return redis.ReadGroup(ctx, s.client, s.cfg.Stream, s.cfg.Group, s.cfg.Consumer, ">", s.cfg.Batch, s.cfg.Block)
}

func (s *RedisStream) Claim(ctx context.Context) ([]redis.StreamMessage, error) {
	return redis.Claim(ctx, s.client, s.cfg.Stream, s.cfg.Group, s.cfg.Consumer, s.cfg.MinIdle, s.cfg.Batch)
}

func (s *RedisStream) Ack(ctx context.Context, ids ...string) error {
	return redis.Ack(ctx, s.client, s.cfg.Stream, s.cfg.Group, ids...)
}

// Publisher appends events to the stream.
type Publisher struct {
	client goredis.UniversalClient
	stream string
}

// NewPublisher creates a publisher for stream.
func NewPublisher(client goredis.UniversalClient, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Publish appends e and returns the stream entry id.
func (p *Publisher) Publish(ctx context.Context, e Event) (string, error) {
	return redis.Publish(ctx, p.client, p.stream, e.Values())
}
