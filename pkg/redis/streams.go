package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamMessage is a single entry read from a stream through a consumer group.
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]any
}

// EnsureGroup creates the consumer group, and the stream itself when it does
// not exist yet. An already existing group is not an error.
func EnsureGroup(ctx context.Context, client redis.UniversalClient, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return errors.Join(ErrStreamGroupCreate, err)
	}
	return nil
}

// Publish appends values to stream and returns the generated entry id.
func Publish(ctx context.Context, client redis.UniversalClient, stream string, values map[string]any) (string, error) {
	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", errors.Join(ErrStreamPublish, err)
	}
	return id, nil
}

// ReadGroup reads up to count entries for consumer. Use start ">" for new
// entries or "0" for entries already delivered to this consumer and not yet
// acknowledged. A negative block returns immediately.
func ReadGroup(ctx context.Context, client redis.UniversalClient, stream, group, consumer, start string, count int64, block time.Duration) ([]StreamMessage, error) {
	res, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, start},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStreamRead, err)
	}

	var msgs []StreamMessage
	for _, s := range res {
		for _, m := range s.Messages {
			msgs = append(msgs, StreamMessage{Stream: s.Stream, ID: m.ID, Values: m.Values})
		}
	}
	return msgs, nil
}

// Claim transfers entries pending longer than minIdle from any consumer of
// group to consumer.
func Claim(ctx context.Context, client redis.UniversalClient, stream, group, consumer string, minIdle time.Duration, count int64) ([]StreamMessage, error) {
	res, _, err := client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Join(ErrStreamRead, err)
	}

	msgs := make([]StreamMessage, 0, len(res))
	for _, m := range res {
		msgs = append(msgs, StreamMessage{Stream: stream, ID: m.ID, Values: m.Values})
	}
	return msgs, nil
}

// Ack acknowledges processed entries.
func Ack(ctx context.Context, client redis.UniversalClient, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return errors.Join(ErrStreamAck, err)
	}
	return nil
}
