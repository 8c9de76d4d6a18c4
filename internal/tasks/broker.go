package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Delivery is a message read by a consumer, pending until acked.
type Delivery struct {
	StreamID string
	Message  Message
	// Err is set when the entry could not be decoded.
	Err error
}

// Broker wraps a Redis client with the stream operations the queue needs.
type Broker struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewBroker creates a broker. Streams are named "<prefix>:tasks" and
// "<prefix>:tasks:dead"; maxLen > 0 trims the task stream approximately.
func NewBroker(client *redis.Client, prefix string, maxLen int64) *Broker {
	if prefix == "" {
		prefix = "portal"
	}
	return &Broker{client: client, prefix: prefix, maxLen: maxLen}
}

// Stream returns the task stream key.
func (b *Broker) Stream() string {
	return b.prefix + ":tasks"
}

// DeadLetterStream returns the key holding tasks that exhausted retries.
func (b *Broker) DeadLetterStream() string {
	return b.prefix + ":tasks:dead"
}

// Ping checks if Redis is reachable.
func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// EnsureGroup creates the consumer group if it does not exist.
func (b *Broker) EnsureGroup(ctx context.Context, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, b.Stream(), group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", group, err)
	}
	return nil
}

// Publish appends a message to the task stream.
func (b *Broker) Publish(ctx context.Context, m Message) (string, error) {
	values, err := m.values()
	if err != nil {
		return "", err
	}

	args := &redis.XAddArgs{Stream: b.Stream(), Values: values}
	if b.maxLen > 0 {
		args.MaxLen = b.maxLen
		args.Approx = true
	}

	id, err := b.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", m.Task, err)
	}
	return id, nil
}

// Read fetches new messages for a consumer. It returns nil when the block
// timeout passes with nothing to read.
func (b *Broker) Read(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]Delivery, error) {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{b.Stream(), ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", b.Stream(), err)
	}

	var out []Delivery
	for _, s := range streams {
		out = append(out, toDeliveries(s.Messages)...)
	}
	return out, nil
}

// Reclaim takes over entries another consumer (or an earlier run of this
// one) received but never acked, once they have been idle for minIdle.
func (b *Broker) Reclaim(ctx context.Context, group, consumer string, minIdle time.Duration, count int64) ([]Delivery, error) {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: b.Stream(),
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pending entries %s: %w", b.Stream(), err)
	}

	var ids []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	claimed, err := b.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   b.Stream(),
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", b.Stream(), err)
	}
	return toDeliveries(claimed), nil
}

func toDeliveries(msgs []redis.XMessage) []Delivery {
	out := make([]Delivery, 0, len(msgs))
	for _, msg := range msgs {
		m, decodeErr := decodeMessage(msg.Values)
		out = append(out, Delivery{StreamID: msg.ID, Message: m, Err: decodeErr})
	}
	return out
}

// Ack acknowledges processed entries.
func (b *Broker) Ack(ctx context.Context, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return b.client.XAck(ctx, b.Stream(), group, ids...).Err()
}

// DeadLetter records a failed message with its last error.
func (b *Broker) DeadLetter(ctx context.Context, m Message, cause error) error {
	values, err := m.values()
	if err != nil {
		values = map[string]any{fieldID: m.ID, fieldTask: m.Task}
	}
	values[fieldError] = cause.Error()

	return b.client.XAdd(ctx, &redis.XAddArgs{Stream: b.DeadLetterStream(), Values: values}).Err()
}

// Pending returns the number of delivered but unacked entries for group.
func (b *Broker) Pending(ctx context.Context, group string) (int64, error) {
	p, err := b.client.XPending(ctx, b.Stream(), group).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("pending %s: %w", b.Stream(), err)
	}
	return p.Count, nil
}

// Len returns the task stream length.
func (b *Broker) Len(ctx context.Context) (int64, error) {
	return b.client.XLen(ctx, b.Stream()).Result()
}

// DeadLetterEntry is a task that failed for good.
type DeadLetterEntry struct {
	StreamID string `json:"stream_id"`
	TaskID   string `json:"task_id"`
	Task     string `json:"task"`
	Error    string `json:"error"`
}

// DeadLetters returns up to count dead-lettered entries, newest first.
func (b *Broker) DeadLetters(ctx context.Context, count int64) ([]DeadLetterEntry, error) {
	msgs, err := b.client.XRevRangeN(ctx, b.DeadLetterStream(), "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.DeadLetterStream(), err)
	}

	out := make([]DeadLetterEntry, 0, len(msgs))
	for _, msg := range msgs {
		e := DeadLetterEntry{StreamID: msg.ID}
		e.TaskID, _ = msg.Values[fieldID].(string)
		e.Task, _ = msg.Values[fieldTask].(string)
		e.Error, _ = msg.Values[fieldError].(string)
		out = append(out, e)
	}
	return out, nil
}
