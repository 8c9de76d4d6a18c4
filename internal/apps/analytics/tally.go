package analytics

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// tally counts events between reports. Workers add to it and the report
// task drains it, so in broker mode it lives in Redis where every process
// sees the same counts.
type tally interface {
	Add(ctx context.Context, event string) error
	// Drain returns the counts and resets them in one step.
	Drain(ctx context.Context) (map[string]int, error)
	Total(ctx context.Context) (int, error)
}

type redisTally struct {
	client *redis.Client
	key    string
}

func newRedisTally(client *redis.Client, prefix string) *redisTally {
	return &redisTally{client: client, key: prefix + ":" + Name + ":tally"}
}

func (t *redisTally) Add(ctx context.Context, event string) error {
	if err := t.client.HIncrBy(ctx, t.key, event, 1).Err(); err != nil {
		return fmt.Errorf("increment %s: %w", t.key, err)
	}
	return nil
}

func (t *redisTally) Drain(ctx context.Context) (map[string]int, error) {
	var all *redis.MapStringStringCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, t.key)
		pipe.Del(ctx, t.key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain %s: %w", t.key, err)
	}
	return parseCounts(all.Val())
}

func (t *redisTally) Total(ctx context.Context) (int, error) {
	all, err := t.client.HGetAll(ctx, t.key).Result()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", t.key, err)
	}
	counts, err := parseCounts(all)
	if err != nil {
		return 0, err
	}
	return sum(counts), nil
}

func parseCounts(raw map[string]string) (map[string]int, error) {
	counts := make(map[string]int, len(raw))
	for event, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("count for %q: %w", event, err)
		}
		counts[event] = n
	}
	return counts, nil
}

// memoryTally serves eager mode, where the scheduler runs inside the
// serve process.
type memoryTally struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMemoryTally() *memoryTally {
	return &memoryTally{counts: make(map[string]int)}
}

func (t *memoryTally) Add(_ context.Context, event string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[event]++
	return nil
}

func (t *memoryTally) Drain(context.Context) (map[string]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := t.counts
	t.counts = make(map[string]int)
	return counts, nil
}

func (t *memoryTally) Total(context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sum(t.counts), nil
}

func sum(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
