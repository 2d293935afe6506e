// Package sequence issues human-readable document numbers such as RES/0001.
package sequence

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

func format(prefix string, n int64) string {
	return fmt.Sprintf("%s/%04d", prefix, n)
}

// RedisGenerator keeps one INCR counter per prefix so app and worker
// processes draw from the same sequence.
type RedisGenerator struct {
	client redis.UniversalClient
}

func NewRedisGenerator(client redis.UniversalClient) *RedisGenerator {
	return &RedisGenerator{client: client}
}

func (g *RedisGenerator) Next(ctx context.Context, prefix string) (string, error) {
	n, err := g.client.Incr(ctx, "seq:"+prefix).Result()
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", prefix, err)
	}
	return format(prefix, n), nil
}

// Counter is a durable per-prefix counter, such as the Postgres
// number_sequences table.
type Counter interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

// CounterGenerator formats numbers drawn from a durable Counter, so a
// restarted process continues where the last one stopped.
type CounterGenerator struct {
	counter Counter
}

func NewCounterGenerator(c Counter) *CounterGenerator {
	return &CounterGenerator{counter: c}
}

func (g *CounterGenerator) Next(ctx context.Context, prefix string) (string, error) {
	n, err := g.counter.Next(ctx, prefix)
	if err != nil {
		return "", err
	}
	return format(prefix, n), nil
}

type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

func (g *MemoryGenerator) Next(ctx context.Context, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return format(prefix, g.counters[prefix]), nil
}

var (
	_ Generator = (*RedisGenerator)(nil)
	_ Generator = (*CounterGenerator)(nil)
	_ Generator = (*MemoryGenerator)(nil)
)
