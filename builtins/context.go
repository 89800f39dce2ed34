package builtins

import (
	"context"
	"math/rand"
	"time"

	"github.com/wippyai/opa-wasm-runtime/value"
)

// Context carries the ambient state handlers may use: the Go context of
// the current evaluate call, a wall clock, a random number source, and a
// per-evaluation cache for builtins whose results must be stable within
// one query (uuid.rfc4122, rand.intn).
//
// BeginEvaluation resets the cache and samples the clock once; handlers
// observe the frozen time through Now for the rest of the evaluation.
type Context struct {
	std   context.Context
	clock func() time.Time
	rng   *rand.Rand
	cache map[string]value.Value
	now   time.Time
}

// Option configures a Context.
type Option func(*Context)

// WithClock overrides the wall clock source.
func WithClock(clock func() time.Time) Option {
	return func(c *Context) { c.clock = clock }
}

// WithSeed makes the random source deterministic.
func WithSeed(seed int64) Option {
	return func(c *Context) { c.rng = rand.New(rand.NewSource(seed)) }
}

// NewContext creates an evaluation context with a real clock and a
// time-seeded random source.
func NewContext(opts ...Option) *Context {
	c := &Context{
		std:   context.Background(),
		clock: time.Now,
		cache: make(map[string]value.Value),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.now = c.clock()
	return c
}

// NewTestContext creates a context with a fixed clock and a seeded random
// source, for deterministic tests.
func NewTestContext() *Context {
	return NewContext(
		WithClock(func() time.Time {
			return time.Date(2020, 7, 14, 12, 53, 22, 0, time.UTC)
		}),
		WithSeed(0),
	)
}

// BeginEvaluation resets per-evaluation state. The runtime calls it at
// the start of every evaluate.
func (c *Context) BeginEvaluation() {
	c.cache = make(map[string]value.Value)
	c.now = c.clock()
}

// Now returns the clock value frozen at evaluation start.
func (c *Context) Now() time.Time {
	return c.now
}

// Rand returns the ambient random source.
func (c *Context) Rand() *rand.Rand {
	return c.rng
}

// CacheGet returns the cached value stored under key in this evaluation.
func (c *Context) CacheGet(key string) (value.Value, bool) {
	v, ok := c.cache[key]
	return v, ok
}

// CacheSet stores a value under key for the rest of this evaluation.
func (c *Context) CacheSet(key string, v value.Value) {
	c.cache[key] = v
}

// StdContext returns the Go context of the current evaluate call.
func (c *Context) StdContext() context.Context {
	return c.std
}

// SetStdContext attaches the Go context of the current evaluate call.
func (c *Context) SetStdContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.std = ctx
}
