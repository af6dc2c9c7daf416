// Package modelcache keeps trained artifacts keyed by (cutoff, excluded games)
// for the current dataset freshness token. Invalidate drops them all and
// adopts the next token.
package modelcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/okian/matchday/internal/domain/training"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const defaultMaxSize = 32

// BuildFunc trains an artifact for the given options.
type BuildFunc func(ctx context.Context, opts training.Options) (*training.Artifact, error)

// node is one entry of the insertion-ordered list; head is the newest.
type node struct {
	key  string
	art  *training.Artifact
	next *node
}

// Cache is safe for concurrent use. Readers share an RWMutex and never block
// each other; concurrent misses for the same (token, key) run one build.
type Cache struct {
	mu       sync.RWMutex
	token    string
	entries  map[string]*node
	head     *node
	maxSize  int
	size     atomic.Int64
	onDemand bool

	build  BuildFunc
	group  singleflight.Group
	logger logger.Logger
}

// New creates a cache that trains missing artifacts with build.
func New(build BuildFunc, opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*node),
		maxSize:  defaultMaxSize,
		onDemand: true,
		build:    build,
		logger:   logger.Get().Named("modelcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the freshness token the cached artifacts belong to.
func (c *Cache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Size returns the number of cached artifacts.
func (c *Cache) Size() int64 {
	return c.size.Load()
}

// Get returns the cached artifact for opts under token, if any.
func (c *Cache) Get(token string, opts training.Options) (*training.Artifact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if token != c.token {
		return nil, false
	}
	n, ok := c.entries[opts.Key()]
	if !ok {
		return nil, false
	}
	return n.art, true
}

// GetOrBuild returns the artifact for opts, training it on a miss. Only
// Invalidate moves the cache to a new token: a request carrying any other
// token is served a fresh build that is never stored.
//
// The shared build runs detached from the caller that started it, so one
// caller giving up neither fails the others nor discards the artifact. Each
// caller stops waiting when its own ctx ends.
func (c *Cache) GetOrBuild(ctx context.Context, token string, opts training.Options) (*training.Artifact, error) {
	if art, ok := c.Get(token, opts); ok {
		metrics.RecordModelCacheHit()
		return art, nil
	}
	metrics.RecordModelCacheMiss()
	if !c.onDemand || c.build == nil {
		return nil, fmt.Errorf("lookup %q: %w", opts.Key(), ErrModelUnavailable)
	}

	key := opts.Key()
	if current := c.Token(); current != token {
		c.logger.Debug(ctx, "token is not current; artifact will not be cached",
			logger.String("token", token),
			logger.String("current", current),
			logger.String("key", key))
	}
	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(token+"#"+key, func() (interface{}, error) {
		art, err := c.build(buildCtx, opts)
		if err != nil {
			return nil, err
		}
		c.Put(token, art)
		return art, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug(ctx, "coalesced model build", logger.String("key", key))
		}
		return res.Val.(*training.Artifact), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put stores art under its key. Artifacts built for a stale token are dropped.
func (c *Cache) Put(token string, art *training.Artifact) {
	if art == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		return
	}
	if n, ok := c.entries[art.Key]; ok {
		n.art = art
		return
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	n := &node{key: art.Key, art: art, next: c.head}
	c.head = n
	c.entries[art.Key] = n
	c.size.Add(1)
	metrics.UpdateModelCacheSize(int(c.size.Load()))
}

// Invalidate drops every artifact and adopts token as current.
func (c *Cache) Invalidate(ctx context.Context, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		return
	}
	dropped := len(c.entries)
	c.entries = make(map[string]*node)
	c.head = nil
	c.size.Store(0)
	c.token = token
	metrics.RecordModelCacheInvalidation()
	metrics.UpdateModelCacheSize(0)
	c.logger.Info(ctx, "model cache invalidated",
		logger.String("token", token),
		logger.Int("dropped", dropped))
}

// evictOldest removes the tail of the list. Must be called with c.mu held.
func (c *Cache) evictOldest() {
	if c.head == nil {
		return
	}
	if c.head.next == nil {
		delete(c.entries, c.head.key)
		c.head = nil
		c.size.Add(-1)
		metrics.RecordModelCacheEviction()
		return
	}
	prev := c.head
	for prev.next.next != nil {
		prev = prev.next
	}
	delete(c.entries, prev.next.key)
	prev.next = nil
	c.size.Add(-1)
	metrics.RecordModelCacheEviction()
}
