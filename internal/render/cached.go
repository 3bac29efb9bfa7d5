package render

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gmatprep/internal/content"
)

// LookupFunc observes cache lookups; result is "hit", "miss" or "error".
type LookupFunc func(backend, result string)

// CachedRenderer memoises Renderer.Lesson in a Cache keyed by lesson key
// and content hash, so edits to a lesson never serve a stale view.
type CachedRenderer struct {
	renderer *Renderer
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
	onLookup LookupFunc
	group    singleflight.Group
}

// NewCachedRenderer wraps renderer with cache. A nil logger discards logs.
func NewCachedRenderer(renderer *Renderer, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRenderer{
		renderer: renderer,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.Named("render"),
	}
}

// OnLookup sets the lookup observer. Not safe to call while serving.
func (c *CachedRenderer) OnLookup(fn LookupFunc) {
	c.onLookup = fn
}

// Backend reports the cache backend name.
func (c *CachedRenderer) Backend() string {
	return c.cache.Backend()
}

func cacheKey(lesson *content.Lesson) string {
	return lesson.Key() + "@" + lesson.Hash
}

// Lesson returns the rendered view of lesson. Cache failures are logged
// and fall through to rendering.
func (c *CachedRenderer) Lesson(ctx context.Context, lesson *content.Lesson) (*LessonView, error) {
	key := cacheKey(lesson)

	if view, ok := c.lookup(ctx, key); ok {
		return view, nil
	}

	// the flight outlives any one caller; each caller still stops on its own ctx
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		view, err := c.renderer.Lesson(flightCtx, lesson)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(view)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(flightCtx, key, payload, c.ttl); err != nil {
			c.logger.Warn("render cache write failed", zap.String("key", key), zap.Error(err))
		}
		return view, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*LessonView), nil
	}
}

func (c *CachedRenderer) lookup(ctx context.Context, key string) (*LessonView, bool) {
	payload, found, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.observe("error")
		c.logger.Warn("render cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case !found:
		c.observe("miss")
		return nil, false
	}

	var view LessonView
	if err := json.Unmarshal(payload, &view); err != nil {
		c.observe("error")
		c.logger.Warn("render cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	c.observe("hit")
	return &view, true
}

func (c *CachedRenderer) observe(result string) {
	if c.onLookup != nil {
		c.onLookup(c.cache.Backend(), result)
	}
}
