package providers

import (
	"fsd/internal/structures"
	"strings"
)

const unknownView = "unknown"

// ViewCacheProvider counts rendered view lookups per view. Keys are built by
// the controllers as "<view>:<generation...>", so the view label is bounded
// by the set of cached views.
type ViewCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *ViewCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits(viewOf(key))
	} else {
		c.metrics.IncCacheMisses(viewOf(key))
	}
	return val, ok
}

func (c *ViewCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func viewOf(key string) string {
	view, _, found := strings.Cut(key, ":")
	if !found || view == "" {
		return unknownView
	}
	return view
}

// NewInstrumentedCacheProvider skips instrumentation when caching is off;
// every lookup would be a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &ViewCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
