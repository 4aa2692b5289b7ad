package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a decoded file is kept when no TTL is given.
const DefaultCacheTTL = 10 * time.Minute

// Source is anything that turns a file into text. *Extractor and
// *CachedExtractor both satisfy it.
type Source interface {
	Extract(ctx context.Context, path string) (ExtractionResult, error)
	Engine() string
}

// CachedExtractor memoizes extraction results by file content, so re-sending
// the same scan under another name does not OCR it twice.
type CachedExtractor struct {
	src     Source
	cache   *ttlcache.Cache[string, ExtractionResult]
	sfGroup singleflight.Group
	logger  *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
	sfHits atomic.Uint64
}

// CacheStats reports hit counters.
type CacheStats struct {
	Hits             uint64
	Misses           uint64
	SingleflightHits uint64
	Size             int
}

// NewCached wraps src with a content-addressed TTL cache. Call Close to stop
// the expiry loop.
func NewCached(src Source, ttl time.Duration, logger *slog.Logger) *CachedExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache := ttlcache.New(ttlcache.WithTTL[string, ExtractionResult](ttl))
	go cache.Start()
	return &CachedExtractor{src: src, cache: cache, logger: logger}
}

func (c *CachedExtractor) Engine() string { return c.src.Engine() }

func (c *CachedExtractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	key, err := ContentHash(path)
	if err != nil {
		return ExtractionResult{}, err
	}
	if item := c.cache.Get(key); item != nil {
		c.hits.Add(1)
		c.logger.Debug("ocr cache hit", "path", path, "key", key)
		return item.Value(), nil
	}

	v, err, shared := c.sfGroup.Do(key, func() (any, error) {
		c.misses.Add(1)
		res, err := c.src.Extract(WithContentHash(ctx, key), path)
		if err != nil {
			return res, err
		}
		c.cache.Set(key, res, ttlcache.DefaultTTL)
		return res, nil
	})
	if shared {
		c.sfHits.Add(1)
	}
	res, _ := v.(ExtractionResult)
	return res, err
}

// Stats returns cache statistics.
func (c *CachedExtractor) Stats() CacheStats {
	return CacheStats{
		Hits:             c.hits.Load(),
		Misses:           c.misses.Load(),
		SingleflightHits: c.sfHits.Load(),
		Size:             c.cache.Len(),
	}
}

// Close stops the expiry loop.
func (c *CachedExtractor) Close() {
	c.cache.Stop()
}

// ContentHash is the hex xxhash of the file at path.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
