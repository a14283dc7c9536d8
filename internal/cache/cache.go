package cache

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrUnavailable is returned when a value is neither cached nor fetchable.
var ErrUnavailable = errors.New("value unavailable")

// UnavailableError carries the fetch failure behind an ErrUnavailable.
type UnavailableError struct {
	Key string
	Err error
}

func (e *UnavailableError) Error() string {
	return e.Key + ": " + ErrUnavailable.Error() + ": " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// FetchFunc loads a value from the upstream API on a cache miss.
type FetchFunc func(ctx context.Context) (any, error)

// PriceCache fronts upstream lookups with a fixed-capacity LRU whose entries
// expire after a TTL set at construction. Expiry is checked on lookup.
type PriceCache struct {
	lru *expirable.LRU[string, any]
	sf  singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding at most size entries, each valid for ttl.
func New(size int, ttl time.Duration) *PriceCache {
	if size <= 0 {
		size = 100
	}
	return &PriceCache{
		lru: expirable.NewLRU[string, any](size, nil, ttl),
	}
}

// Key builds the cache key for a request URL and its query parameters.
// Parameters are encoded in sorted order so equal requests share a key.
func Key(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	return rawURL + "?" + params.Encode()
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result. Failed fetches are not cached. Concurrent misses for the same key
// share one fetch, which runs detached from any single caller's cancellation;
// a caller whose ctx ends stops waiting without failing the others.
func (c *PriceCache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		log.Debugf("cache hit for %s", key)
		return v, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		c.misses.Add(1)

		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		log.Debugf("stopped waiting for %s: %v", key, ctx.Err())
		return nil, &UnavailableError{Key: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			log.Debugf("fetch for %s failed: %v", key, res.Err)
			return nil, &UnavailableError{Key: key, Err: res.Err}
		}
		if res.Shared {
			log.Debugf("shared in-flight fetch for %s", key)
		}
		return res.Val, nil
	}
}

// Remove drops a key so the next lookup fetches again.
func (c *PriceCache) Remove(key string) {
	c.lru.Remove(key)
}

// Len reports the number of entries, including ones not yet purged.
func (c *PriceCache) Len() int {
	return c.lru.Len()
}

// Stats returns the hit and miss counts since construction.
func (c *PriceCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
