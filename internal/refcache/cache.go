// Package refcache holds the TTL-bounded reference cache for webhook
// event names. The upstream endpoint that lists available events is
// optional and occasionally flaky across Vikunja versions, so reads
// degrade through three tiers instead of failing: fresh cache, stale
// cache, static default list. Get never returns an error.
package refcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTTL bounds how long a fetched event list is considered fresh.
const DefaultTTL = 5 * time.Minute

// FetchFunc retrieves the current event list from the upstream API.
type FetchFunc func(ctx context.Context) ([]string, error)

// entry is the single cached reference set. Stale entries (past
// expiresAt) are kept, not discarded: they are the second fallback tier.
type entry struct {
	values    []string
	fetchedAt time.Time
	expiresAt time.Time
}

// EventCache owns the process-wide event reference set. One instance is
// constructed at startup and shared by all webhook operations.
type EventCache struct {
	mu       sync.Mutex
	fetch    FetchFunc
	ttl      time.Duration
	fallback []string
	entry    *entry
}

// New creates an event cache over the given fetcher. fallback replaces
// the built-in default list when non-nil (e.g. loaded from an events
// override file); the cache starts empty either way.
func New(fetch FetchFunc, fallback []string) *EventCache {
	if fallback == nil {
		fallback = DefaultEvents()
	}
	return &EventCache{
		fetch:    fetch,
		ttl:      DefaultTTL,
		fallback: fallback,
	}
}

// Get returns a usable reference set, always. Fresh entries are served
// without I/O. Stale or missing entries trigger a refetch; on failure
// the cache degrades per tier: a "feature absent" upstream answer (401,
// 403, 404) installs the fallback list with a fresh TTL, any other
// failure serves stale values unchanged when present, and only an empty
// cache falls through to the fallback list.
//
// The lock is held across the fetch, so concurrent stale observers wait
// for one refresh instead of racing. A hung fetch blocks callers for as
// long as the underlying transport allows; there is no extra timeout
// here.
func (c *EventCache) Get(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.entry != nil && now.Before(c.entry.expiresAt) {
		return cloneValues(c.entry.values)
	}

	values, err := c.fetch(ctx)
	if err == nil {
		c.install(values, now)
		return cloneValues(values)
	}

	if isFeatureAbsent(err) {
		log.Debug().Err(err).Msg("webhook events endpoint unavailable, using default event list")
		c.install(c.fallback, now)
		return cloneValues(c.fallback)
	}

	if c.entry != nil {
		// Tier two: serve stale values without touching the TTL, so the
		// next read retries the fetch.
		log.Warn().Err(err).Time("fetched_at", c.entry.fetchedAt).
			Msg("webhook events fetch failed, serving stale reference set")
		return cloneValues(c.entry.values)
	}

	log.Warn().Err(err).Msg("webhook events fetch failed with empty cache, using default event list")
	c.install(c.fallback, now)
	return cloneValues(c.fallback)
}

// Reset discards the cached entry entirely, as if the process had just
// started. Exposed for deterministic tests.
func (c *EventCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// ExpireNow forces the cached entry into the stale state without
// waiting on the real clock. No-op when the cache is empty. Exposed for
// deterministic tests.
func (c *EventCache) ExpireNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil {
		c.entry.expiresAt = time.Now().Add(-time.Second)
	}
}

func (c *EventCache) install(values []string, now time.Time) {
	c.entry = &entry{
		values:    cloneValues(values),
		fetchedAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// statusCarrier matches fetch errors that carry an upstream HTTP status
// (internal/vikunja.HTTPError does).
type statusCarrier interface {
	HTTPStatus() int
}

// isFeatureAbsent reports whether the fetch failure means "this Vikunja
// instance does not expose the events endpoint" rather than a transient
// problem. 401/403 are included: older instances gate the endpoint.
func isFeatureAbsent(err error) bool {
	var sc statusCarrier
	if !errors.As(err, &sc) {
		return false
	}
	switch sc.HTTPStatus() {
	case 401, 403, 404:
		return true
	}
	return false
}

// cloneValues copies the reference set so callers cannot mutate the
// cached entry.
func cloneValues(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
