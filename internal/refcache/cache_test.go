package refcache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
)

// statusErr mimics the client's HTTP error for feature-absent checks.
type statusErr struct{ status int }

func (e *statusErr) Error() string   { return fmt.Sprintf("upstream status %d", e.status) }
func (e *statusErr) HTTPStatus() int { return e.status }

// scriptedFetch returns the queued results in order and counts calls.
type scriptedFetch struct {
	t       *testing.T
	results []fetchResult
	calls   int
}

type fetchResult struct {
	values []string
	err    error
}

func (s *scriptedFetch) fetch(context.Context) ([]string, error) {
	require.Less(s.t, s.calls, len(s.results), "unexpected extra fetch")
	r := s.results[s.calls]
	s.calls++
	return r.values, r.err
}

func newScripted(t *testing.T, results ...fetchResult) *scriptedFetch {
	return &scriptedFetch{results: results, t: t}
}

func TestFreshHitSkipsFetch(t *testing.T) {
	s := newScripted(t, fetchResult{values: []string{"task.created"}})
	c := New(s.fetch, nil)

	first := c.Get(context.Background())
	second := c.Get(context.Background())

	assert.Equal(t, []string{"task.created"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.calls, "fresh entry must be served without I/O")
}

func TestExpiryTriggersRefetch(t *testing.T) {
	s := newScripted(t,
		fetchResult{values: []string{"task.created"}},
		fetchResult{values: []string{"task.created", "task.updated"}},
	)
	c := New(s.fetch, nil)

	assert.Equal(t, []string{"task.created"}, c.Get(context.Background()))
	c.ExpireNow()
	assert.Equal(t, []string{"task.created", "task.updated"}, c.Get(context.Background()))
	assert.Equal(t, 2, s.calls)
}

func TestStaleServedOnFetchError(t *testing.T) {
	s := newScripted(t,
		fetchResult{values: []string{"task.created"}},
		fetchResult{err: errors.New("network unreachable")},
		fetchResult{err: errors.New("network unreachable")},
	)
	c := New(s.fetch, nil)

	c.Get(context.Background())
	c.ExpireNow()

	got := c.Get(context.Background())
	assert.Equal(t, []string{"task.created"}, got, "stale values must be served unchanged")

	// TTL was not reset: the next read retries the fetch again.
	c.Get(context.Background())
	assert.Equal(t, 3, s.calls)
}

func TestFeatureAbsentInstallsDefaults(t *testing.T) {
	for _, status := range []int{401, 403, 404} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			s := newScripted(t, fetchResult{err: &statusErr{status: status}})
			c := New(s.fetch, nil)

			got := c.Get(context.Background())
			assert.Equal(t, DefaultEvents(), got)

			// Fresh TTL: no refetch on the next read.
			c.Get(context.Background())
			assert.Equal(t, 1, s.calls)
		})
	}
}

func TestUnknownErrorOnEmptyCacheFallsBackToDefaults(t *testing.T) {
	s := newScripted(t,
		fetchResult{err: errors.New("connection reset")},
	)
	c := New(s.fetch, nil)
	c.Reset()

	got := c.Get(context.Background())
	assert.Len(t, got, 11)
	assert.Equal(t, DefaultEvents(), got)
}

func TestResetEmptiesCache(t *testing.T) {
	s := newScripted(t,
		fetchResult{values: []string{"task.created"}},
		fetchResult{values: []string{"task.deleted"}},
	)
	c := New(s.fetch, nil)

	c.Get(context.Background())
	c.Reset()
	assert.Equal(t, []string{"task.deleted"}, c.Get(context.Background()))
}

func TestGetReturnsCopy(t *testing.T) {
	s := newScripted(t, fetchResult{values: []string{"task.created", "task.updated"}})
	c := New(s.fetch, nil)

	first := c.Get(context.Background())
	first[0] = "mutated"
	assert.Equal(t, []string{"task.created", "task.updated"}, c.Get(context.Background()))
}

func TestCustomFallbackList(t *testing.T) {
	s := newScripted(t, fetchResult{err: &statusErr{status: 404}})
	c := New(s.fetch, []string{"custom.event"})

	assert.Equal(t, []string{"custom.event"}, c.Get(context.Background()))
}

func TestValidateEvents(t *testing.T) {
	valid := []string{"a", "b"}

	t.Run("all valid", func(t *testing.T) {
		assert.NoError(t, ValidateEvents([]string{"a"}, valid))
		assert.NoError(t, ValidateEvents(nil, valid))
	})

	t.Run("invalid listed", func(t *testing.T) {
		err := ValidateEvents([]string{"a", "c"}, valid)
		require.Error(t, err)
		assert.True(t, apierr.IsKind(err, apierr.ValidationError))
		assert.Contains(t, err.Error(), "c")
		assert.Contains(t, err.Error(), "a, b")
	})
}
