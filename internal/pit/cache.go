package pit

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mkweon/athena/internal/contracts"
)

// runCache memoizes raw fact series for the duration of a screening run.
// Entries expire on their own so a long-lived scheduler process does not
// serve stale fundamentals across days.
type runCache struct {
	store *gocache.Cache
}

const (
	cacheTTL     = 30 * time.Minute
	cacheCleanup = 10 * time.Minute
)

func newRunCache() *runCache {
	return &runCache{
		store: gocache.New(cacheTTL, cacheCleanup),
	}
}

func cacheKey(entity, field string, asOf time.Time) string {
	return fmt.Sprintf("%s|%s|%s", entity, field, asOf.Format("2006-01-02"))
}

func (c *runCache) get(entity, field string, asOf time.Time) ([]contracts.Fact, bool) {
	v, ok := c.store.Get(cacheKey(entity, field, asOf))
	if !ok {
		return nil, false
	}
	facts, ok := v.([]contracts.Fact)
	return facts, ok
}

func (c *runCache) put(entity, field string, asOf time.Time, facts []contracts.Fact) {
	c.store.Set(cacheKey(entity, field, asOf), facts, gocache.DefaultExpiration)
}

// Flush drops every memoized series. Called between scheduled runs.
func (c *runCache) Flush() {
	c.store.Flush()
}
