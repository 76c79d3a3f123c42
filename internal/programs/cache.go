package programs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"growf/platform-backend/pkg/cache"
	"growf/platform-backend/pkg/pagination"
)

// publicCache fronts the unauthenticated read paths. Entries are dropped on
// every write that can change what the public sees.
type publicCache struct {
	items *cache.Cache[Program]
	pages *cache.Cache[pagination.Page[Program]]
}

// EnablePublicCache caches public reads for ttl. A non-positive ttl leaves
// caching off.
func (s *Service) EnablePublicCache(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.cache = &publicCache{
		items: cache.New[Program](ttl, time.Minute),
		pages: cache.New[pagination.Page[Program]](ttl, time.Minute),
	}
}

// CacheStats reports public cache usage, zero when disabled.
func (s *Service) CacheStats() (items, pages cache.Stats) {
	if s.cache == nil {
		return cache.Stats{}, cache.Stats{}
	}
	return s.cache.items.Stats(), s.cache.pages.Stats()
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.items.Delete(id.String())
	s.cache.pages.Clear()
}

func (c *publicCache) close() {
	c.items.Close()
	c.pages.Close()
}

func pageKey(f Filter, page pagination.Params) string {
	return fmt.Sprintf("s=%s|l=%s|q=%s|df=%s|dt=%s|p=%d|n=%d",
		deref(f.Sector), deref(f.Location), deref(f.Search),
		timeKey(f.DeadlineFrom), timeKey(f.DeadlineTo),
		page.Page, page.Limit)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Close stops the cache janitors.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.close()
	}
}
