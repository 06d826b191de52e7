// Package cache holds the in-memory caches in front of the pipeline: a
// content cache mapping normalized URL to extraction result, a lighter
// dedup cache mapping normalized URL to the stored article ID, and a
// short-lived cache for paginated list results. Losing an entry only
// forces a re-fetch or re-query, never data loss.
package cache

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	gocache "github.com/patrickmn/go-cache"

	"github.com/IshaanNene/StashGoat/internal/types"
)

const listTTL = 5 * time.Minute

// Cache bundles the three caches. Safe for concurrent use.
type Cache struct {
	content *expirable.LRU[string, *types.ExtractedContent]
	dedup   *expirable.LRU[string, string]
	lists   *gocache.Cache
	logger  *slog.Logger
}

// Options sizes the URL caches independently.
type Options struct {
	ContentSize int
	ContentTTL  time.Duration
	DedupSize   int
	DedupTTL    time.Duration
}

// New creates the caches.
func New(opts Options, logger *slog.Logger) *Cache {
	return &Cache{
		content: expirable.NewLRU[string, *types.ExtractedContent](opts.ContentSize, nil, opts.ContentTTL),
		dedup:   expirable.NewLRU[string, string](opts.DedupSize, nil, opts.DedupTTL),
		lists:   gocache.New(listTTL, 10*time.Minute),
		logger:  logger.With("component", "cache"),
	}
}

// GetContent looks up a cached extraction result. A hit counts as an
// LRU touch but does not refresh the TTL.
func (c *Cache) GetContent(url string) (*types.ExtractedContent, bool) {
	return c.content.Get(url)
}

// PutContent stores an extraction result, evicting the least recently
// used entry when at capacity.
func (c *Cache) PutContent(url string, entry *types.ExtractedContent) {
	if c.content.Add(url, entry) {
		c.logger.Debug("content cache eviction")
	}
}

// GetProcessed returns the stored article ID for an already processed
// URL, if the dedup entry has not expired.
func (c *Cache) GetProcessed(url string) (string, bool) {
	return c.dedup.Get(url)
}

// MarkProcessed records that a URL resolved to a stored article.
func (c *Cache) MarkProcessed(url, articleID string) {
	c.dedup.Add(url, articleID)
}

// Invalidate removes a URL from both URL caches.
func (c *Cache) Invalidate(url string) {
	c.content.Remove(url)
	c.dedup.Remove(url)
}

// ListPage is one cached page of list results.
type ListPage struct {
	Articles []types.Article
	HasMore  bool
}

// GetList returns a cached page of list results for an owner.
func (c *Cache) GetList(ownerID, category string, page int) (*ListPage, bool) {
	v, ok := c.lists.Get(listKey(ownerID, category, page))
	if !ok {
		return nil, false
	}
	lp, ok := v.(*ListPage)
	return lp, ok
}

// PutList caches a page of list results.
func (c *Cache) PutList(ownerID, category string, page int, lp *ListPage) {
	c.lists.SetDefault(listKey(ownerID, category, page), lp)
}

// InvalidateOwner drops all cached list pages for an owner. Called
// after any write that changes the owner's listing.
func (c *Cache) InvalidateOwner(ownerID string) {
	prefix := "list|" + ownerID + "|"
	for key := range c.lists.Items() {
		if strings.HasPrefix(key, prefix) {
			c.lists.Delete(key)
		}
	}
}

// ContentLen reports the number of live content entries.
func (c *Cache) ContentLen() int { return c.content.Len() }

// DedupLen reports the number of live dedup entries.
func (c *Cache) DedupLen() int { return c.dedup.Len() }

func listKey(ownerID, category string, page int) string {
	return fmt.Sprintf("list|%s|%s|%d", ownerID, category, page)
}
