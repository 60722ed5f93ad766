package application

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultDirectoryCacheTTL  = 30 * time.Second
	defaultDirectoryCacheSize = 128
)

// CachedResourceDirectory keeps recently read rooms for a short time so that
// availability searches and validation do not hit the directory on every call.
// Single rooms live in a bounded LRU; the full room list is cached separately.
// Lookup failures are never cached.
type CachedResourceDirectory struct {
	inner ResourceDirectory
	rooms *expirable.LRU[int64, Resource]
	all   *expirable.LRU[struct{}, []Resource]
}

var _ ResourceDirectory = (*CachedResourceDirectory)(nil)

// NewCachedResourceDirectory wraps inner. Non-positive ttl or maxEntries fall
// back to 30 seconds and 128 rooms.
func NewCachedResourceDirectory(inner ResourceDirectory, ttl time.Duration, maxEntries int) *CachedResourceDirectory {
	if ttl <= 0 {
		ttl = defaultDirectoryCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultDirectoryCacheSize
	}
	return &CachedResourceDirectory{
		inner: inner,
		rooms: expirable.NewLRU[int64, Resource](maxEntries, nil, ttl),
		all:   expirable.NewLRU[struct{}, []Resource](1, nil, ttl),
	}
}

// FindResource returns the cached room or loads it from the wrapped directory.
func (c *CachedResourceDirectory) FindResource(ctx context.Context, id int64) (Resource, error) {
	if room, ok := c.rooms.Get(id); ok {
		return room, nil
	}

	resource, err := c.inner.FindResource(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	c.rooms.Add(id, resource)
	return resource, nil
}

// ListResources returns a copy of the cached room list or reloads it.
func (c *CachedResourceDirectory) ListResources(ctx context.Context) ([]Resource, error) {
	if list, ok := c.all.Get(struct{}{}); ok {
		return cloneResources(list), nil
	}

	resources, err := c.inner.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	c.all.Add(struct{}{}, cloneResources(resources))
	return resources, nil
}

// Invalidate drops every cached entry.
func (c *CachedResourceDirectory) Invalidate() {
	c.rooms.Purge()
	c.all.Purge()
}

func cloneResources(resources []Resource) []Resource {
	if resources == nil {
		return nil
	}
	out := make([]Resource, len(resources))
	copy(out, resources)
	return out
}
