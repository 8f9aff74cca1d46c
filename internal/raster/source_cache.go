package raster

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// SourceCache keeps decoded source rasters in process memory so a tile
// request does not re-fetch and re-decode the full source every time.
// Entries are keyed by layer id and version; a re-upload changes the
// version and naturally misses.
type SourceCache struct {
	cache *gocache.Cache
}

func NewSourceCache(ttl time.Duration) *SourceCache {
	return &SourceCache{
		cache: gocache.New(ttl, 2*ttl),
	}
}

func sourceKey(layerID string, version int) string {
	return fmt.Sprintf("%s:%d", layerID, version)
}

func (c *SourceCache) Get(layerID string, version int) (*Source, bool) {
	if v, ok := c.cache.Get(sourceKey(layerID, version)); ok {
		return v.(*Source), true
	}
	return nil, false
}

func (c *SourceCache) Set(layerID string, version int, src *Source) {
	c.cache.SetDefault(sourceKey(layerID, version), src)
}

func (c *SourceCache) Invalidate(layerID string, version int) {
	c.cache.Delete(sourceKey(layerID, version))
}
