package twitter

import (
	"time"

	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores resolved post metadata by post id. Entries are advisory and may vanish at any time.
type Cache interface {
	Get(postID string) (model.VideoReference, bool)
	Add(postID string, ref model.VideoReference)
}

// NewLRUCache creates a size- and TTL-bounded cache. A non-positive size disables caching.
func NewLRUCache(size int, ttl time.Duration) Cache {
	if size <= 0 {
		return noopCache{}
	}
	return &lruCache{lru: expirable.NewLRU[string, model.VideoReference](size, nil, ttl)}
}

type lruCache struct {
	lru *expirable.LRU[string, model.VideoReference]
}

func (c *lruCache) Get(postID string) (model.VideoReference, bool) {
	return c.lru.Get(postID)
}

func (c *lruCache) Add(postID string, ref model.VideoReference) {
	c.lru.Add(postID, ref)
}

type noopCache struct{}

func (noopCache) Get(string) (model.VideoReference, bool) { return model.VideoReference{}, false }
func (noopCache) Add(string, model.VideoReference)        {}
