package cachewrap

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	explru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/davgate/cacheapi"
)

const (
	KindNone      = "none"
	KindLru       = "lru"
	KindRistretto = "ristretto"
)

const (
	defaultCacheSize       = 1024
	DefaultMaxContentBytes = 4 * 1024 * 1024
)

func newStore[K LimitRistrettoKey, V any](kind string, size int, ttl time.Duration) (store[K, V], error) {
	switch kind {
	case KindLru:
		if ttl > 0 {
			return &lruStore[K, V]{c: explru.NewLRU[K, V](size, nil, ttl)}, nil
		}
		c, err := lru.New[K, V](size)
		if err != nil {
			return nil, fmt.Errorf("create lru cache failed, err:%w", err)
		}
		return &lruStore[K, V]{c: c}, nil
	case KindRistretto:
		c, err := ristretto.NewCache(&ristretto.Config[K, V]{
			NumCounters: int64(size) * 10,
			MaxCost:     int64(size),
			BufferItems: 64,
			// 按条目计数, 不叠加内部开销
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create ristretto cache failed, err:%w", err)
		}
		return &ristrettoStore[K, V]{c: c}, nil
	}
	return nil, fmt.Errorf("unknown cache kind:%s", kind)
}

// New 按配置创建缓存, lru在ttl>0时使用带过期的实现, ristretto的size为条目数上限
func New[K LimitRistrettoKey, V any](kind string, size int, ttl time.Duration, admit AdmitFunc[V]) (cacheapi.ICache[K, V], error) {
	if kind == "" || kind == KindNone {
		return cacheapi.NewNopCache[K, V](), nil
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	s, err := newStore[K, V](kind, size, ttl)
	if err != nil {
		return nil, err
	}
	return &adaptor[K, V]{s: s, admit: admit}, nil
}

// NewContentCache 文件内容缓存, key为内容id, 超过maxBytes的内容直接回源不缓存
func NewContentCache(kind string, size int, ttl time.Duration, maxBytes int64) (cacheapi.ICache[string, []byte], error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}
	return New[string, []byte](kind, size, ttl, func(v []byte) bool {
		return int64(len(v)) <= maxBytes
	})
}
