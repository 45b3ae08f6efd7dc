package cachewrap

import (
	"github.com/dgraph-io/ristretto/v2"
)

// store 各缓存实现的最小公共能力
type store[K comparable, V any] interface {
	get(k K) (V, bool)
	put(k K, v V)
	del(k K)
}

// lruLike lru.Cache和expirable.LRU的方法签名一致
type lruLike[K comparable, V any] interface {
	Get(k K) (V, bool)
	Add(k K, v V) bool
	Remove(k K) bool
}

type lruStore[K comparable, V any] struct {
	c lruLike[K, V]
}

func (s *lruStore[K, V]) get(k K) (V, bool) {
	return s.c.Get(k)
}

func (s *lruStore[K, V]) put(k K, v V) {
	_ = s.c.Add(k, v)
}

func (s *lruStore[K, V]) del(k K) {
	_ = s.c.Remove(k)
}

type LimitRistrettoKey interface {
	uint64 | string | byte | int | int32 | uint32 | int64
}

type ristrettoStore[K LimitRistrettoKey, V any] struct {
	c *ristretto.Cache[K, V]
}

func (s *ristrettoStore[K, V]) get(k K) (V, bool) {
	return s.c.Get(k)
}

// put ristretto异步写入, 等待写入完成, 避免紧接着的读取落空
func (s *ristrettoStore[K, V]) put(k K, v V) {
	_ = s.c.Set(k, v, 1)
	s.c.Wait()
}

func (s *ristrettoStore[K, V]) del(k K) {
	s.c.Del(k)
}
