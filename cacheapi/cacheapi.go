package cacheapi

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
)

var (
	ErrCacheKeyNotExist = errors.New("cache key not exist")
)

type ICacheGetter[K comparable, V any] interface {
	Get(ctx context.Context, k K) (V, error)
}

type ICacheSetter[K comparable, V any] interface {
	Set(ctx context.Context, k K, v V) error
}

type ICacheDeleter[K comparable] interface {
	Del(ctx context.Context, k K) error
}

type ICacheLoader[K comparable, V any] interface {
	ICacheGetter[K, V]
	ICacheSetter[K, V]
}

type ICache[K comparable, V any] interface {
	ICacheLoader[K, V]
	ICacheDeleter[K]
}

type LoadCacheCallbackFunc[K comparable, V any] func(ctx context.Context, miss []K) (map[K]V, error)

var group singleflight.Group

// Load 单key加载, 相同key的并发回源会被合并为一次
func Load[K comparable, V any](ctx context.Context, c ICacheLoader[K, V], k K, cb LoadCacheCallbackFunc[K, V]) (V, bool, error) {
	var empty V
	if v, err := c.Get(ctx, k); err == nil {
		return v, true, nil
	} else if !errors.Is(err, ErrCacheKeyNotExist) {
		return empty, false, err
	}
	sfkey := fmt.Sprintf("%T:%v", c, k)
	res, err, _ := group.Do(sfkey, func() (interface{}, error) {
		return LoadMany(ctx, c, []K{k}, cb)
	})
	if err != nil {
		return empty, false, err
	}
	m := res.(map[K]V)
	v, ok := m[k]
	return v, ok, nil
}

func LoadMany[K comparable, V any](ctx context.Context, c ICacheLoader[K, V], ks []K, cb LoadCacheCallbackFunc[K, V]) (map[K]V, error) {
	m := make(map[K]V, len(ks))
	miss := make([]K, 0, len(ks))
	for _, k := range ks {
		v, err := c.Get(ctx, k)
		if err != nil {
			if errors.Is(err, ErrCacheKeyNotExist) {
				miss = append(miss, k)
				continue
			}
			return nil, err
		}
		m[k] = v
	}
	if len(miss) == 0 {
		return m, nil
	}
	rs, err := cb(ctx, miss)
	if err != nil {
		return nil, err
	}
	for k, v := range rs {
		m[k] = v
		_ = c.Set(ctx, k, v)
	}
	return m, nil
}

type nopCache[K comparable, V any] struct{}

func (nopCache[K, V]) Get(ctx context.Context, k K) (V, error) {
	var v V
	return v, ErrCacheKeyNotExist
}

func (nopCache[K, V]) Set(ctx context.Context, k K, v V) error {
	return nil
}

func (nopCache[K, V]) Del(ctx context.Context, k K) error {
	return nil
}

// NewNopCache 不缓存任何数据, 每次都回源
func NewNopCache[K comparable, V any]() ICache[K, V] {
	return nopCache[K, V]{}
}
