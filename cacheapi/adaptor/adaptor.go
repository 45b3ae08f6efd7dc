package cachewrap

import (
	"context"

	"github.com/xxxsen/davgate/cacheapi"
)

// AdmitFunc 返回false的值不会进入缓存
type AdmitFunc[V any] func(v V) bool

type adaptor[K comparable, V any] struct {
	s     store[K, V]
	admit AdmitFunc[V]
}

func (a *adaptor[K, V]) Get(ctx context.Context, k K) (V, error) {
	v, ok := a.s.get(k)
	if !ok {
		return v, cacheapi.ErrCacheKeyNotExist
	}
	return v, nil
}

func (a *adaptor[K, V]) Set(ctx context.Context, k K, v V) error {
	if a.admit != nil && !a.admit(v) {
		return nil
	}
	a.s.put(k, v)
	return nil
}

func (a *adaptor[K, V]) Del(ctx context.Context, k K) error {
	a.s.del(k)
	return nil
}
