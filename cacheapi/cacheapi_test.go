package cacheapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simpleCache[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

func (s *simpleCache[K, V]) Get(ctx context.Context, k K) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[k]
	if !ok {
		return v, ErrCacheKeyNotExist
	}
	return v, nil
}

func (s *simpleCache[K, V]) Set(ctx context.Context, k K, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
	return nil
}

func newSimpleCache[K comparable, V any]() ICacheLoader[K, V] {
	return &simpleCache[K, V]{m: map[K]V{}}
}

func itoaLoader(ctx context.Context, miss []int) (map[int]string, error) {
	rs := make(map[int]string, len(miss))
	for _, k := range miss {
		rs[k] = fmt.Sprintf("%d", k)
	}
	return rs, nil
}

func TestLoad(t *testing.T) {
	c := newSimpleCache[int, string]()
	ctx := context.Background()
	v, ok, err := Load(ctx, c, 1, itoaLoader)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	v, err = c.Get(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "1", v)
	_, err = c.Get(ctx, 2)
	assert.Error(t, err)

	_, ok, err = Load(ctx, c, 3, func(ctx context.Context, miss []int) (map[int]string, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Load(ctx, c, 4, func(ctx context.Context, miss []int) (map[int]string, error) {
		return nil, errors.New("load failed")
	})
	assert.Error(t, err)
}

func TestLoadDedup(t *testing.T) {
	c := newSimpleCache[int, string]()
	ctx := context.Background()
	var calls int32
	start := make(chan struct{})
	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, ok, err := Load(ctx, c, 7, func(ctx context.Context, miss []int) (map[int]string, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(50 * time.Millisecond)
				return itoaLoader(ctx, miss)
			})
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "7", v)
		}()
	}
	close(start)
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestLoadMany(t *testing.T) {
	c := newSimpleCache[int, string]()
	ctx := context.Background()
	testList := []int{1, 2, 3}
	rs, err := LoadMany(ctx, c, testList, itoaLoader)
	assert.NoError(t, err)
	assert.Equal(t, len(testList), len(rs))
	for _, k := range testList {
		v, err := c.Get(ctx, k)
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d", k), v)
	}
}

func TestNopCache(t *testing.T) {
	c := NewNopCache[string, int]()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", 1))
	_, err := c.Get(ctx, "a")
	assert.True(t, errors.Is(err, ErrCacheKeyNotExist))
	assert.NoError(t, c.Del(ctx, "a"))
}
