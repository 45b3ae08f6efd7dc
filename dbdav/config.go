package dbdav

import (
	"github.com/xxxsen/common/idgen"
	"github.com/xxxsen/davgate/cacheapi"
)

type IDGenFunc func() uint64

type config struct {
	idfn       IDGenFunc
	cache      cacheapi.ICache[string, []byte]
	hrefPrefix string
}

type Option func(c *config)

func WithIDGen(fn IDGenFunc) Option {
	return func(c *config) {
		c.idfn = fn
	}
}

// WithContentCache 文件内容按content id缓存, 内容写入后不会再修改
func WithContentCache(cc cacheapi.ICache[string, []byte]) Option {
	return func(c *config) {
		c.cache = cc
	}
}

func WithHrefPrefix(prefix string) Option {
	return func(c *config) {
		c.hrefPrefix = prefix
	}
}

func applyOpts(opts ...Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.idfn == nil {
		c.idfn = idgen.NextId
	}
	if c.cache == nil {
		c.cache = cacheapi.NewNopCache[string, []byte]()
	}
	return c
}
