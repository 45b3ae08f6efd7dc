package server

import (
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/dav"
)

type config struct {
	userMap      map[string]string
	authorizer   auth.IAuthorizer
	trustProxy   bool
	maxChunkBody int64
	prefix       string
	dispatcher   dav.IDispatcher
}

type Option func(c *config)

func WithUser(m map[string]string) Option {
	return func(c *config) {
		c.userMap = m
	}
}

// WithAuthorizer 配置后所有请求在分发前都需要通过策略检查
func WithAuthorizer(az auth.IAuthorizer) Option {
	return func(c *config) {
		c.authorizer = az
	}
}

func WithTrustProxy(v bool) Option {
	return func(c *config) {
		c.trustProxy = v
	}
}

func WithMaxChunkBody(sz int64) Option {
	return func(c *config) {
		c.maxChunkBody = sz
	}
}

// WithPrefix 路由前缀, 需要与分发器的前缀保持一致
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

func WithDispatcher(d dav.IDispatcher) Option {
	return func(c *config) {
		c.dispatcher = d
	}
}

func applyOpts(opts ...Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
