package dav

import "strings"

const (
	defaultMaxDepth = 500
)

type config struct {
	prefix        string
	maxDepth      int
	extraMethods  []string
	extraVersions []string
	handlers      map[string]HandlerFunc
	before        map[string][]BeforeHook
	after         map[string][]AfterHook
}

type Option func(c *config)

// WithPrefix 对外暴露的url前缀, 如: /webdav
func WithPrefix(p string) Option {
	return func(c *config) {
		c.prefix = "/" + strings.Trim(p, "/")
		if c.prefix == "/" {
			c.prefix = ""
		}
	}
}

// WithMaxDepth 限制PROPFIND/COPY/MOVE的最大深度, infinity也会被收敛到这个值
func WithMaxDepth(d int) Option {
	return func(c *config) {
		if d > 0 {
			c.maxDepth = d
		}
	}
}

// WithExtraMethods 额外的方法只体现在OPTIONS的Allow头中, 需要处理的话要配合WithMethodHandler
func WithExtraMethods(ms ...string) Option {
	return func(c *config) {
		for _, m := range ms {
			c.extraMethods = append(c.extraMethods, strings.ToUpper(m))
		}
	}
}

func WithExtraVersions(vs ...string) Option {
	return func(c *config) {
		c.extraVersions = append(c.extraVersions, vs...)
	}
}

// WithMethodHandler 注册或者覆盖某个方法的处理函数
func WithMethodHandler(method string, fn HandlerFunc) Option {
	return func(c *config) {
		c.handlers[strings.ToUpper(method)] = fn
	}
}

func WithBeforeHook(method string, fn BeforeHook) Option {
	return func(c *config) {
		m := strings.ToUpper(method)
		c.before[m] = append(c.before[m], fn)
	}
}

func WithAfterHook(method string, fn AfterHook) Option {
	return func(c *config) {
		m := strings.ToUpper(method)
		c.after[m] = append(c.after[m], fn)
	}
}

func applyOpts(opts ...Option) *config {
	c := &config{
		maxDepth: defaultMaxDepth,
		handlers: make(map[string]HandlerFunc),
		before:   make(map[string][]BeforeHook),
		after:    make(map[string][]AfterHook),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
