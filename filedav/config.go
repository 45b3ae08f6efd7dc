package filedav

import (
	"context"

	"github.com/spf13/afero"
)

// BaseDirFunc 每个请求动态计算根目录, 如按用户隔离
type BaseDirFunc func(ctx context.Context) (string, error)

type config struct {
	baseDir     string
	baseDirFn   BaseDirFunc
	absolute    bool
	installRoot string
	hrefPrefix  string
	fs          afero.Fs
}

type Option func(c *config)

func WithBaseDir(dir string) Option {
	return func(c *config) {
		c.baseDir = dir
	}
}

func WithBaseDirFunc(fn BaseDirFunc) Option {
	return func(c *config) {
		c.baseDirFn = fn
	}
}

// WithAbsolute 为false时根目录视为相对installRoot的路径
func WithAbsolute(v bool) Option {
	return func(c *config) {
		c.absolute = v
	}
}

func WithInstallRoot(dir string) Option {
	return func(c *config) {
		c.installRoot = dir
	}
}

func WithHrefPrefix(p string) Option {
	return func(c *config) {
		c.hrefPrefix = p
	}
}

func WithFs(fs afero.Fs) Option {
	return func(c *config) {
		c.fs = fs
	}
}
