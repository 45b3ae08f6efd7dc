package vfsdav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/resource"
	"golang.org/x/net/webdav"
)

type config struct {
	hrefPrefix string
}

type Option func(c *config)

func WithHrefPrefix(p string) Option {
	return func(c *config) {
		c.hrefPrefix = p
	}
}

// Provider 把任意webdav.FileSystem(内存/本地目录/第三方实现)适配为资源树
type Provider struct {
	resource.UnimplementedProvider
	c  *config
	fs webdav.FileSystem
}

func New(fs webdav.FileSystem, opts ...Option) *Provider {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return &Provider{c: c, fs: fs}
}

// NewMem 基于内存的资源树, 进程退出数据即丢失
func NewMem(opts ...Option) *Provider {
	return New(webdav.NewMemFS(), opts...)
}

func (p *Provider) ResourceAt(ctx context.Context, name string) (resource.IResource, error) {
	name = davpath.Clean(name)
	fi, err := p.fs.Stat(ctx, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, daverr.FromOSError(err, daverr.KindNotFound)
	}
	return p.newResource(name, fi), nil
}

// ensureParent 父节点必须存在且为目录, 否则为409
func (p *Provider) ensureParent(ctx context.Context, name string) error {
	parent := path.Dir(name)
	fi, err := p.fs.Stat(ctx, parent)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return daverr.Errorf(daverr.KindConflict409, "parent not found, path:%s", parent)
		}
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	if !fi.IsDir() {
		return daverr.Errorf(daverr.KindConflict409, "parent is not collection, path:%s", parent)
	}
	return nil
}

func (p *Provider) CreateCollection(ctx context.Context, name string) error {
	name = davpath.Clean(name)
	if err := p.ensureParent(ctx, name); err != nil {
		return err
	}
	if err := p.fs.Mkdir(ctx, name, 0755); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	return nil
}

func (p *Provider) WriteContent(ctx context.Context, name string, r io.Reader) error {
	name = davpath.Clean(name)
	if err := p.ensureParent(ctx, name); err != nil {
		return daverr.Errorf(daverr.KindConflict, "write under invalid parent, err:%v", err)
	}
	if fi, err := p.fs.Stat(ctx, name); err == nil && fi.IsDir() {
		return daverr.Errorf(daverr.KindConflict, "cant write to collection, path:%s", name)
	}
	f, err := p.fs.OpenFile(ctx, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return daverr.FromOSError(fmt.Errorf("write file failed, path:%s, err:%w", name, err), daverr.KindConflict)
	}
	if err := f.Close(); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, res resource.IResource) error {
	if res.Path() == "/" {
		return daverr.Errorf(daverr.KindForbidden, "cant delete root")
	}
	if err := p.fs.RemoveAll(ctx, res.Path()); err != nil {
		return daverr.FromOSError(err, daverr.KindNotFound)
	}
	return nil
}

// removeExisting 目标已存在时整体删除
func (p *Provider) removeExisting(ctx context.Context, dst string) error {
	if davpath.Clean(dst) == "/" {
		return daverr.Errorf(daverr.KindForbidden, "cant replace root")
	}
	if _, err := p.fs.Stat(ctx, dst); err != nil {
		return nil
	}
	if err := p.fs.RemoveAll(ctx, dst); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	return nil
}

func (p *Provider) Move(ctx context.Context, src resource.IResource, dst string, depth int) error {
	dst = davpath.Clean(dst)
	if err := p.ensureParent(ctx, dst); err != nil {
		return err
	}
	if err := p.removeExisting(ctx, dst); err != nil {
		return err
	}
	if err := p.fs.Rename(ctx, src.Path(), dst); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	return nil
}

func (p *Provider) Copy(ctx context.Context, src resource.IResource, dst string, depth int) error {
	dst = davpath.Clean(dst)
	if err := p.ensureParent(ctx, dst); err != nil {
		return err
	}
	if err := p.removeExisting(ctx, dst); err != nil {
		return err
	}
	return p.copyTree(ctx, src.Path(), dst, depth)
}

func (p *Provider) copyTree(ctx context.Context, src string, dst string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := p.fs.Stat(ctx, src)
	if err != nil {
		return daverr.FromOSError(err, daverr.KindNotFound)
	}
	if !fi.IsDir() {
		return p.copyFile(ctx, src, dst, fi.Mode())
	}
	if err := p.fs.Mkdir(ctx, dst, fi.Mode().Perm()); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	if depth <= 0 {
		return nil
	}
	f, err := p.fs.OpenFile(ctx, src, os.O_RDONLY, 0)
	if err != nil {
		return daverr.FromOSError(err, daverr.KindNotFound)
	}
	children, err := f.Readdir(-1)
	_ = f.Close()
	if err != nil {
		return daverr.FromOSError(err, daverr.KindNotFound)
	}
	for _, child := range children {
		name := child.Name()
		if err := p.copyTree(ctx, path.Join(src, name), path.Join(dst, name), depth-1); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) copyFile(ctx context.Context, src string, dst string, mode os.FileMode) error {
	in, err := p.fs.OpenFile(ctx, src, os.O_RDONLY, 0)
	if err != nil {
		return daverr.FromOSError(err, daverr.KindNotFound)
	}
	defer in.Close()
	out, err := p.fs.OpenFile(ctx, dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	if err := out.Close(); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	return nil
}

func (p *Provider) href(name string, isDir bool) string {
	return davpath.Href(p.c.hrefPrefix, name, isDir)
}

func isRoot(name string) bool {
	return name == "/" || strings.TrimSpace(name) == ""
}
