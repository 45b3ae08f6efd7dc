package filedav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/resource"
	"github.com/xxxsen/davgate/utils"
)

// Provider 把本地目录暴露为资源树, 所有路径都会被限制在根目录内
type Provider struct {
	c      *config
	fs     afero.Fs
	realFs bool
}

func New(opts ...Option) (*Provider, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.baseDir) == 0 && c.baseDirFn == nil {
		return nil, fmt.Errorf("no base dir found")
	}
	if !c.absolute && len(c.installRoot) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get install root failed, err:%w", err)
		}
		c.installRoot = wd
	}
	p := &Provider{c: c, fs: c.fs}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	_, p.realFs = p.fs.(*afero.OsFs)
	return p, nil
}

func (p *Provider) baseDir(ctx context.Context) (string, error) {
	base := p.c.baseDir
	if p.c.baseDirFn != nil {
		dir, err := p.c.baseDirFn(ctx)
		if err != nil {
			return "", daverr.Wrap(daverr.KindForbidden, fmt.Errorf("resolve base dir failed, err:%w", err))
		}
		base = dir
	}
	if !p.c.absolute {
		base = filepath.Join(p.c.installRoot, base)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", daverr.Wrap(daverr.KindForbidden, err)
	}
	return filepath.Clean(abs), nil
}

func withinRoot(root string, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// sanitize 拼接根目录并规范化, 结果不在根目录内时返回Forbidden
func (p *Provider) sanitize(ctx context.Context, name string) (string, error) {
	base, err := p.baseDir(ctx)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(base, filepath.FromSlash(name))
	if !withinRoot(base, abs) {
		return "", daverr.Errorf(daverr.KindForbidden, "path escapes root, path:%s", name)
	}
	if !p.realFs {
		return abs, nil
	}
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return abs, nil
	}
	if err := checkSymlink(base, realBase, abs); err != nil {
		return "", daverr.Wrap(daverr.KindForbidden, fmt.Errorf("check path failed, path:%s, err:%w", name, err))
	}
	return abs, nil
}

// checkSymlink 从abs向上找到第一个存在的路径, 其真实指向必须仍在根目录内
func checkSymlink(base string, realBase string, abs string) error {
	for cur := abs; ; cur = filepath.Dir(cur) {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if !withinRoot(realBase, real) {
				return fmt.Errorf("symlink escapes root, real:%s", real)
			}
			return nil
		}
		// 悬空的软链接无法确认指向
		if fi, lerr := os.Lstat(cur); lerr == nil && fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("dangling symlink, path:%s", cur)
		}
		if cur == base || cur == filepath.Dir(cur) {
			return nil
		}
	}
}

func (p *Provider) href(name string, isDir bool) string {
	return davpath.Href(p.c.hrefPrefix, name, isDir)
}

func (p *Provider) ResourceAt(ctx context.Context, name string) (resource.IResource, error) {
	name = davpath.Clean(name)
	abs, err := p.sanitize(ctx, name)
	if err != nil {
		return nil, err
	}
	fi, err := p.fs.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, daverr.FromOSError(err, daverr.KindNotFound)
	}
	return p.newResource(name, abs, fi), nil
}

// ensureParent 中间目录缺失时返回409
func (p *Provider) ensureParent(ctx context.Context, name string) error {
	parent := path.Dir(name)
	abs, err := p.sanitize(ctx, parent)
	if err != nil {
		return err
	}
	fi, err := p.fs.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return daverr.Errorf(daverr.KindConflict409, "parent not found, path:%s", parent)
	}
	if err != nil {
		return daverr.FromOSError(err, daverr.KindConflict409)
	}
	if !fi.IsDir() {
		return daverr.Errorf(daverr.KindConflict409, "parent is not collection, path:%s", parent)
	}
	return nil
}

func (p *Provider) CreateCollection(ctx context.Context, name string) error {
	name = davpath.Clean(name)
	abs, err := p.sanitize(ctx, name)
	if err != nil {
		return err
	}
	if err := p.ensureParent(ctx, name); err != nil {
		return err
	}
	if err := p.fs.Mkdir(abs, 0755); err != nil {
		return daverr.FromOSError(err, daverr.KindForbidden)
	}
	return nil
}

func (p *Provider) WriteContent(ctx context.Context, name string, r io.Reader) error {
	name = davpath.Clean(name)
	abs, err := p.sanitize(ctx, name)
	if err != nil {
		return err
	}
	if fi, err := p.fs.Stat(abs); err == nil && fi.IsDir() {
		return daverr.Errorf(daverr.KindConflict, "cant write to collection, path:%s", name)
	}
	if _, err := utils.SafeWriteFile(p.fs, abs, r); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, res resource.IResource) error {
	abs, err := p.sanitize(ctx, res.Path())
	if err != nil {
		return err
	}
	base, err := p.baseDir(ctx)
	if err != nil {
		return err
	}
	if abs == base {
		return daverr.Errorf(daverr.KindForbidden, "cant delete root")
	}
	if err := p.fs.RemoveAll(abs); err != nil {
		return daverr.FromOSError(err, daverr.KindForbidden)
	}
	return nil
}

// prepareDst 校验目标父目录并删除已存在的目标
func (p *Provider) prepareDst(ctx context.Context, dst string) (string, error) {
	abs, err := p.sanitize(ctx, dst)
	if err != nil {
		return "", err
	}
	base, err := p.baseDir(ctx)
	if err != nil {
		return "", err
	}
	if abs == base {
		return "", daverr.Errorf(daverr.KindForbidden, "cant replace root")
	}
	if err := p.ensureParent(ctx, dst); err != nil {
		return "", err
	}
	if _, err := p.fs.Stat(abs); err == nil {
		if err := p.fs.RemoveAll(abs); err != nil {
			return "", daverr.FromOSError(err, daverr.KindConflict)
		}
	}
	return abs, nil
}

func (p *Provider) Move(ctx context.Context, src resource.IResource, dst string, depth int) error {
	srcAbs, err := p.sanitize(ctx, src.Path())
	if err != nil {
		return err
	}
	dstAbs, err := p.prepareDst(ctx, davpath.Clean(dst))
	if err != nil {
		return err
	}
	err = p.fs.Rename(srcAbs, dstAbs)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	// 跨设备时退化为复制后删除
	if err := p.copyTree(ctx, srcAbs, dstAbs, depth); err != nil {
		return err
	}
	if err := p.fs.RemoveAll(srcAbs); err != nil {
		return daverr.FromOSError(err, daverr.KindForbidden)
	}
	return nil
}

func (p *Provider) Copy(ctx context.Context, src resource.IResource, dst string, depth int) error {
	srcAbs, err := p.sanitize(ctx, src.Path())
	if err != nil {
		return err
	}
	dstAbs, err := p.prepareDst(ctx, davpath.Clean(dst))
	if err != nil {
		return err
	}
	return p.copyTree(ctx, srcAbs, dstAbs, depth)
}

func (p *Provider) copyTree(ctx context.Context, src string, dst string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := p.fs.Stat(src)
	if err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	if !fi.IsDir() {
		return p.copyFile(src, dst, fi)
	}
	if err := p.fs.Mkdir(dst, fi.Mode().Perm()); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	if depth > 0 {
		infos, err := afero.ReadDir(p.fs, src)
		if err != nil {
			return daverr.FromOSError(err, daverr.KindConflict)
		}
		for _, child := range infos {
			if err := p.copyTree(ctx, filepath.Join(src, child.Name()), filepath.Join(dst, child.Name()), depth-1); err != nil {
				return err
			}
		}
	}
	_ = p.fs.Chtimes(dst, fi.ModTime(), fi.ModTime())
	return nil
}

func (p *Provider) copyFile(src string, dst string, fi os.FileInfo) error {
	in, err := p.fs.Open(src)
	if err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	defer in.Close()
	out, err := p.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	if err := out.Close(); err != nil {
		return daverr.FromOSError(err, daverr.KindConflict)
	}
	_ = p.fs.Chtimes(dst, fi.ModTime(), fi.ModTime())
	return nil
}
