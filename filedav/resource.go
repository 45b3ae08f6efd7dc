package filedav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/resource"
	"github.com/xxxsen/davgate/utils"
)

type fileResource struct {
	p    *Provider
	name string
	abs  string
	fi   os.FileInfo
}

func (p *Provider) newResource(name string, abs string, fi os.FileInfo) *fileResource {
	return &fileResource{p: p, name: name, abs: abs, fi: fi}
}

func (r *fileResource) Path() string {
	return r.name
}

func (r *fileResource) Href() string {
	return r.p.href(r.name, r.fi.IsDir())
}

func (r *fileResource) IsCollection() bool {
	return r.fi.IsDir()
}

func (r *fileResource) Status() string {
	return resource.StatusOK
}

func (r *fileResource) Properties() resource.PropertyTable {
	props := resource.PropertyTable{
		{Name: resource.PropDisplayName, Get: r.displayName, Set: r.setDisplayName},
		{Name: resource.PropCreationDate, Get: r.creationDate},
		{Name: resource.PropLastModified, Get: r.lastModified, Set: r.setLastModified},
		{Name: resource.PropETag, Get: r.etag},
		{Name: resource.PropContentType, Get: r.contentType},
	}
	if !r.fi.IsDir() {
		props = append(props, &resource.Property{Name: resource.PropContentLength, Get: r.contentLength})
	}
	return props
}

func (r *fileResource) displayName() string {
	if r.name == "/" {
		return ""
	}
	return path.Base(r.name)
}

// setDisplayName 在同级目录下重命名
func (r *fileResource) setDisplayName(value string) string {
	value = strings.TrimSpace(value)
	if r.name == "/" {
		return resource.StatusLine(http.StatusForbidden)
	}
	if len(value) == 0 || value == "." || value == ".." || strings.ContainsAny(value, `/\`) {
		return resource.StatusConflict
	}
	ctx := context.Background()
	dstName := path.Join(path.Dir(r.name), value)
	dstAbs, err := r.p.sanitize(ctx, dstName)
	if err != nil {
		return resource.StatusLine(daverr.StatusOf(err))
	}
	if _, err := r.p.fs.Stat(dstAbs); err == nil {
		return resource.StatusConflict
	}
	if err := r.p.fs.Rename(r.abs, dstAbs); err != nil {
		return setterStatus(err)
	}
	r.name, r.abs = dstName, dstAbs
	return resource.StatusOK
}

func (r *fileResource) creationDate() string {
	ct := r.fi.ModTime()
	if r.p.realFs {
		ct = statCtime(r.abs, r.fi)
	}
	return ct.UTC().Format(time.RFC3339)
}

func (r *fileResource) lastModified() string {
	return r.fi.ModTime().UTC().Format(http.TimeFormat)
}

func (r *fileResource) setLastModified(value string) string {
	t, err := http.ParseTime(strings.TrimSpace(value))
	if err != nil {
		return resource.StatusConflict
	}
	if err := r.p.fs.Chtimes(r.abs, time.Now(), t); err != nil {
		return setterStatus(err)
	}
	return resource.StatusOK
}

func setterStatus(err error) string {
	if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
		return resource.StatusConflict
	}
	return resource.StatusLine(http.StatusInternalServerError)
}

// etag inode-size-mtime, 均为16进制
func (r *fileResource) etag() string {
	var ino uint64
	if r.p.realFs {
		ino = statInode(r.abs, r.fi)
	}
	return fmt.Sprintf("%x-%x-%x", ino, r.fi.Size(), r.fi.ModTime().Unix())
}

func (r *fileResource) contentType() string {
	if r.fi.IsDir() {
		return resource.CollectionMarkerType
	}
	return utils.DetermineMimeType(r.name, func() (io.ReadCloser, error) {
		return r.p.fs.Open(r.abs)
	})
}

func (r *fileResource) contentLength() string {
	return strconv.FormatInt(r.fi.Size(), 10)
}

func (r *fileResource) Children(ctx context.Context) ([]resource.IResource, error) {
	if !r.fi.IsDir() {
		return nil, nil
	}
	infos, err := afero.ReadDir(r.p.fs, r.abs)
	if err != nil {
		return nil, daverr.FromOSError(err, daverr.KindNotFound)
	}
	rs := make([]resource.IResource, 0, len(infos))
	for _, fi := range infos {
		name := path.Join(r.name, fi.Name())
		rs = append(rs, r.p.newResource(name, filepath.Join(r.abs, fi.Name()), fi))
	}
	return rs, nil
}

func (r *fileResource) Data(ctx context.Context) (*resource.Content, error) {
	if r.fi.IsDir() {
		return nil, nil
	}
	f, err := r.p.fs.Open(r.abs)
	if err != nil {
		return nil, daverr.FromOSError(err, daverr.KindNotFound)
	}
	return &resource.Content{
		Reader:  f,
		Name:    r.fi.Name(),
		ModTime: r.fi.ModTime(),
		Size:    r.fi.Size(),
	}, nil
}
