package vfsdav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/resource"
	"github.com/xxxsen/davgate/utils"
	"golang.org/x/net/webdav"
)

type vfsResource struct {
	p    *Provider
	name string
	fi   os.FileInfo
}

func (p *Provider) newResource(name string, fi os.FileInfo) *vfsResource {
	return &vfsResource{p: p, name: name, fi: fi}
}

func (r *vfsResource) Path() string {
	return r.name
}

func (r *vfsResource) Href() string {
	return r.p.href(r.name, r.fi.IsDir())
}

func (r *vfsResource) IsCollection() bool {
	return r.fi.IsDir()
}

func (r *vfsResource) Status() string {
	return resource.StatusOK
}

func (r *vfsResource) Properties() resource.PropertyTable {
	props := resource.PropertyTable{
		{Name: resource.PropDisplayName, Get: r.displayName},
		{Name: resource.PropCreationDate, Get: func() string {
			return r.fi.ModTime().UTC().Format(time.RFC3339)
		}},
		{Name: resource.PropLastModified, Get: func() string {
			return r.fi.ModTime().UTC().Format(http.TimeFormat)
		}},
		{Name: resource.PropETag, Get: r.etag},
		{Name: resource.PropContentType, Get: r.contentType},
	}
	if !r.fi.IsDir() {
		props = append(props, &resource.Property{Name: resource.PropContentLength, Get: func() string {
			return strconv.FormatInt(r.fi.Size(), 10)
		}})
	}
	return props
}

func (r *vfsResource) displayName() string {
	if isRoot(r.name) {
		return ""
	}
	return path.Base(r.name)
}

func (r *vfsResource) etag() string {
	if et, ok := r.fi.(webdav.ETager); ok {
		if v, err := et.ETag(context.Background()); err == nil {
			return v
		}
	}
	return fmt.Sprintf("%x%x", r.fi.ModTime().UnixNano(), r.fi.Size())
}

func (r *vfsResource) contentType() string {
	if r.fi.IsDir() {
		return resource.CollectionMarkerType
	}
	return utils.DetermineMimeType(r.name, func() (io.ReadCloser, error) {
		return r.p.fs.OpenFile(context.Background(), r.name, os.O_RDONLY, 0)
	})
}

func (r *vfsResource) Children(ctx context.Context) ([]resource.IResource, error) {
	if !r.fi.IsDir() {
		return nil, nil
	}
	f, err := r.p.fs.OpenFile(ctx, r.name, os.O_RDONLY, 0)
	if err != nil {
		return nil, daverr.FromOSError(err, daverr.KindNotFound)
	}
	defer f.Close()
	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, daverr.FromOSError(err, daverr.KindNotFound)
	}
	rs := make([]resource.IResource, 0, len(infos))
	for _, fi := range infos {
		rs = append(rs, r.p.newResource(path.Join(r.name, fi.Name()), fi))
	}
	return rs, nil
}

func (r *vfsResource) Data(ctx context.Context) (*resource.Content, error) {
	if r.fi.IsDir() {
		return nil, nil
	}
	f, err := r.p.fs.OpenFile(ctx, r.name, os.O_RDONLY, 0)
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
