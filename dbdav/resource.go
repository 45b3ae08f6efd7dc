package dbdav

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/database"
	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/resource"
	"github.com/xxxsen/davgate/utils"
)

type dbResource struct {
	p    *Provider
	name string
	ent  *entryTab
}

func (p *Provider) newResource(name string, ent *entryTab) *dbResource {
	return &dbResource{p: p, name: name, ent: ent}
}

func (r *dbResource) Path() string {
	return r.name
}

func (r *dbResource) Href() string {
	return r.p.href(r.name, r.ent.IsDir())
}

func (r *dbResource) IsCollection() bool {
	return r.ent.IsDir()
}

func (r *dbResource) Status() string {
	return resource.StatusOK
}

func (r *dbResource) Properties() resource.PropertyTable {
	props := resource.PropertyTable{
		{Name: resource.PropDisplayName, Get: r.displayName, Set: r.setDisplayName},
		{Name: resource.PropCreationDate, Get: r.creationDate},
		{Name: resource.PropLastModified, Get: r.lastModified, Set: r.setLastModified},
		{Name: resource.PropETag, Get: r.etag},
		{Name: resource.PropContentType, Get: r.contentType},
	}
	if !r.ent.IsDir() {
		props = append(props, &resource.Property{Name: resource.PropContentLength, Get: r.contentLength})
	}
	return props
}

func (r *dbResource) displayName() string {
	if r.name == "/" {
		return ""
	}
	return r.ent.FileName
}

// setDisplayName 同级重命名, 目标名已存在时返回409
func (r *dbResource) setDisplayName(value string) string {
	value = strings.TrimSpace(value)
	if r.name == "/" {
		return resource.StatusLine(http.StatusForbidden)
	}
	if len(value) == 0 || value == "." || value == ".." || strings.Contains(value, "/") {
		return resource.StatusConflict
	}
	err := r.p.onTransaction(context.Background(), func(ctx context.Context, tx database.IQueryExecer) error {
		_, exist, err := r.p.txSearchEntry(ctx, tx, r.ent.ParentEntryId, value)
		if err != nil {
			return err
		}
		if exist {
			return daverr.Errorf(daverr.KindConflict409, "name exist, name:%s", value)
		}
		return r.p.txChangeParent(ctx, tx, r.ent.EntryId, r.ent.ParentEntryId, value)
	})
	if err != nil {
		if daverr.Is(err, daverr.KindConflict409) {
			return resource.StatusConflict
		}
		return resource.StatusLine(http.StatusInternalServerError)
	}
	r.ent.FileName = value
	r.name = path.Join(path.Dir(r.name), value)
	return resource.StatusOK
}

func (r *dbResource) creationDate() string {
	return time.UnixMilli(r.ent.Ctime).UTC().Format(time.RFC3339)
}

func (r *dbResource) lastModified() string {
	return time.UnixMilli(r.ent.Mtime).UTC().Format(http.TimeFormat)
}

func (r *dbResource) setLastModified(value string) string {
	t, err := http.ParseTime(strings.TrimSpace(value))
	if err != nil {
		return resource.StatusConflict
	}
	mtime := t.UnixMilli()
	err = r.p.onTransaction(context.Background(), func(ctx context.Context, tx database.IQueryExecer) error {
		return r.p.txUpdateEntry(ctx, tx, r.ent.EntryId, map[string]interface{}{
			"mtime": mtime,
		})
	})
	if err != nil {
		return resource.StatusLine(http.StatusInternalServerError)
	}
	r.ent.Mtime = mtime
	return resource.StatusOK
}

func (r *dbResource) etag() string {
	return utils.HashETag(r.ent.EntryId, r.ent.FileSize, r.ent.Mtime)
}

func (r *dbResource) contentType() string {
	if r.ent.IsDir() {
		return resource.CollectionMarkerType
	}
	return utils.DetermineMimeType(r.ent.FileName, func() (io.ReadCloser, error) {
		data, err := r.p.loadContent(context.Background(), r.ent.ContentId)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

func (r *dbResource) contentLength() string {
	return strconv.FormatInt(r.ent.FileSize, 10)
}

func (r *dbResource) Children(ctx context.Context) ([]resource.IResource, error) {
	if !r.ent.IsDir() {
		return nil, nil
	}
	items, err := r.p.txListAllDir(ctx, r.p.db, r.ent.EntryId)
	if err != nil {
		return nil, wrapDBError(err)
	}
	rs := make([]resource.IResource, 0, len(items))
	for _, item := range items {
		rs = append(rs, r.p.newResource(path.Join(r.name, item.FileName), item))
	}
	return rs, nil
}

type memContent struct {
	*bytes.Reader
}

func (memContent) Close() error {
	return nil
}

func (r *dbResource) Data(ctx context.Context) (*resource.Content, error) {
	if r.ent.IsDir() {
		return nil, nil
	}
	data, err := r.p.loadContent(ctx, r.ent.ContentId)
	if err != nil {
		return nil, err
	}
	return &resource.Content{
		Reader:  memContent{Reader: bytes.NewReader(data)},
		Name:    r.ent.FileName,
		ModTime: time.UnixMilli(r.ent.Mtime),
		Size:    int64(len(data)),
	}, nil
}
