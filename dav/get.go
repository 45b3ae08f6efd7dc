package dav

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/resource"
)

// openContent GET/HEAD共用: 资源和数据都必须存在
func (d *dispatcher) openContent(ctx context.Context, req *Request) (resource.IResource, *resource.Content, error) {
	p, err := d.resolvePath(req)
	if err != nil {
		return nil, nil, err
	}
	res, err := d.mustResourceAt(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	data, err := res.Data(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open resource data failed, path:%s, err:%w", p, err)
	}
	if data == nil || data.Reader == nil {
		return nil, nil, daverr.Errorf(daverr.KindNotFound, "resource has no data, path:%s", p)
	}
	return res, data, nil
}

func contentHeaders(rsp *Response, res resource.IResource) {
	if v, ok := resource.GetProperty(res, resource.PropLastModified); ok && len(v) > 0 {
		rsp.Header.Set("Last-Modified", v)
	}
	if v, ok := resource.GetProperty(res, resource.PropETag); ok && len(v) > 0 {
		rsp.Header.Set("ETag", strconv.Quote(v))
	}
	if v, ok := resource.GetProperty(res, resource.PropContentType); ok && len(v) > 0 {
		rsp.Header.Set("Content-Type", v)
	}
}

func (d *dispatcher) handleGet(ctx context.Context, req *Request) (*Response, error) {
	res, data, err := d.openContent(ctx, req)
	if err != nil {
		return nil, err
	}
	rsp := newResponse(http.StatusOK)
	contentHeaders(rsp, res)
	rsp.Content = data
	return rsp, nil
}
