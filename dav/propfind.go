package dav

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/davxml"
	"github.com/xxxsen/davgate/resource"
)

const (
	xmlContentType = `text/xml; charset="utf-8"`
)

func (d *dispatcher) handlePropfind(ctx context.Context, req *Request) (*Response, error) {
	p, err := d.resolvePath(req)
	if err != nil {
		return nil, err
	}
	body, err := readXMLBody(req)
	if err != nil {
		return nil, err
	}
	//只校验格式, 不论请求哪些属性都返回全部属性
	if !isBlank(body) {
		if err := davxml.CheckWellFormed(body); err != nil {
			return nil, err
		}
	}
	root, err := d.mustResourceAt(ctx, p)
	if err != nil {
		return nil, err
	}
	depth := davpath.ParseDepth(req.Header.Get("Depth"), 1, d.c.maxDepth)
	items, err := resource.Walk(ctx, root, depth)
	if err != nil {
		return nil, fmt.Errorf("walk resource failed, path:%s, depth:%d, err:%w", p, depth, err)
	}
	return d.multistatusResponse(davxml.BuildPropfind(items))
}

func (d *dispatcher) multistatusResponse(ms *davxml.Multistatus) (*Response, error) {
	raw, err := davxml.Marshal(ms)
	if err != nil {
		return nil, err
	}
	rsp := newResponse(http.StatusMultiStatus)
	rsp.Header.Set("Content-Type", xmlContentType)
	rsp.Body = raw
	return rsp, nil
}
