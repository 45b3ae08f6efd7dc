package dav

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/resource"
)

type transferFunc func(ctx context.Context, src resource.IResource, dst string, depth int) error

func (d *dispatcher) handleCopy(ctx context.Context, req *Request) (*Response, error) {
	return d.transfer(ctx, req, d.p.Copy)
}

// transfer COPY/MOVE共用的流程, 目标已存在时由后端负责先删除
func (d *dispatcher) transfer(ctx context.Context, req *Request, fn transferFunc) (*Response, error) {
	src, err := d.resolvePath(req)
	if err != nil {
		return nil, err
	}
	rawDst, err := davpath.ResolveDestination(req.Header.Get("Destination"), req.Host, d.c.prefix)
	if err != nil {
		return nil, err
	}
	dst := davpath.Normalize(rawDst, req.Strategy)
	srcRes, err := d.mustResourceAt(ctx, src)
	if err != nil {
		return nil, err
	}
	if dst == "/" {
		return nil, daverr.Errorf(daverr.KindForbidden, "dst should not be root, src:%s", src)
	}
	if dst == src {
		return nil, daverr.Errorf(daverr.KindForbidden, "src and dst are the same, path:%s", src)
	}
	if strings.HasPrefix(dst, strings.TrimSuffix(src, "/")+"/") {
		return nil, daverr.Errorf(daverr.KindForbidden, "dst should not be inside src, src:%s, dst:%s", src, dst)
	}
	dstRes, err := d.resourceAt(ctx, dst)
	if err != nil {
		return nil, err
	}
	if dstRes != nil && !davpath.ParseOverwrite(req.Header.Get("Overwrite")) {
		return nil, daverr.Errorf(daverr.KindPreconditionFailed, "dst exists and overwrite not allowed, dst:%s", dst)
	}
	depth := davpath.ParseDepth(req.Header.Get("Depth"), d.c.maxDepth, d.c.maxDepth)
	if err := fn(ctx, srcRes, dst, depth); err != nil {
		return nil, fmt.Errorf("transfer resource failed, src:%s, dst:%s, err:%w", src, dst, err)
	}
	if dstRes != nil {
		return newResponse(http.StatusNoContent), nil
	}
	return newResponse(http.StatusCreated), nil
}
