package dav

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/resource"
)

func (d *dispatcher) handleMkcol(ctx context.Context, req *Request) (*Response, error) {
	ct := strings.TrimSpace(req.Header.Get("Content-Type"))
	if len(ct) != 0 && ct != resource.CollectionMarkerType {
		return nil, daverr.Errorf(daverr.KindUnsupportedType, "invalid mkcol content-type:%s", ct)
	}
	ok, err := hasBody(req)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, daverr.Errorf(daverr.KindUnsupportedType, "mkcol with body is not supported")
	}
	p, err := d.resolvePath(req)
	if err != nil {
		return nil, err
	}
	if err := d.p.CreateCollection(ctx, p); err != nil {
		return nil, fmt.Errorf("create collection failed, path:%s, err:%w", p, err)
	}
	return newResponse(http.StatusCreated), nil
}
