package dav

import (
	"context"
	"fmt"
	"net/http"
)

func (d *dispatcher) handleDelete(ctx context.Context, req *Request) (*Response, error) {
	p, err := d.resolvePath(req)
	if err != nil {
		return nil, err
	}
	res, err := d.mustResourceAt(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := d.p.Delete(ctx, res); err != nil {
		return nil, fmt.Errorf("delete resource failed, path:%s, err:%w", p, err)
	}
	return newResponse(http.StatusNoContent), nil
}
