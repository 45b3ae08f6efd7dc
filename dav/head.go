package dav

import (
	"context"
	"net/http"
	"strconv"
)

func (d *dispatcher) handleHead(ctx context.Context, req *Request) (*Response, error) {
	res, data, err := d.openContent(ctx, req)
	if err != nil {
		return nil, err
	}
	_ = data.Reader.Close()
	rsp := newResponse(http.StatusOK)
	contentHeaders(rsp, res)
	rsp.Header.Set("Content-Length", strconv.FormatInt(data.Size, 10))
	return rsp, nil
}
