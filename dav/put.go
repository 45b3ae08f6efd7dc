package dav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

func (d *dispatcher) handlePut(ctx context.Context, req *Request) (*Response, error) {
	p, err := d.resolvePath(req)
	if err != nil {
		return nil, err
	}
	var r io.Reader = req.Body
	if r == nil {
		r = bytes.NewReader(nil)
	}
	if err := d.p.WriteContent(ctx, p, r); err != nil {
		return nil, fmt.Errorf("write content failed, path:%s, err:%w", p, err)
	}
	return newResponse(http.StatusCreated), nil
}
