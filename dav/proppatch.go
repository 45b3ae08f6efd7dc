package dav

import (
	"context"

	"github.com/xxxsen/davgate/davxml"
	"github.com/xxxsen/davgate/resource"
)

func (d *dispatcher) handleProppatch(ctx context.Context, req *Request) (*Response, error) {
	p, err := d.resolvePath(req)
	if err != nil {
		return nil, err
	}
	res, err := d.mustResourceAt(ctx, p)
	if err != nil {
		return nil, err
	}
	body, err := readXMLBody(req)
	if err != nil {
		return nil, err
	}
	update, err := davxml.ParsePropertyUpdate(body)
	if err != nil {
		return nil, err
	}
	removed, set := resource.ApplyPropertyUpdate(res, update.RemoveRequests(), update.SetRequests())
	return d.multistatusResponse(davxml.BuildProppatch(res.Href(), update, removed, set))
}
