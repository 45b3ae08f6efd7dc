package dav

import "context"

func (d *dispatcher) handleMove(ctx context.Context, req *Request) (*Response, error) {
	return d.transfer(ctx, req, d.p.Move)
}
