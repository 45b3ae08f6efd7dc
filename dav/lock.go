package dav

import (
	"context"
	"net/http"
)

// TODO: 目前没有锁实现, LOCK/UNLOCK直接返回200, 需要时可基于webdav.NewMemLS补上
func (d *dispatcher) handleLock(ctx context.Context, req *Request) (*Response, error) {
	return newResponse(http.StatusOK), nil
}

func (d *dispatcher) handleUnlock(ctx context.Context, req *Request) (*Response, error) {
	return newResponse(http.StatusOK), nil
}
