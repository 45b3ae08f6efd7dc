package dav

import (
	"context"
	"net/http"
	"strings"
)

var (
	defaultVersions = []string{"1", "2"}
	defaultActions  = []string{
		http.MethodGet,
		http.MethodHead,
		MethodLock,
		MethodUnlock,
		http.MethodOptions,
		MethodPropfind,
		MethodProppatch,
		MethodMkcol,
		http.MethodDelete,
		http.MethodPut,
		MethodCopy,
		MethodMove,
	}
)

func (d *dispatcher) allowMethods() []string {
	rs := make([]string, 0, len(defaultActions)+len(d.c.extraMethods))
	rs = append(rs, defaultActions...)
	for _, m := range d.c.extraMethods {
		if !containsMethod(rs, m) {
			rs = append(rs, m)
		}
	}
	return rs
}

func (d *dispatcher) handleOptions(ctx context.Context, req *Request) (*Response, error) {
	versions := append(append([]string{}, defaultVersions...), d.c.extraVersions...)
	rsp := newResponse(http.StatusOK)
	rsp.Header.Set("DAV", strings.Join(versions, ","))
	rsp.Header.Set("MS-Author-Via", "DAV")
	rsp.Header.Set("Allow", strings.Join(d.allowMethods(), ","))
	return rsp, nil
}
