package dav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/resource"
	"go.uber.org/zap"
)

const (
	MethodPropfind  = "PROPFIND"
	MethodProppatch = "PROPPATCH"
	MethodMkcol     = "MKCOL"
	MethodCopy      = "COPY"
	MethodMove      = "MOVE"
	MethodLock      = "LOCK"
	MethodUnlock    = "UNLOCK"
)

// Request 与传输层无关的请求描述
type Request struct {
	Method string
	// RawPath 未解码的url路径, 包含前缀
	RawPath  string
	Strategy davpath.Strategy
	Header   http.Header
	Body     io.Reader
	// Host 带端口的host, 如: example.com:443
	Host   string
	Scheme string
}

// Response Content不为空时, 传输层负责把数据流写回并关闭
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	Content *resource.Content
}

type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

type BeforeHook func(ctx context.Context, req *Request) error

type AfterHook func(ctx context.Context, req *Request, rsp *Response) error

type IDispatcher interface {
	Serve(ctx context.Context, req *Request) *Response
	Methods() []string
}

type dispatcher struct {
	c        *config
	p        resource.IProvider
	handlers map[string]HandlerFunc
}

func New(p resource.IProvider, opts ...Option) IDispatcher {
	c := applyOpts(opts...)
	d := &dispatcher{c: c, p: p}
	d.handlers = map[string]HandlerFunc{
		http.MethodOptions: d.handleOptions,
		MethodLock:         d.handleLock,
		MethodUnlock:       d.handleUnlock,
		MethodPropfind:     d.handlePropfind,
		MethodProppatch:    d.handleProppatch,
		MethodMkcol:        d.handleMkcol,
		http.MethodDelete:  d.handleDelete,
		http.MethodPut:     d.handlePut,
		MethodCopy:         d.handleCopy,
		MethodMove:         d.handleMove,
		http.MethodGet:     d.handleGet,
		http.MethodHead:    d.handleHead,
	}
	for m, fn := range c.handlers {
		d.handlers[m] = fn
	}
	return d
}

func newResponse(status int) *Response {
	return &Response{Status: status, Header: make(http.Header)}
}

// Methods 需要在路由上注册的全部方法
func (d *dispatcher) Methods() []string {
	rs := d.allowMethods()
	for m := range d.c.handlers {
		if !containsMethod(rs, m) {
			rs = append(rs, m)
		}
	}
	return rs
}

// Serve 所有错误在这里统一转换为状态码, 错误响应不带body
func (d *dispatcher) Serve(ctx context.Context, req *Request) *Response {
	method := strings.ToUpper(req.Method)
	rsp, err := d.serve(ctx, method, req)
	if err == nil {
		return rsp
	}
	if rsp != nil && rsp.Content != nil && rsp.Content.Reader != nil {
		_ = rsp.Content.Reader.Close()
	}
	status := daverr.StatusOf(err)
	logger := logutil.GetLogger(ctx).With(zap.String("method", method), zap.String("path", req.RawPath),
		zap.Int("status", status), zap.Error(err))
	if status >= http.StatusInternalServerError || status == http.StatusForbidden {
		logger.Error("handle webdav request failed")
	} else {
		logger.Debug("handle webdav request failed")
	}
	return newResponse(status)
}

func (d *dispatcher) serve(ctx context.Context, method string, req *Request) (*Response, error) {
	fn, ok := d.handlers[method]
	if !ok {
		return nil, daverr.Errorf(daverr.KindUnknownMethod, "unknown method:%s", method)
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	for _, hk := range d.c.before[method] {
		if err := hk(ctx, req); err != nil {
			return nil, fmt.Errorf("call before hook failed, err:%w", err)
		}
	}
	rsp, err := fn(ctx, req)
	if err != nil {
		return rsp, err
	}
	for _, hk := range d.c.after[method] {
		if err := hk(ctx, req, rsp); err != nil {
			return rsp, fmt.Errorf("call after hook failed, err:%w", err)
		}
	}
	return rsp, nil
}

// resolvePath 去掉前缀并按客户端的解码策略规范化路径
func (d *dispatcher) resolvePath(req *Request) (string, error) {
	raw, ok := davpath.StripPrefix(req.RawPath, d.c.prefix)
	if !ok {
		return "", daverr.Errorf(daverr.KindNotFound, "path out of prefix, path:%s", req.RawPath)
	}
	return davpath.Normalize(raw, req.Strategy), nil
}

func (d *dispatcher) resourceAt(ctx context.Context, p string) (resource.IResource, error) {
	res, err := d.p.ResourceAt(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("find resource failed, path:%s, err:%w", p, err)
	}
	return res, nil
}

func (d *dispatcher) mustResourceAt(ctx context.Context, p string) (resource.IResource, error) {
	res, err := d.resourceAt(ctx, p)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, daverr.Errorf(daverr.KindNotFound, "resource not found, path:%s", p)
	}
	return res, nil
}

func containsMethod(lst []string, m string) bool {
	for _, item := range lst {
		if item == m {
			return true
		}
	}
	return false
}
