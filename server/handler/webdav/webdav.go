package webdav

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/dav"
	"github.com/xxxsen/davgate/davpath"
	"go.uber.org/zap"
)

type WebdavHandler struct {
	d dav.IDispatcher
}

func NewWebdavHandler(d dav.IDispatcher) *WebdavHandler {
	return &WebdavHandler{d: d}
}

func requestScheme(r *http.Request) string {
	if len(r.URL.Scheme) > 0 {
		return r.URL.Scheme
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// buildRequest 路径保持未解码的形式, 由分发层按客户端类型解码
func buildRequest(c *gin.Context) *dav.Request {
	r := c.Request
	scheme := requestScheme(r)
	return &dav.Request{
		Method:   r.Method,
		RawPath:  r.URL.EscapedPath(),
		Strategy: davpath.DetectStrategy(r.UserAgent()),
		Header:   r.Header,
		Body:     r.Body,
		Host:     davpath.HostPort(r.Host, scheme),
		Scheme:   scheme,
	}
}

func (h *WebdavHandler) Handler(c *gin.Context) {
	ctx := c.Request.Context()
	rsp := h.d.Serve(ctx, buildRequest(c))
	for k, vs := range rsp.Header {
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}
	if rsp.Content != nil && rsp.Content.Reader != nil {
		defer rsp.Content.Reader.Close()
		// 由ServeContent处理range和条件请求
		http.ServeContent(c.Writer, c.Request, rsp.Content.Name, rsp.Content.ModTime, rsp.Content.Reader)
		return
	}
	c.Status(rsp.Status)
	if len(rsp.Body) == 0 {
		c.Writer.WriteHeaderNow()
		return
	}
	if _, err := c.Writer.Write(rsp.Body); err != nil {
		logutil.GetLogger(ctx).Error("write webdav response failed", zap.Error(err))
	}
}
