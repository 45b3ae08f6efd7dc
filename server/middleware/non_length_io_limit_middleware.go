package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi/proxyutil"
	"go.uber.org/zap"
)

const (
	DefaultMaxAllowChunkStreamLength = 32 * 1024 * 1024 //32MB
)

// NonLengthIOLimitMiddleware 没有content-length的chunked请求先读入内存, 超过限制直接拒绝
func NonLengthIOLimitMiddleware(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultMaxAllowChunkStreamLength
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength >= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		logutil.GetLogger(ctx).Debug("recv non-content-length io request")
		if len(c.Request.TransferEncoding) == 0 || c.Request.TransferEncoding[0] != "chunked" {
			proxyutil.FailStatus(c, http.StatusBadRequest, fmt.Errorf("only chunked encoding can use content-length = -1"))
			c.Abort()
			return
		}
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
		if err != nil {
			proxyutil.FailStatus(c, http.StatusBadRequest, fmt.Errorf("read client data failed, err:%w", err))
			c.Abort()
			return
		}
		logutil.GetLogger(ctx).Debug("read chunk stream from client", zap.Int("length", len(data)))
		if int64(len(data)) > limit {
			proxyutil.FailStatus(c, http.StatusRequestEntityTooLarge, fmt.Errorf("chunk stream exceed length limit"))
			c.Abort()
			return
		}
		c.Request.Body = &readCloserWrap{
			r: bytes.NewReader(data),
			c: c.Request.Body,
		}
		c.Request.ContentLength = int64(len(data))
	}
}

type readCloserWrap struct {
	r io.Reader
	c io.Closer
}

func (c *readCloserWrap) Read(p []byte) (n int, err error) {
	return c.r.Read(p)
}

func (c *readCloserWrap) Close() error {
	return c.c.Close()
}
