package middleware

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi/proxyutil"
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/davpath"
	"go.uber.org/zap"
)

// policyPath 与分发层使用相同的解码方式, 保证策略看到的路径就是最终访问的路径
func policyPath(escaped string, prefix string, s davpath.Strategy) string {
	if rest, ok := davpath.StripPrefix(escaped, prefix); ok {
		escaped = rest
	}
	return davpath.Normalize(escaped, s)
}

// destinationPath 解析COPY/MOVE的目标路径, 非法的目标由分发层拒绝
func destinationPath(header string, prefix string, s davpath.Strategy) (string, bool) {
	if len(header) == 0 {
		return "", false
	}
	uri, err := url.Parse(header)
	if err != nil {
		return "", false
	}
	rest, ok := davpath.StripPrefix(uri.EscapedPath(), prefix)
	if !ok {
		return "", false
	}
	return davpath.Normalize(rest, s), true
}

// AuthzMiddleware 请求分发前按策略鉴权, 策略执行失败时按拒绝处理
func AuthzMiddleware(az auth.IAuthorizer, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		s := davpath.DetectStrategy(c.Request.UserAgent())
		in := &auth.PolicyInput{
			Method: c.Request.Method,
			Path:   policyPath(c.Request.URL.EscapedPath(), prefix, s),
		}
		if u, ok := auth.GetUserInfo(ctx); ok {
			in.User = u.Username
		}
		inputs := []*auth.PolicyInput{in}
		if dst, ok := destinationPath(c.GetHeader("Destination"), prefix, s); ok {
			inputs = append(inputs, &auth.PolicyInput{Method: in.Method, Path: dst, User: in.User})
		}
		for _, item := range inputs {
			ok, err := az.Allow(ctx, item)
			if err != nil {
				logutil.GetLogger(ctx).Error("eval authz policy failed", zap.Error(err))
			}
			if err != nil || !ok {
				proxyutil.FailStatus(c, http.StatusForbidden, fmt.Errorf("access denied, user:%s, method:%s, path:%s", item.User, item.Method, item.Path))
				c.Abort()
				return
			}
		}
	}
}
