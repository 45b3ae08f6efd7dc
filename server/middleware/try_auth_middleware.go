package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/auth"
	"go.uber.org/zap"
)

func TryAuthMiddleware(users map[string]string) gin.HandlerFunc {
	matchfn := auth.MapUserMatch(users)
	return tryAuthMiddleware(matchfn, auth.AuthList()...)
}

func tryAuthMiddleware(matchfn auth.UserQueryFunc, ats ...auth.IAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		for _, fn := range ats {
			user, err := fn.Auth(c, matchfn)
			if err != nil {
				continue
			}
			logutil.GetLogger(ctx).Debug("user auth succ", zap.String("auth", fn.Name()), zap.String("user", user),
				zap.String("method", c.Request.Method), zap.String("ip", c.ClientIP()))
			ctx = auth.SetUserInfo(ctx, &auth.UserInfo{
				AuthType: fn.Name(),
				Username: user,
			})
			c.Request = c.Request.WithContext(ctx)
			return
		}
	}
}
