package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/davgate/auth"
)

func MustAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		_, ok := auth.GetUserInfo(ctx.Request.Context())
		if !ok {
			ctx.Header("WWW-Authenticate", auth.BasicRealm)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}
}
