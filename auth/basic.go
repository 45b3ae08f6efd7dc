package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
)

const (
	BasicAuthName = "basic"
	BasicRealm    = `Basic realm="davgate"`
)

func init() {
	register(&basicAuth{})
}

type basicAuth struct {
}

func (b *basicAuth) Name() string {
	return BasicAuthName
}

func (b *basicAuth) Auth(ctx *gin.Context, fn UserQueryFunc) (string, error) {
	user, pwd, ok := ctx.Request.BasicAuth()
	if !ok {
		return "", fmt.Errorf("no auth found")
	}
	expect, ok, err := fn(ctx, user)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("user not found, u:%s", user)
	}
	if subtle.ConstantTimeCompare([]byte(expect), []byte(pwd)) != 1 {
		return "", fmt.Errorf("password not match, u:%s", user)
	}
	return user, nil
}
