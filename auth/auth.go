package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

type UserQueryFunc func(ctx context.Context, user string) (string, bool, error)

func MapUserMatch(ud map[string]string) UserQueryFunc {
	return func(ctx context.Context, user string) (string, bool, error) {
		pwd, ok := ud[user]
		if !ok {
			return "", false, nil
		}
		return pwd, true, nil
	}
}

type IAuth interface {
	Name() string
	Auth(ctx *gin.Context, userdata UserQueryFunc) (string, error)
}

var mp = make(map[string]IAuth)

func register(fn IAuth) {
	mp[fn.Name()] = fn
}

func AuthList() []IAuth {
	rs := make([]IAuth, 0, len(mp))
	for _, v := range mp {
		rs = append(rs, v)
	}
	return rs
}

type UserInfo struct {
	AuthType string
	Username string
}

type userInfoKey struct{}

func SetUserInfo(ctx context.Context, u *UserInfo) context.Context {
	return context.WithValue(ctx, userInfoKey{}, u)
}

func GetUserInfo(ctx context.Context) (*UserInfo, bool) {
	u, ok := ctx.Value(userInfoKey{}).(*UserInfo)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}
