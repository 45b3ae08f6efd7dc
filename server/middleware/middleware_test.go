package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/davgate/auth"
)

type staticAuthorizer struct {
	allow func(in *auth.PolicyInput) bool
}

func (s *staticAuthorizer) Allow(ctx context.Context, in *auth.PolicyInput) (bool, error) {
	return s.allow(in), nil
}

func newEngine(mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(mws...)
	h := func(c *gin.Context) {
		user := ""
		if u, ok := auth.GetUserInfo(c.Request.Context()); ok {
			user = u.Username
		}
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, "%s:%d", user, len(body))
	}
	e.Any("/*all", h)
	for _, m := range []string{"MKCOL", "COPY", "MOVE"} {
		e.Handle(m, "/*all", h)
	}
	return e
}

func TestAuthChain(t *testing.T) {
	e := newEngine(TryAuthMiddleware(map[string]string{"abc": "123"}), MustAuthMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/a", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.BasicRealm, rec.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest(http.MethodGet, "/a", nil)
	req.SetBasicAuth("abc", "bad")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/a", nil)
	req.SetBasicAuth("abc", "123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc:0", rec.Body.String())
}

func TestAuthzMiddleware(t *testing.T) {
	az := &staticAuthorizer{allow: func(in *auth.PolicyInput) bool {
		return in.Method == http.MethodGet || in.User == "admin"
	}}
	e := newEngine(TryAuthMiddleware(map[string]string{"admin": "1", "guest": "2"}), AuthzMiddleware(az, ""))
	testList := []struct {
		method string
		user   string
		pwd    string
		code   int
	}{
		{http.MethodGet, "guest", "2", http.StatusOK},
		{http.MethodPut, "guest", "2", http.StatusForbidden},
		{http.MethodPut, "admin", "1", http.StatusOK},
		{http.MethodDelete, "", "", http.StatusForbidden},
	}
	for _, item := range testList {
		req := httptest.NewRequest(item.method, "/x", nil)
		if item.user != "" {
			req.SetBasicAuth(item.user, item.pwd)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, item.code, rec.Code, "method:%s, user:%s", item.method, item.user)
	}
}

func TestAuthzDecodedPath(t *testing.T) {
	az := &staticAuthorizer{allow: func(in *auth.PolicyInput) bool {
		return in.Path != "/secret" && !strings.HasPrefix(in.Path, "/secret/")
	}}
	e := newEngine(AuthzMiddleware(az, "/webdav"))
	testList := []struct {
		name   string
		method string
		target string
		ua     string
		dst    string
		code   int
	}{
		{"plain", "MKCOL", "/webdav/secret", "", "", http.StatusForbidden},
		{"single escape", "MKCOL", "/webdav/%73ecret", "", "", http.StatusForbidden},
		{"double escape with cadaver", "MKCOL", "/webdav/%2573ecret", "cadaver/0.23.3", "", http.StatusForbidden},
		{"double escape default", "MKCOL", "/webdav/%2573ecret", "", "", http.StatusOK},
		{"move into denied dir", "MOVE", "/webdav/a.txt", "", "http://example.com/webdav/secret/x.txt", http.StatusForbidden},
		{"copy into escaped denied dir", "COPY", "/webdav/a.txt", "cadaver/0.23.3", "/webdav/%2573ecret/x.txt", http.StatusForbidden},
		{"move allowed", "MOVE", "/webdav/a.txt", "", "http://example.com/webdav/b.txt", http.StatusOK},
		{"secret lookalike", "GET", "/webdav/secretx", "", "", http.StatusOK},
	}
	for _, item := range testList {
		req := httptest.NewRequest(item.method, item.target, nil)
		if item.ua != "" {
			req.Header.Set("User-Agent", item.ua)
		}
		if item.dst != "" {
			req.Header.Set("Destination", item.dst)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, item.code, rec.Code, "case:%s", item.name)
	}
}

func TestNonLengthIOLimit(t *testing.T) {
	e := newEngine(AccessLogMiddleware(), NonLengthIOLimitMiddleware(8))

	req := httptest.NewRequest(http.MethodPut, "/a", strings.NewReader("12345"))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ":5", rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/a", strings.NewReader("123456789"))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/a", strings.NewReader("1"))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/a", strings.NewReader("123456789"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ":9", rec.Body.String())
}
