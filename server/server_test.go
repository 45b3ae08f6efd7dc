package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studio-b12/gowebdav"
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/dav"
	"github.com/xxxsen/davgate/vfsdav"
)

const (
	testPrefix = "/webdav"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	p := vfsdav.NewMem(vfsdav.WithHrefPrefix(testPrefix))
	d := dav.New(p, dav.WithPrefix(testPrefix))
	opts = append([]Option{WithDispatcher(d), WithPrefix(testPrefix)}, opts...)
	svr, err := New(":0", opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method string, url string, body string, hdr map[string]string) *http.Response {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = rsp.Body.Close()
	})
	return rsp
}

func TestNewWithoutDispatcher(t *testing.T) {
	_, err := New(":0")
	assert.Error(t, err)
}

func TestClientRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	c := gowebdav.NewClient(ts.URL+testPrefix, "", "")

	require.NoError(t, c.Mkdir("/dir", 0755))
	require.NoError(t, c.Mkdir("/dir/sub", 0755))
	require.NoError(t, c.Write("/dir/a.txt", []byte("hello world"), 0644))

	data, err := c.Read("/dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	fi, err := c.Stat("/dir/a.txt")
	require.NoError(t, err)
	assert.False(t, fi.IsDir())
	assert.Equal(t, int64(11), fi.Size())

	require.NoError(t, c.Copy("/dir/a.txt", "/dir/b.txt", false))
	require.NoError(t, c.Rename("/dir/b.txt", "/c.txt", true))

	infos, err := c.ReadDir("/dir")
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, item := range infos {
		names = append(names, item.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.txt", "sub"}, names)

	data, err = c.Read("/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	require.NoError(t, c.Remove("/dir"))
	_, err = c.Stat("/dir")
	assert.Error(t, err)
}

func TestOptionsOnPrefix(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range []string{testPrefix, testPrefix + "/"} {
		rsp := doRequest(t, http.MethodOptions, ts.URL+p, "", nil)
		assert.Equal(t, http.StatusOK, rsp.StatusCode, "path:%s", p)
		assert.Equal(t, "1,2", rsp.Header.Get("DAV"))
		assert.Equal(t, "DAV", rsp.Header.Get("MS-Author-Via"))
	}
	rsp := doRequest(t, http.MethodGet, ts.URL+"/other/a.txt", "", nil)
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
}

func TestGetRange(t *testing.T) {
	ts := newTestServer(t)
	rsp := doRequest(t, http.MethodPut, ts.URL+testPrefix+"/a.txt", "0123456789", nil)
	require.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp = doRequest(t, http.MethodGet, ts.URL+testPrefix+"/a.txt", "", map[string]string{"Range": "bytes=2-4"})
	assert.Equal(t, http.StatusPartialContent, rsp.StatusCode)
	body, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, "234", string(body))

	rsp = doRequest(t, http.MethodHead, ts.URL+testPrefix+"/a.txt", "", nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, int64(10), rsp.ContentLength)
}

func TestMustAuth(t *testing.T) {
	ts := newTestServer(t, WithUser(map[string]string{"abc": "123"}))
	rsp := doRequest(t, "PROPFIND", ts.URL+testPrefix+"/", "", map[string]string{"Depth": "0"})
	assert.Equal(t, http.StatusUnauthorized, rsp.StatusCode)
	assert.NotEmpty(t, rsp.Header.Get("WWW-Authenticate"))

	req, err := http.NewRequest("PROPFIND", ts.URL+testPrefix+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Depth", "0")
	req.SetBasicAuth("abc", "123")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusMultiStatus, authed.StatusCode)
}

func TestTrustProxyDestination(t *testing.T) {
	hdr := map[string]string{
		"Destination":      "http://public.example.com/webdav/b.txt",
		"X-Forwarded-Host": "public.example.com",
	}
	ts := newTestServer(t)
	rsp := doRequest(t, http.MethodPut, ts.URL+testPrefix+"/a.txt", "x", nil)
	require.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp = doRequest(t, "COPY", ts.URL+testPrefix+"/a.txt", "", hdr)
	assert.Equal(t, http.StatusBadGateway, rsp.StatusCode)

	ts = newTestServer(t, WithTrustProxy(true))
	rsp = doRequest(t, http.MethodPut, ts.URL+testPrefix+"/a.txt", "x", nil)
	require.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp = doRequest(t, "COPY", ts.URL+testPrefix+"/a.txt", "", hdr)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
}

func TestUnknownMethod(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range []string{testPrefix, testPrefix + "/", testPrefix + "/a.txt"} {
		rsp := doRequest(t, "BREW", ts.URL+p, "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rsp.StatusCode, "path:%s", p)
	}
	rsp := doRequest(t, "BREW", ts.URL+"/other/a.txt", "", nil)
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
}

type denySecretAuthorizer struct{}

func (denySecretAuthorizer) Allow(ctx context.Context, in *auth.PolicyInput) (bool, error) {
	return in.Path != "/secret" && !strings.HasPrefix(in.Path, "/secret/"), nil
}

func TestAuthorizerSeesDecodedPath(t *testing.T) {
	ts := newTestServer(t, WithAuthorizer(denySecretAuthorizer{}))
	cadaver := map[string]string{"User-Agent": "cadaver/0.23.3"}
	rsp := doRequest(t, "MKCOL", ts.URL+testPrefix+"/secret", "", nil)
	assert.Equal(t, http.StatusForbidden, rsp.StatusCode)
	rsp = doRequest(t, "MKCOL", ts.URL+testPrefix+"/%2573ecret", "", cadaver)
	assert.Equal(t, http.StatusForbidden, rsp.StatusCode)

	rsp = doRequest(t, http.MethodPut, ts.URL+testPrefix+"/x.txt", "x", nil)
	require.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp = doRequest(t, "MOVE", ts.URL+testPrefix+"/x.txt", "", map[string]string{"Destination": ts.URL + testPrefix + "/secret/x.txt"})
	assert.Equal(t, http.StatusForbidden, rsp.StatusCode)

	rsp = doRequest(t, "PROPFIND", ts.URL+testPrefix+"/", "", map[string]string{"Depth": "infinity"})
	require.Equal(t, http.StatusMultiStatus, rsp.StatusCode)
	body, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret")
	assert.Contains(t, string(body), testPrefix+"/x.txt")
}
