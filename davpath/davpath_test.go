package davpath

import (
	"math/rand"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/davgate/daverr"
)

func TestDetectStrategy(t *testing.T) {
	testList := []struct {
		ua string
		s  Strategy
	}{
		{"Microsoft-WebDAV-MiniRedir/10.0.19045", StrategyLatin1},
		{"Mozilla/5.0 (Windows NT 10.0)", StrategyLatin1},
		{"cadaver/0.23.3 neon/0.31.2", StrategyDoubleDecode},
		{"WebDAVFS/3.0.0 (03008000) Darwin/22.1.0", StrategyNFC},
		{"gowebdav", StrategyDefault},
		{"", StrategyDefault},
	}
	for _, item := range testList {
		assert.Equal(t, item.s, DetectStrategy(item.ua), item.ua)
	}
}

func TestNormalize(t *testing.T) {
	testList := []struct {
		raw string
		s   Strategy
		out string
	}{
		{"", StrategyDefault, "/"},
		{"/", StrategyDefault, "/"},
		{"/a/b/", StrategyDefault, "/a/b"},
		{"a//b/./c", StrategyDefault, "/a/b/c"},
		{"/a/../../b", StrategyDefault, "/b"},
		{"/hello%20world.txt", StrategyDefault, "/hello world.txt"},
		{"/bad%zzescape", StrategyDefault, "/bad%zzescape"},
		{"/tail%2", StrategyDefault, "/tail%2"},
		{"/a%2520b", StrategyDefault, "/a%20b"},
		{"/a%2520b", StrategyDoubleDecode, "/a b"},
		{"/caf%E9", StrategyLatin1, "/café"},
		{"/caf%C3%A9", StrategyLatin1, "/café"},
		{"/cafe%CC%81", StrategyNFC, "/café"},
	}
	for _, item := range testList {
		assert.Equal(t, item.out, Normalize(item.raw, item.s), item.raw)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	alphabet := []rune("abcXYZ019 .-_+~/éü中")
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := r.Intn(24)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteRune(alphabet[r.Intn(len(alphabet))])
		}
		raw := (&url.URL{Path: sb.String()}).EscapedPath()
		once := Normalize(raw, StrategyDefault)
		twice := Normalize(once, StrategyDefault)
		assert.Equal(t, once, twice, "raw:%s", raw)
	}
}

// 输出本身含有百分号转义时, 再次规范化会继续解码
func TestNormalizeEscapedOutput(t *testing.T) {
	once := Normalize("/%2541", StrategyDefault)
	assert.Equal(t, "/%41", once)
	assert.Equal(t, "/A", Normalize(once, StrategyDefault))

	//非法的转义序列保持原样, 因此可以重复规范化
	once = Normalize("/100%25zz", StrategyDefault)
	assert.Equal(t, "/100%zz", once)
	assert.Equal(t, once, Normalize(once, StrategyDefault))
}

func TestResolveDestination(t *testing.T) {
	p, err := ResolveDestination("http://example.com:8080/webdav/a/b.txt", "example.com:8080", "/webdav")
	require.NoError(t, err)
	assert.Equal(t, "/a/b.txt", p)

	//末尾的'/'会在解析前被移除
	p, err = ResolveDestination("http://example.com/webdav/dir/", "example.com:80", "/webdav")
	require.NoError(t, err)
	assert.Equal(t, "/dir", p)

	p, err = ResolveDestination("https://EXAMPLE.com/webdav/x%20y", "example.com:443", "/webdav/")
	require.NoError(t, err)
	assert.Equal(t, "/x%20y", p)

	p, err = ResolveDestination("/webdav/rel", "example.com:80", "/webdav")
	require.NoError(t, err)
	assert.Equal(t, "/rel", p)

	_, err = ResolveDestination("http://other.com:8080/webdav/a", "example.com:8080", "/webdav")
	assert.True(t, daverr.Is(err, daverr.KindBadGateway))

	_, err = ResolveDestination("http://example.com:9090/webdav/a", "example.com:8080", "/webdav")
	assert.True(t, daverr.Is(err, daverr.KindBadGateway))

	_, err = ResolveDestination("http://example.com:8080/other/a", "example.com:8080", "/webdav")
	assert.True(t, daverr.Is(err, daverr.KindForbidden))

	_, err = ResolveDestination("http://example.com:8080/webdavx/a", "example.com:8080", "/webdav")
	assert.True(t, daverr.Is(err, daverr.KindForbidden))

	_, err = ResolveDestination("http://[::1", "example.com:8080", "/webdav")
	assert.True(t, daverr.Is(err, daverr.KindInvalidDestination))
	assert.Equal(t, 502, daverr.StatusOf(err))

	_, err = ResolveDestination("", "example.com:8080", "/webdav")
	assert.True(t, daverr.Is(err, daverr.KindInvalidDestination))

	p, err = ResolveDestination("http://example.com:8080/a/b", "example.com:8080", "")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", p)
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "example.com:80", HostPort("example.com", "http"))
	assert.Equal(t, "example.com:443", HostPort("Example.com", "https"))
	assert.Equal(t, "example.com:8080", HostPort("example.com:8080", "https"))
	assert.Equal(t, "[::1]:80", HostPort("[::1]", "http"))
	assert.Equal(t, "[::1]:8080", HostPort("[::1]:8080", "http"))
	assert.Equal(t, "", HostPort("", "http"))
}

func TestParseDepth(t *testing.T) {
	assert.Equal(t, 1, ParseDepth("", 1, 500))
	assert.Equal(t, 500, ParseDepth("", 500, 500))
	assert.Equal(t, 0, ParseDepth("0", 1, 500))
	assert.Equal(t, 1, ParseDepth("1", 1, 500))
	assert.Equal(t, 500, ParseDepth("infinity", 1, 500))
	assert.Equal(t, 20, ParseDepth("Infinity", 1, 20))
	assert.Equal(t, 20, ParseDepth("9999", 1, 20))
	assert.Equal(t, 0, ParseDepth("abc", 1, 20))
	assert.Equal(t, 0, ParseDepth("-3", 1, 20))
}

func TestParseOverwrite(t *testing.T) {
	assert.True(t, ParseOverwrite("T"))
	assert.False(t, ParseOverwrite("F"))
	assert.False(t, ParseOverwrite(""))
	assert.False(t, ParseOverwrite("t"))
}

func TestHref(t *testing.T) {
	assert.Equal(t, "/webdav/", Href("/webdav", "/", true))
	assert.Equal(t, "/webdav/a/", Href("/webdav/", "/a", true))
	assert.Equal(t, "/webdav/a/b.txt", Href("/webdav", "/a/b.txt", false))
	assert.Equal(t, "/webdav/hello%20world.txt", Href("/webdav", "/hello world.txt", false))
	assert.Equal(t, "/webdav/a%20b.txt", Href("/webdav", "/a+b.txt", false))
	assert.Equal(t, "/x/", Href("", "/x", true))
	assert.NotContains(t, Href("/webdav", "/c++ notes/", true), "+")
}
