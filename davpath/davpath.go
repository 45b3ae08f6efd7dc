package davpath

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/davgate/daverr"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

type Strategy int

const (
	StrategyDefault Strategy = iota
	StrategyLatin1
	StrategyDoubleDecode
	StrategyNFC
)

func (s Strategy) String() string {
	switch s {
	case StrategyLatin1:
		return "latin1"
	case StrategyDoubleDecode:
		return "double_decode"
	case StrategyNFC:
		return "nfc"
	}
	return "default"
}

var (
	windowsAgentRe = regexp.MustCompile(`Microsoft|Windows`)
	cadaverAgentRe = regexp.MustCompile(`cadaver`)
	darwinAgentRe  = regexp.MustCompile(`Darwin|Macintosh`)
)

// DetectStrategy 不同客户端对路径的编码方式不一样, 基于UA选择解码方式
func DetectStrategy(userAgent string) Strategy {
	switch {
	case windowsAgentRe.MatchString(userAgent):
		return StrategyLatin1
	case cadaverAgentRe.MatchString(userAgent):
		return StrategyDoubleDecode
	case darwinAgentRe.MatchString(userAgent):
		return StrategyNFC
	}
	return StrategyDefault
}

func ishex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}

// Unescape 宽松的百分号解码, 非法的转义序列原样保留
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			sb.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// Clean 统一为以'/'开头, 除根目录外不带'/'结尾的路径
func Clean(p string) string {
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

func Normalize(raw string, s Strategy) string {
	decoded := Unescape(raw)
	switch s {
	case StrategyLatin1:
		if !utf8.ValidString(decoded) {
			if v, err := charmap.ISO8859_1.NewDecoder().String(decoded); err == nil {
				decoded = v
			}
		}
	case StrategyDoubleDecode:
		decoded = Unescape(decoded)
	case StrategyNFC:
		decoded = norm.NFC.String(decoded)
	}
	return Clean(decoded)
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// HostPort 补全默认端口, 用于同源比较
func HostPort(host string, scheme string) string {
	if host == "" {
		return ""
	}
	if _, _, ok := splitHostPort(host); ok {
		return strings.ToLower(host)
	}
	port, ok := defaultPorts[strings.ToLower(scheme)]
	if !ok {
		port = "80"
	}
	return strings.ToLower(host) + ":" + port
}

func splitHostPort(hostport string) (string, string, bool) {
	idx := strings.LastIndex(hostport, ":")
	if idx < 0 {
		return hostport, "", false
	}
	//ipv6字面量, 如[::1]
	if strings.HasSuffix(hostport, "]") {
		return hostport, "", false
	}
	port := hostport[idx+1:]
	if _, err := strconv.Atoi(port); err != nil {
		return hostport, "", false
	}
	return hostport[:idx], port, true
}

// ResolveDestination 解析Destination头, 返回去掉前缀后(仍未解码)的路径
func ResolveDestination(header string, serverHostPort string, urlPrefix string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", daverr.Errorf(daverr.KindInvalidDestination, "no destination header")
	}
	if len(header) > 1 {
		header = strings.TrimSuffix(header, "/")
	}
	uri, err := url.Parse(header)
	if err != nil {
		return "", daverr.Wrap(daverr.KindInvalidDestination, err)
	}
	if uri.Host != "" {
		dst := HostPort(uri.Host, uri.Scheme)
		if dst != strings.ToLower(serverHostPort) {
			return "", daverr.Errorf(daverr.KindBadGateway, "destination host not match, dst:%s, server:%s", dst, serverHostPort)
		}
	}
	p := uri.EscapedPath()
	rest, ok := StripPrefix(p, urlPrefix)
	if !ok {
		return "", daverr.Errorf(daverr.KindForbidden, "destination out of prefix, path:%s, prefix:%s", p, urlPrefix)
	}
	return rest, nil
}

// StripPrefix 前缀必须按路径段匹配, /webdav 不能匹配 /webdavx
func StripPrefix(p string, prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return p, true
	}
	if p == prefix {
		return "/", true
	}
	if !strings.HasPrefix(p, prefix+"/") {
		return "", false
	}
	return p[len(prefix):], true
}

// ParseDepth infinity被收敛为max, 超过max的值被截断而不是拒绝
func ParseDepth(header string, def int, max int) int {
	header = strings.TrimSpace(header)
	var depth int
	switch {
	case header == "":
		depth = def
	case strings.EqualFold(header, "infinity"):
		depth = max
	default:
		v, err := strconv.Atoi(header)
		if err != nil {
			v = 0
		}
		depth = v
	}
	if depth < 0 {
		depth = 0
	}
	if depth > max {
		depth = max
	}
	return depth
}

func ParseOverwrite(header string) bool {
	return strings.TrimSpace(header) == "T"
}

// Href 构建客户端可见的地址, 路径中不能出现字面量'+', 部分客户端会把它当成空格
func Href(prefix string, p string, isCollection bool) string {
	prefix = strings.TrimSuffix(prefix, "/")
	p = Clean(p)
	escaped := (&url.URL{Path: p}).EscapedPath()
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	href := prefix + escaped
	if isCollection {
		if !strings.HasSuffix(href, "/") {
			href += "/"
		}
		return href
	}
	return strings.TrimSuffix(href, "/")
}
