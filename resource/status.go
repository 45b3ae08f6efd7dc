package resource

import (
	"fmt"
	"net/http"
)

var (
	StatusOK       = StatusLine(http.StatusOK)
	StatusConflict = StatusLine(http.StatusConflict)
)

// StatusLine 生成完整的http状态行, 如: HTTP/1.1 200 OK
func StatusLine(code int) string {
	return fmt.Sprintf("HTTP/1.1 %d %s", code, http.StatusText(code))
}
