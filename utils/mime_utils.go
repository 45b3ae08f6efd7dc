package utils

import (
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	defaultMimeType = "application/octet-stream"
)

type OpenFunc func() (io.ReadCloser, error)

// DetermineMimeType 优先按扩展名判断, 失败再读取文件头做探测
func DetermineMimeType(filename string, open OpenFunc) string {
	if mt := mime.TypeByExtension(path.Ext(filename)); mt != "" {
		return mt
	}
	if open == nil {
		return defaultMimeType
	}
	rc, err := open()
	if err != nil {
		return defaultMimeType
	}
	defer rc.Close()
	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return defaultMimeType
	}
	// 探测结果为兜底类型时, 保持与扩展名失败时一致
	if s := mt.String(); s != "" && !strings.HasPrefix(s, defaultMimeType) {
		return s
	}
	return defaultMimeType
}
