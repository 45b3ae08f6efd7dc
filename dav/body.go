package dav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xxxsen/davgate/daverr"
)

const (
	maxXMLBodySize = 4 * 1024 * 1024 //4MB
)

func readXMLBody(req *Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, maxXMLBodySize+1))
	if err != nil {
		return nil, daverr.Wrap(daverr.KindBadRequestBody, fmt.Errorf("read body failed, err:%w", err))
	}
	if len(data) > maxXMLBodySize {
		return nil, daverr.Errorf(daverr.KindBadRequestBody, "xml body too large")
	}
	return data, nil
}

func hasBody(req *Request) (bool, error) {
	if req.Body == nil {
		return false, nil
	}
	buf := make([]byte, 1)
	n, err := io.ReadFull(req.Body, buf)
	if n > 0 {
		return true, nil
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, daverr.Wrap(daverr.KindBadRequestBody, err)
	}
	return false, nil
}

func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
