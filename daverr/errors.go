package daverr

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
)

type Kind int

const (
	KindLocked Kind = iota + 1
	KindInsufficientStorage
	KindConflict
	KindForbidden
	KindBadGateway
	KindPreconditionFailed
	KindNotFound
	KindUnsupportedType
	KindUnknownMethod
	KindBadRequestBody
	KindConflict409
	KindInvalidDestination
)

var kindTab = map[Kind]struct {
	name   string
	status int
}{
	KindLocked:              {"locked", http.StatusLocked},
	KindInsufficientStorage: {"insufficient_storage", http.StatusInsufficientStorage},
	KindConflict:            {"conflict", http.StatusMethodNotAllowed},
	KindForbidden:           {"forbidden", http.StatusForbidden},
	KindBadGateway:          {"bad_gateway", http.StatusBadGateway},
	KindPreconditionFailed:  {"precondition_failed", http.StatusPreconditionFailed},
	KindNotFound:            {"not_found", http.StatusNotFound},
	KindUnsupportedType:     {"unsupported_type", http.StatusUnsupportedMediaType},
	KindUnknownMethod:       {"unknown_method", http.StatusMethodNotAllowed},
	KindBadRequestBody:      {"bad_request_body", http.StatusBadRequest},
	KindConflict409:         {"conflict_409", http.StatusConflict},
	KindInvalidDestination:  {"invalid_destination", http.StatusBadGateway},
}

func (k Kind) String() string {
	if v, ok := kindTab[k]; ok {
		return v.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status 每种错误固定对应一个http状态码
func (k Kind) Status() int {
	if v, ok := kindTab[k]; ok {
		return v.status
	}
	return http.StatusInternalServerError
}

type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %v", e.kind.String(), e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() Kind {
	return e.kind
}

func New(k Kind) error {
	return &Error{kind: k}
}

func Errorf(k Kind, format string, args ...interface{}) error {
	return &Error{kind: k, err: fmt.Errorf(format, args...)}
}

func Wrap(k Kind, err error) error {
	return &Error{kind: k, err: err}
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return 0, false
}

func Is(err error, k Kind) bool {
	v, ok := KindOf(err)
	return ok && v == k
}

// StatusOf 非本包的错误一律按500处理
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	k, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	return k.Status()
}

// FromOSError 将文件系统错误转换为最接近的错误类型, 不存在的场景由调用方决定转换成什么
func FromOSError(err error, onNotExist Kind) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return err
	}
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return Wrap(KindInsufficientStorage, err)
	case errors.Is(err, os.ErrNotExist):
		return Wrap(onNotExist, err)
	case errors.Is(err, os.ErrPermission), errors.Is(err, syscall.EPERM):
		return Wrap(KindForbidden, err)
	case errors.Is(err, os.ErrExist):
		return Wrap(KindConflict, err)
	}
	return Wrap(KindForbidden, err)
}
