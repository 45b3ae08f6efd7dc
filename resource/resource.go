package resource

import (
	"context"
	"io"
	"time"

	"github.com/xxxsen/davgate/daverr"
)

// Content 资源的数据流, 为nil时表示资源没有可读取的数据
type Content struct {
	Reader  io.ReadSeekCloser
	Name    string
	ModTime time.Time
	Size    int64
}

// IResource 对外暴露的层级结构中的一个节点, 每个请求按需创建, 不跨请求复用
type IResource interface {
	Path() string
	Href() string
	IsCollection() bool
	Properties() PropertyTable
	Status() string
	Children(ctx context.Context) ([]IResource, error)
	Data(ctx context.Context) (*Content, error)
}

// IProvider 后端需要实现的能力集合, 未实现的能力统一返回Forbidden
type IProvider interface {
	// ResourceAt 资源不存在时返回(nil, nil)
	ResourceAt(ctx context.Context, path string) (IResource, error)
	CreateCollection(ctx context.Context, path string) error
	WriteContent(ctx context.Context, path string, r io.Reader) error
	Copy(ctx context.Context, src IResource, dst string, depth int) error
	Move(ctx context.Context, src IResource, dst string, depth int) error
	Delete(ctx context.Context, res IResource) error
}

// UnimplementedProvider 嵌入到后端实现中, 后端只需要覆盖支持的方法
type UnimplementedProvider struct{}

func (UnimplementedProvider) ResourceAt(ctx context.Context, path string) (IResource, error) {
	return nil, daverr.New(daverr.KindForbidden)
}

func (UnimplementedProvider) CreateCollection(ctx context.Context, path string) error {
	return daverr.New(daverr.KindForbidden)
}

func (UnimplementedProvider) WriteContent(ctx context.Context, path string, r io.Reader) error {
	return daverr.New(daverr.KindForbidden)
}

func (UnimplementedProvider) Copy(ctx context.Context, src IResource, dst string, depth int) error {
	return daverr.New(daverr.KindForbidden)
}

func (UnimplementedProvider) Move(ctx context.Context, src IResource, dst string, depth int) error {
	return daverr.New(daverr.KindForbidden)
}

func (UnimplementedProvider) Delete(ctx context.Context, res IResource) error {
	return daverr.New(daverr.KindForbidden)
}
