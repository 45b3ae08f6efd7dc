package resource

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/davgate/daverr"
)

type fakeResource struct {
	path     string
	isDir    bool
	children []IResource
	props    PropertyTable
	listErr  error
}

func (f *fakeResource) Path() string              { return f.path }
func (f *fakeResource) Href() string              { return f.path }
func (f *fakeResource) IsCollection() bool        { return f.isDir }
func (f *fakeResource) Properties() PropertyTable { return f.props }
func (f *fakeResource) Status() string            { return StatusOK }
func (f *fakeResource) Children(ctx context.Context) ([]IResource, error) {
	return f.children, f.listErr
}
func (f *fakeResource) Data(ctx context.Context) (*Content, error) { return nil, nil }

func newTree() *fakeResource {
	return &fakeResource{
		path:  "/",
		isDir: true,
		children: []IResource{
			&fakeResource{
				path:  "/a",
				isDir: true,
				children: []IResource{
					&fakeResource{path: "/a/1.txt"},
					&fakeResource{
						path:     "/a/b",
						isDir:    true,
						children: []IResource{&fakeResource{path: "/a/b/2.txt"}},
					},
				},
			},
			nil,
			&fakeResource{path: "/3.txt"},
		},
	}
}

func paths(rs []IResource) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Path())
	}
	return out
}

func TestWalk(t *testing.T) {
	ctx := context.Background()
	root := newTree()
	testList := []struct {
		depth int
		want  []string
	}{
		{0, []string{"/"}},
		{1, []string{"/", "/a", "/3.txt"}},
		{2, []string{"/", "/a", "/a/1.txt", "/a/b", "/3.txt"}},
		{500, []string{"/", "/a", "/a/1.txt", "/a/b", "/a/b/2.txt", "/3.txt"}},
	}
	for _, item := range testList {
		rs, err := Walk(ctx, root, item.depth)
		require.NoError(t, err)
		assert.Equal(t, item.want, paths(rs), "depth:%d", item.depth)
	}
}

func TestWalkListError(t *testing.T) {
	root := &fakeResource{path: "/", isDir: true, listErr: daverr.New(daverr.KindForbidden)}
	_, err := Walk(context.Background(), root, 1)
	assert.True(t, daverr.Is(err, daverr.KindForbidden))
	rs, err := Walk(context.Background(), root, 0)
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}

func TestWalkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, newTree(), 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGetProperties(t *testing.T) {
	r := &fakeResource{
		props: PropertyTable{
			{Name: PropDisplayName, Get: func() string { return "x.txt" }},
			{Name: PropETag},
			{Name: PropContentLength, Get: func() string { return "5" }},
		},
	}
	assert.Equal(t, []PropertyValue{
		{Name: PropDisplayName, Value: "x.txt"},
		{Name: PropETag, Value: ""},
		{Name: PropContentLength, Value: "5"},
	}, GetProperties(r))
	v, ok := GetProperty(r, PropContentLength)
	assert.True(t, ok)
	assert.Equal(t, "5", v)
	_, ok = GetProperty(r, PropETag)
	assert.False(t, ok)
	_, ok = GetProperty(r, "unknown")
	assert.False(t, ok)
	assert.Equal(t, []string{PropDisplayName, PropETag, PropContentLength}, r.Properties().Names())
}

func TestApplyPropertyUpdate(t *testing.T) {
	var setValue string
	touched := 0
	removed := 0
	r := &fakeResource{
		props: PropertyTable{
			{Name: "withset", Set: func(v string) string {
				setValue = v
				if v == "" {
					return StatusConflict
				}
				return StatusOK
			}},
			{Name: "withtouch", Touch: func() string {
				touched++
				return StatusLine(500)
			}},
			{Name: "withremove", Remove: func() string {
				removed++
				return StatusConflict
			}},
			{Name: "plain"},
		},
	}
	rm, st := ApplyPropertyUpdate(r,
		[]PropertyRequest{{Name: "withremove"}, {Name: "plain"}, {Name: "missing"}},
		[]PropertyRequest{
			{Name: "withset", Value: "abc", HasValue: true},
			{Name: "withset"},
			{Name: "withtouch", Value: "ignored", HasValue: true},
			{Name: "missing", Value: "x", HasValue: true},
		},
	)
	assert.Equal(t, []PropertyResult{
		{Name: "withremove", Status: "HTTP/1.1 409 Conflict"},
		{Name: "plain", Status: "HTTP/1.1 200 OK"},
		{Name: "missing", Status: "HTTP/1.1 200 OK"},
	}, rm)
	assert.Equal(t, []PropertyResult{
		{Name: "withset", Status: "HTTP/1.1 200 OK"},
		{Name: "withset", Status: "HTTP/1.1 409 Conflict"},
		{Name: "withtouch", Status: "HTTP/1.1 500 Internal Server Error"},
		{Name: "missing", Status: "HTTP/1.1 200 OK"},
	}, st)
	assert.Equal(t, "", setValue)
	assert.Equal(t, 1, touched)
	assert.Equal(t, 1, removed)
}

func TestUnimplementedProvider(t *testing.T) {
	ctx := context.Background()
	var p IProvider = UnimplementedProvider{}
	_, err := p.ResourceAt(ctx, "/")
	assert.Equal(t, 403, daverr.StatusOf(err))
	assert.Equal(t, 403, daverr.StatusOf(p.CreateCollection(ctx, "/a")))
	assert.Equal(t, 403, daverr.StatusOf(p.WriteContent(ctx, "/a", io.LimitReader(nil, 0))))
	assert.Equal(t, 403, daverr.StatusOf(p.Copy(ctx, nil, "/b", 1)))
	assert.Equal(t, 403, daverr.StatusOf(p.Move(ctx, nil, "/b", 1)))
	assert.Equal(t, 403, daverr.StatusOf(p.Delete(ctx, nil)))
}
