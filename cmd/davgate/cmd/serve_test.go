package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/idgen"
	"github.com/xxxsen/davgate/auth"
	"github.com/xxxsen/davgate/config"
	"github.com/xxxsen/davgate/dbdav"
	"github.com/xxxsen/davgate/filedav"
	"github.com/xxxsen/davgate/vfsdav"
)

func TestPerUserDir(t *testing.T) {
	base := t.TempDir()
	fn := perUserDir("", base)
	_, err := fn(context.Background())
	assert.Error(t, err)

	ctx := auth.SetUserInfo(context.Background(), &auth.UserInfo{Username: "abc"})
	dir, err := fn(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "abc"), dir)
	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	ctx = auth.SetUserInfo(context.Background(), &auth.UserInfo{Username: "../../etc"})
	dir, err = fn(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "etc"), dir)
}

func TestPerUserDirRelative(t *testing.T) {
	root := t.TempDir()
	dir, err := perUserDir(root, "data")(auth.SetUserInfo(context.Background(), &auth.UserInfo{Username: "abc"}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "abc"), dir)
	_, err = os.Stat(filepath.Join(root, "data", "abc"))
	assert.NoError(t, err)
}

func TestBuildProvider(t *testing.T) {
	require.NoError(t, idgen.Init(1))
	c := &config.Config{
		DBFile: filepath.Join(t.TempDir(), "dav.db"),
		Webdav: config.WebdavConfig{Prefix: "/dav", Backend: config.BackendMem},
		Cache:  config.CacheConfig{Kind: "lru", Size: 8},
	}
	p, err := buildProvider(c)
	require.NoError(t, err)
	assert.IsType(t, &vfsdav.Provider{}, p)

	c.Webdav.Backend = config.BackendFile
	c.Webdav.BaseDir = t.TempDir()
	c.Webdav.Absolute = true
	p, err = buildProvider(c)
	require.NoError(t, err)
	assert.IsType(t, &filedav.Provider{}, p)

	c.Webdav.Backend = config.BackendDB
	p, err = buildProvider(c)
	require.NoError(t, err)
	require.IsType(t, &dbdav.Provider{}, p)
	ctx := context.Background()
	require.NoError(t, p.WriteContent(ctx, "/a.txt", strings.NewReader("x")))
	res, err := p.ResourceAt(ctx, "/a.txt")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "/dav/a.txt", res.Href())

	c.Cache.Kind = "unknown"
	_, err = buildProvider(c)
	assert.Error(t, err)
}
