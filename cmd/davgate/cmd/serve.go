package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/idgen"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/auth"
	cachewrap "github.com/xxxsen/davgate/cacheapi/adaptor"
	"github.com/xxxsen/davgate/config"
	"github.com/xxxsen/davgate/dav"
	"github.com/xxxsen/davgate/db"
	"github.com/xxxsen/davgate/dbdav"
	"github.com/xxxsen/davgate/filedav"
	"github.com/xxxsen/davgate/resource"
	"github.com/xxxsen/davgate/server"
	"github.com/xxxsen/davgate/vfsdav"
	"go.uber.org/zap"
)

func init() {
	register(func(ctx *Context) *cobra.Command {
		return &cobra.Command{
			Use:   "serve",
			Short: "start webdav server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), ctx.Config)
			},
		}
	})
}

func runServe(ctx context.Context, c *config.Config) error {
	logger := logutil.GetLogger(ctx)
	if err := idgen.Init(1); err != nil {
		return fmt.Errorf("init idgen failed, err:%w", err)
	}
	logger.Info("recv config", zap.Any("config", c.Redacted()))
	logger.Info("current webdav config")
	logger.Info("-- backend", zap.String("kind", c.Webdav.Backend), zap.String("prefix", c.Webdav.Prefix))
	logger.Info("-- max depth", zap.Int("depth", c.Webdav.MaxDepth))
	logger.Info("-- max chunk body", zap.String("size", humanize.IBytes(uint64(c.MaxChunkBody))))
	logger.Info("-- auth", zap.Int("user_count", len(c.UserInfo)), zap.Bool("policy", len(c.PolicyFile) > 0))
	p, err := buildProvider(c)
	if err != nil {
		return fmt.Errorf("init backend failed, err:%w", err)
	}
	d := dav.New(p,
		dav.WithPrefix(c.Webdav.Prefix),
		dav.WithMaxDepth(c.Webdav.MaxDepth),
		dav.WithExtraMethods(c.Webdav.ExtraMethods...),
		dav.WithExtraVersions(c.Webdav.ExtraVersions...),
	)
	opts := []server.Option{
		server.WithDispatcher(d),
		server.WithPrefix(c.Webdav.Prefix),
		server.WithUser(c.UserInfo),
		server.WithTrustProxy(c.TrustProxy),
		server.WithMaxChunkBody(c.MaxChunkBody),
	}
	if len(c.PolicyFile) > 0 {
		az, err := auth.NewPolicyAuthorizerFromFile(ctx, c.PolicyFile)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithAuthorizer(az))
	}
	svr, err := server.New(c.Bind, opts...)
	if err != nil {
		return fmt.Errorf("init server failed, err:%w", err)
	}
	logger.Info("init server succ, start it...", zap.String("bind", c.Bind))
	return svr.Run()
}

func buildProvider(c *config.Config) (resource.IProvider, error) {
	switch c.Webdav.Backend {
	case config.BackendDB:
		return buildDBProvider(c)
	case config.BackendMem:
		return vfsdav.NewMem(vfsdav.WithHrefPrefix(c.Webdav.Prefix)), nil
	}
	return buildFileProvider(c)
}

func buildDBProvider(c *config.Config) (resource.IProvider, error) {
	if err := db.InitDB(c.DBFile); err != nil {
		return nil, fmt.Errorf("init db failed, file:%s, err:%w", c.DBFile, err)
	}
	cc, err := cachewrap.NewContentCache(c.Cache.Kind, c.Cache.Size, time.Duration(c.Cache.TTLSec)*time.Second, c.Cache.MaxItemSize)
	if err != nil {
		return nil, err
	}
	return dbdav.New(db.GetClient(),
		dbdav.WithContentCache(cc),
		dbdav.WithHrefPrefix(c.Webdav.Prefix),
	)
}

func buildFileProvider(c *config.Config) (resource.IProvider, error) {
	opts := []filedav.Option{
		filedav.WithBaseDir(c.Webdav.BaseDir),
		filedav.WithAbsolute(c.Webdav.Absolute),
		filedav.WithHrefPrefix(c.Webdav.Prefix),
	}
	if len(c.Webdav.InstallRoot) > 0 {
		opts = append(opts, filedav.WithInstallRoot(c.Webdav.InstallRoot))
	}
	if c.Webdav.PerUserDir {
		var root string
		if !c.Webdav.Absolute {
			root = c.Webdav.InstallRoot
		}
		if !c.Webdav.Absolute && len(root) == 0 {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("get install root failed, err:%w", err)
			}
			root = wd
		}
		opts = append(opts, filedav.WithBaseDirFunc(perUserDir(root, c.Webdav.BaseDir)))
	}
	return filedav.New(opts...)
}

// perUserDir 每个用户使用base下的同名子目录, 首次访问时自动创建, root为空表示base是绝对路径
func perUserDir(root string, base string) filedav.BaseDirFunc {
	return func(ctx context.Context) (string, error) {
		u, ok := auth.GetUserInfo(ctx)
		if !ok {
			return "", fmt.Errorf("no user found")
		}
		dir := filepath.Join(base, filepath.Base(filepath.Clean("/"+u.Username)))
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return "", fmt.Errorf("create user dir failed, dir:%s, err:%w", dir, err)
		}
		return dir, nil
	}
}
