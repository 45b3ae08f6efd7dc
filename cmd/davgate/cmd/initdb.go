package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/idgen"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/db"
	"github.com/xxxsen/davgate/dbdav"
	"go.uber.org/zap"
)

func init() {
	register(func(ctx *Context) *cobra.Command {
		return &cobra.Command{
			Use:   "initdb",
			Short: "create sqlite tables and root entry for db backend",
			RunE: func(cmd *cobra.Command, args []string) error {
				c := ctx.Config
				if err := idgen.Init(1); err != nil {
					return fmt.Errorf("init idgen failed, err:%w", err)
				}
				if err := db.InitDB(c.DBFile); err != nil {
					return fmt.Errorf("init db failed, file:%s, err:%w", c.DBFile, err)
				}
				defer db.GetClient().Close()
				if _, err := dbdav.New(db.GetClient()); err != nil {
					return err
				}
				logutil.GetLogger(cmd.Context()).Info("init db succ", zap.String("file", c.DBFile))
				return nil
			},
		}
	})
}
