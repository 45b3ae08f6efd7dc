package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	annotationSkipConfig = "skip_config"
)

// Version 构建时通过 -ldflags "-X github.com/xxxsen/davgate/cmd/davgate/cmd.Version=x.y.z" 注入
var Version = "dev"

func init() {
	register(func(ctx *Context) *cobra.Command {
		return &cobra.Command{
			Use:         "version",
			Short:       "print version",
			Annotations: map[string]string{annotationSkipConfig: "true"},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(Version)
			},
		}
	})
}
