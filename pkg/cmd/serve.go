package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/codevault/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP server",
	// NewApp 自行加载配置
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(configPath)
		if err != nil {
			return err
		}

		return a.Run()
	},
}

// registerServeCommands 注册服务启动命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
