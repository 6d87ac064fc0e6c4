// Package cmd contains the command line applications for the project.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/codevault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:     configs.AppName,
		Short:   "Share files and links behind single-use access codes",
		Version: configs.AppVersion,
		// 子命令执行前加载配置，找不到配置文件时使用默认值与环境变量
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerCodesCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
