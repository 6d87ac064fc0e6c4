package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/service"
)

var (
	codesCount int

	codesCmd = &cobra.Command{
		Use:   "codes",
		Short: "access code helpers",
	}

	codesGenCmd = &cobra.Command{
		Use:     "gen",
		Short:   "generate random access codes",
		Aliases: []string{"generate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			share := configs.GetConfig().Share.WithDefaults()
			if codesCount <= 0 {
				return fmt.Errorf("--count must be positive, got %d", codesCount)
			}

			codes, err := service.GenerateCodes(codesCount, share.CodeLength)
			if err != nil {
				return err
			}

			for _, c := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}

			return nil
		},
	}
)

// registerCodesCommands 注册访问码相关命令.
func registerCodesCommands() {
	codesGenCmd.Flags().IntVarP(&codesCount, "count", "n", 1, "number of codes")

	codesCmd.AddCommand(codesGenCmd)
	rootCmd.AddCommand(codesCmd)
}
