package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/codevault/pkg/configs"
	kv "github.com/yeisme/codevault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}
)

// 列出已配置 KV 中匹配模式的键，默认 cv.*（文件、用户与读缓存记录）.
var kvKeysCmd = &cobra.Command{
	Use:   "keys [pattern]",
	Short: "list keys in the configured kv store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "cv.*"
		if len(args) == 1 {
			pattern = args[0]
		}

		client, err := kv.NewKVClient(cmd.Context(), &configs.GetConfig().KV)
		if err != nil {
			return err
		}
		defer client.Close()

		keys, err := client.Keys(cmd.Context(), pattern)
		if err != nil {
			return err
		}

		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}

		if debug {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d keys in %s\n", len(keys), client.Type())
		}

		return nil
	},
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvKeysCmd)
}
