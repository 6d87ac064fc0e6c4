package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/storage/db"
	"github.com/yeisme/codevault/pkg/internal/store"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list all registered database types",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+dbType)
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the files, access_codes and users tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()
			if cfg.DB.Type == "" {
				return errors.New("db.type is not configured")
			}

			client, err := db.New(cmd.Context(), &cfg.DB)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := store.NewGormStore(client.GetDB()).Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s (%s)\n", client.Name(), cfg.DB.Type)

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
