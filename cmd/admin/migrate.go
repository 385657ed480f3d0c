package main

import (
	"fmt"
	"strconv"

	"twitterclone/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply, inspect or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()
		if err := database.RunMigrations(cmd.Context(), env.db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		cmd.Println("sql migrations applied")
		return nil
	},
}

var migrateAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run GORM automigration for every persistent model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()
		env.cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(cmd.Context(), env.db, env.cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		cmd.Println("automigrations applied")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema mode and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()
		status, err := database.GetSchemaStatus(cmd.Context(), env.db, env.cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		cmd.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
			status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			cmd.Printf("pending: %s\n", m.String())
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down <version>",
	Short: "Roll back one applied migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		env, err := connect()
		if err != nil {
			return err
		}
		defer env.close()
		if err := database.RollbackMigration(cmd.Context(), env.db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		cmd.Printf("rolled back migration %d\n", version)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateAutoCmd, migrateStatusCmd, migrateDownCmd)
}
