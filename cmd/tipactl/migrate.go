package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tipa/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the schema according to DB_SCHEMA_MODE",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			if err := database.ApplySchema(ctx, e.db, e.cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema mode and pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			st, err := database.GetSchemaStatus(ctx, e.db, e.cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode:         %s\n", st.Mode)
			fmt.Fprintf(out, "Environment:  %s\n", st.Environment)
			fmt.Fprintf(out, "SQL:          %t\n", st.WillRunSQL)
			fmt.Fprintf(out, "AutoMigrate:  %t\n", st.WillRunAutoMigrate)
			fmt.Fprintf(out, "Applied:      %v\n", st.AppliedVersions)
			if len(st.PendingMigrations) == 0 {
				fmt.Fprintln(out, "Pending:      none")
				return nil
			}
			fmt.Fprintln(out, "Pending:")
			for _, m := range st.PendingMigrations {
				fmt.Fprintf(out, "  %s\n", m.String())
			}
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recently applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			m, err := database.RollbackLatest(ctx, e.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", m.String())
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
