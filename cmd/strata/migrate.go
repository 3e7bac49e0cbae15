package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strata-db/strata/schema"
)

var schemaPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
	Long:  "Create, apply, roll back, and inspect database migrations",
}

var migrateNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a migration from schema changes",
	Long: `Diff the schema definition against the latest migration's snapshot and
write a new migration directory with up and down scripts. When nothing
changed, no files are written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.Close()

		reg, err := schema.LoadYAML(schemaPath)
		if err != nil {
			return err
		}

		res, err := e.engine.Create(reg, args[0])
		if err != nil {
			return err
		}
		if res.NoChanges {
			fmt.Println("No schema changes detected; nothing written.")
			return nil
		}
		color.Green("Created migration %s_%s (%d operations)", res.Version, res.Slug, res.Operations)
		fmt.Printf("  %s\n", res.Dir)
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer e.Close()

		applied, err := e.engine.Apply(cmd.Context())
		for _, m := range applied {
			color.Green("  ✓ %s", m.Name())
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("No pending migrations.")
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := e.engine.Rollback(cmd.Context())
		if err != nil {
			return err
		}
		if m == nil {
			fmt.Println("Nothing to roll back.")
			return nil
		}
		color.Yellow("  ↩ %s", m.Name())
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and their applied state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.engine.Status(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No migrations found.")
			return nil
		}
		for _, entry := range entries {
			if entry.Applied {
				color.Green("applied  %s  (%s)", entry.Name(), entry.AppliedAt.Format("2006-01-02 15:04:05"))
			} else {
				color.Yellow("pending  %s", entry.Name())
			}
		}
		return nil
	},
}

func init() {
	migrateNewCmd.Flags().StringVar(&schemaPath, "schema", "schema.yaml", "path to the schema definition")
	migrateCmd.AddCommand(migrateNewCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
