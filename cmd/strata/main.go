package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time.
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "Typed relational schema and migration tooling",
		Long: `Strata manages a typed schema definition and its lifecycle: diffing
schema snapshots into migrations, applying and rolling them back, and
checking the live database for drift. SQLite, PostgreSQL, and MySQL are
supported through one dialect interface.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(introspectCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
