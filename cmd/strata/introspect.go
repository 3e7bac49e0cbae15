package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/strata-db/strata/introspect"
	"github.com/strata-db/strata/migrate"
	"github.com/strata-db/strata/snapshot"
)

var introspectCmd = &cobra.Command{
	Use:   "introspect [table]",
	Short: "Inspect live database columns and check for drift",
	Long: `With a table argument, list that table's live columns. Without one,
compare every table in the latest migration snapshot against the live
database and report missing and unexpected columns.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer e.Close()

		insp := introspect.New(e.conn, e.d)

		if len(args) == 1 {
			columns, err := insp.Columns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(columns) == 0 {
				fmt.Printf("Table %s has no columns (or does not exist).\n", args[0])
				return nil
			}
			for _, name := range columns {
				fmt.Println(name)
			}
			return nil
		}

		snap, err := migrate.LatestSnapshot(e.cfg.MigrationsDir, string(e.d.Name()))
		if err != nil {
			return err
		}
		if len(snap.Tables) == 0 {
			fmt.Println("No snapshot to compare against; create a migration first.")
			return nil
		}

		clean := true
		for _, key := range sortedTableKeys(snap) {
			drift, err := insp.CheckDrift(cmd.Context(), snap.Tables[key])
			if err != nil {
				return err
			}
			if drift.Clean() {
				color.Green("ok       %s", drift.Table)
				continue
			}
			clean = false
			color.Red("drift    %s", drift.Table)
			for _, name := range drift.Missing {
				fmt.Printf("  missing column:    %s\n", name)
			}
			for _, name := range drift.Unexpected {
				fmt.Printf("  unexpected column: %s\n", name)
			}
		}
		if !clean {
			return fmt.Errorf("schema drift detected")
		}
		return nil
	},
}

func sortedTableKeys(s *snapshot.Snapshot) []string {
	keys := make([]string, 0, len(s.Tables))
	for k := range s.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
