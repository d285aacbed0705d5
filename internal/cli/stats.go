package cli

import (
	"database/sql"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/petrijr/framecoro"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var (
		dbPath    string
		routineID string
		history   bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show routine statistics recorded by run --stats-db",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("stats db: %w", err)
			}

			db, err := sql.Open("sqlite", dbPath)
			if err != nil {
				return fmt.Errorf("open stats db: %w", err)
			}
			defer db.Close()

			st, err := framecoro.NewSQLiteStatistics(db, root.logger)
			if err != nil {
				return fmt.Errorf("init stats db: %w", err)
			}

			out := cmd.OutOrStdout()

			snap, err := st.Snapshot()
			if err != nil {
				return fmt.Errorf("read records: %w", err)
			}
			ids := make([]string, 0, len(snap))
			for id := range snap {
				if routineID == "" || id == routineID {
					ids = append(ids, id)
				}
			}
			sort.Strings(ids)

			if len(ids) == 0 {
				fmt.Fprintln(out, "No live routines recorded.")
			}
			for _, id := range ids {
				fmt.Fprintf(out, "%s\n", id)
				for _, frame := range snap[id] {
					fmt.Fprintf(out, "    %s\n", frame)
				}
			}

			if !history {
				return nil
			}

			events, err := st.History(cmd.Context(), routineID)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-24s  %-36s  %-18s  %s\n", "AT", "ROUTINE", "EVENT", "DETAIL")
			for _, ev := range events {
				fmt.Fprintf(out, "%-24s  %-36s  %-18s  %s\n",
					ev.At.Format("2006-01-02 15:04:05.000"), ev.RoutineID, ev.Type, ev.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file written by run --stats-db")
	cmd.Flags().StringVar(&routineID, "routine", "", "Only show this routine")
	cmd.Flags().BoolVar(&history, "history", false, "Also print lifecycle events")
	return cmd
}
