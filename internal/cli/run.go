package cli

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/petrijr/framecoro"
	"github.com/petrijr/framecoro/internal/config"
	"github.com/petrijr/framecoro/internal/sim"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		configPath string
		keepStats  bool
		flagCfg    = config.DefaultSimulationConfig()
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a number of frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flagCfg
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = mergeFlags(cmd, loaded, flagCfg)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			var st *framecoro.Statistics
			if cfg.StatsDB != "" {
				db, err := sql.Open("sqlite", cfg.StatsDB)
				if err != nil {
					return fmt.Errorf("open stats db: %w", err)
				}
				defer db.Close()

				st, err = framecoro.NewSQLiteStatistics(db, root.logger)
				if err != nil {
					return fmt.Errorf("init stats db: %w", err)
				}
				if !keepStats {
					if err := st.Erase(); err != nil {
						return fmt.Errorf("reset stats db: %w", err)
					}
				}
			} else {
				st = framecoro.NewStatistics(root.logger)
			}

			res, err := sim.Run(cmd.Context(), cfg, st, root.logger)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file; flags given explicitly override it")
	f.IntVar(&flagCfg.Frames, "frames", flagCfg.Frames, "Number of frames to simulate")
	f.Float64Var(&flagCfg.DeltaTime, "dt", flagCfg.DeltaTime, "Seconds per simulated frame")
	f.IntVar(&flagCfg.Entities, "entities", flagCfg.Entities, "Number of demo entities")
	f.IntVar(&flagCfg.DespawnAfter, "despawn-after", flagCfg.DespawnAfter, "Frame at which odd entities are destroyed (0 = never)")
	f.BoolVar(&flagCfg.Realtime, "realtime", flagCfg.Realtime, "Drive frames from a wall-clock ticker")
	f.DurationVar(&flagCfg.FrameInterval, "frame-interval", flagCfg.FrameInterval, "Tick period in realtime mode")
	f.StringVar(&flagCfg.StatsDB, "stats-db", flagCfg.StatsDB, "SQLite file to record routine statistics in")
	f.BoolVar(&keepStats, "keep-stats", false, "Keep records from earlier runs in --stats-db")

	return cmd
}

// mergeFlags applies explicitly set flags on top of a loaded config.
func mergeFlags(cmd *cobra.Command, cfg, flags config.SimulationConfig) config.SimulationConfig {
	changed := cmd.Flags().Changed
	if changed("frames") {
		cfg.Frames = flags.Frames
	}
	if changed("dt") {
		cfg.DeltaTime = flags.DeltaTime
	}
	if changed("entities") {
		cfg.Entities = flags.Entities
	}
	if changed("despawn-after") {
		cfg.DespawnAfter = flags.DespawnAfter
	}
	if changed("realtime") {
		cfg.Realtime = flags.Realtime
	}
	if changed("frame-interval") {
		cfg.FrameInterval = flags.FrameInterval
	}
	if changed("stats-db") {
		cfg.StatsDB = flags.StatsDB
	}
	return cfg
}

func printResult(w io.Writer, res sim.Result) {
	m := res.Metrics
	fmt.Fprintf(w, "frames:     %d (%s simulated)\n", res.Frames, sim.Elapsed(res.Elapsed))
	fmt.Fprintf(w, "routines:   started=%d completed=%d stopped=%d orphaned=%d live=%d\n",
		m.RoutinesStarted, m.RoutinesCompleted, m.RoutinesStopped, m.RoutinesOrphaned, res.Live)
	fmt.Fprintf(w, "resumes:    %d\n", m.Resumes)
	fmt.Fprintf(w, "statistics: starts=%d stops=%d live=%d\n", res.Totals.Starts, res.Totals.Stops, res.Totals.Live)

	c := res.Counters
	fmt.Fprintf(w, "world:      moves=%d late_checks=%d blinks=%d announces=%d arrivals=%d\n",
		c.Moves, c.LateChecks, c.Blinks, c.Announces, c.Arrivals)
}
