package main

import (
	"context"
	"fmt"
	"io"

	"github.com/banshee-data/trd-gtu/internal/config"
	"github.com/banshee-data/trd-gtu/internal/fsutil"
	"github.com/banshee-data/trd-gtu/internal/gtu/eventio"
	"github.com/banshee-data/trd-gtu/internal/gtu/params"
	"github.com/banshee-data/trd-gtu/internal/gtu/pipeline"
	"github.com/banshee-data/trd-gtu/internal/gtu/storage/sqlite"
	"github.com/banshee-data/trd-gtu/internal/monitoring"
	"github.com/banshee-data/trd-gtu/internal/security"
	"github.com/banshee-data/trd-gtu/internal/timeutil"
	"github.com/spf13/cobra"
)

type runOptions struct {
	format string // json or table
	output string // file path; empty writes to the command output
	// splitDir, if set, also receives one JSON file per event.
	splitDir string
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run EVENTS_FILE",
		Short: "Run the track matching on every event of a YAML event file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				workers, _ := cmd.Flags().GetInt("workers")
				cfg.Workers = &workers
			}
			if cmd.Flags().Changed("dump-tracklets") {
				dump, _ := cmd.Flags().GetBool("dump-tracklets")
				cfg.DumpTracklets = &dump
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts := runOptions{}
			opts.format, _ = cmd.Flags().GetString("format")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.splitDir, _ = cmd.Flags().GetString("split-dir")
			if opts.format != "json" && opts.format != "table" {
				return fmt.Errorf("unknown format %q (want json or table)", opts.format)
			}
			return runEvents(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}
	cmd.Flags().Int("workers", 0, "TMUs run in parallel (0 = one per CPU)")
	cmd.Flags().Bool("dump-tracklets", false, "Store the normalized tracklets of every unit in the database")
	cmd.Flags().String("format", "json", "Output format: json or table")
	cmd.Flags().StringP("output", "o", "", "Write results to this file instead of stdout")
	cmd.Flags().String("split-dir", "", "Also write one <event>.json per event into this directory")
	return cmd
}

func runEvents(ctx context.Context, w io.Writer, cfg *config.GTUConfig, eventsPath string, opts runOptions) error {
	table, err := params.NewDefaultTable(cfg.ParamsOptions())
	if err != nil {
		return err
	}
	fsys := fsutil.OSFileSystem{}
	events, err := eventio.Load(fsys, eventsPath)
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{Params: table, Workers: cfg.GetWorkers()}

	var runs *sqlite.RunStore
	var sink *sqlite.RunSink
	if cfg.GetDatabasePath() != "" {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		cfgJSON, err := cfg.JSON()
		if err != nil {
			return err
		}
		runs = sqlite.NewRunStore(db, timeutil.RealClock{})
		runID, err := runs.StartRun(cfgJSON)
		if err != nil {
			return err
		}
		sink = sqlite.NewRunSink(db, runID)
		pcfg.TrackSink = sink
		if cfg.GetDumpTracklets() {
			pcfg.TrackletSink = sink
		}
		monitoring.Logf("gtusim: storing run %s in %s", runID, cfg.GetDatabasePath())
	}

	g, err := pipeline.New(pcfg)
	if err != nil {
		return err
	}
	results, procErr := g.ProcessEvents(ctx, events)

	out := make([]eventio.EventTracks, 0, len(results))
	failedUnits := 0
	for _, r := range results {
		var errs []error
		for _, u := range r.Units {
			if u.Err != nil {
				errs = append(errs, u.Err)
			}
		}
		failedUnits += len(errs)
		out = append(out, eventio.NewEventTracks(r.EventID, r.Tracks(), errs...))
	}
	if failedUnits > 0 {
		monitoring.Logf("gtusim: %d units failed", failedUnits)
	}

	if runs != nil {
		if err := runs.FinishRun(sink.RunID, len(results), sink.TracksWritten(), procErr); err != nil {
			return err
		}
	}
	if procErr != nil {
		return procErr
	}

	if opts.splitDir != "" {
		if err := writeSplitResults(fsys, opts.splitDir, out); err != nil {
			return err
		}
	}
	if opts.output == "" {
		return writeResults(w, opts.format, out)
	}
	f, err := fsutil.CreateWithParents(fsys, opts.output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := writeResults(f, opts.format, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSplitResults writes each event to its own file in dir. Event IDs
// that map onto the same file name are an error.
func writeSplitResults(fsys fsutil.FileSystem, dir string, results []eventio.EventTracks) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	written := make(map[string]string, len(results))
	for _, r := range results {
		path, err := security.ResultPath(dir, r.ID)
		if err != nil {
			return err
		}
		if prev, ok := written[path]; ok {
			return fmt.Errorf("events %q and %q both map to %s", prev, r.ID, path)
		}
		written[path] = r.ID

		f, err := fsys.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := eventio.WriteTracksJSON(f, []eventio.EventTracks{r}); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(w io.Writer, format string, results []eventio.EventTracks) error {
	if format == "table" {
		return writeTrackTable(w, results)
	}
	return eventio.WriteTracksJSON(w, results)
}

// writeTrackTable prints one line per track.
func writeTrackTable(w io.Writer, results []eventio.EventTracks) error {
	if _, err := fmt.Fprintf(w, "%-36s %6s %5s %3s %3s %3s %4s %2s %7s %6s %9s %9s %5s\n",
		"event", "sector", "stack", "zch", "ref", "sub", "mask", "n", "yapprox", "a", "b", "c", "pt"); err != nil {
		return err
	}
	for _, r := range results {
		for _, s := range r.Tracks {
			if _, err := fmt.Fprintf(w, "%-36s %6d %5d %3d %3d %3d 0x%02x %2d %7d %6d %9.4f %9.4f %5d\n",
				r.ID, s.Sector, s.Stack, s.ZChannel, s.RefLayerIdx, s.ZSubChannel, s.TrackletMask,
				s.NTracklets, s.YApprox, s.A, s.B, s.C, s.PtInt); err != nil {
				return err
			}
		}
		for _, e := range r.Errors {
			if _, err := fmt.Fprintf(w, "%-36s error: %s\n", r.ID, e); err != nil {
				return err
			}
		}
	}
	return nil
}
