package main

import (
	"context"
	"fmt"
	"io"

	"github.com/banshee-data/trd-gtu/internal/fsutil"
	"github.com/banshee-data/trd-gtu/internal/gtu/eventio"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/params"
	"github.com/banshee-data/trd-gtu/internal/gtu/pipeline"
	"github.com/banshee-data/trd-gtu/internal/gtu/storage/sqlite"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [EVENTS_FILE]",
		Short: "Print the normalized tracklets of each sector/stack",
		Long: `dump runs the input unit and z-channel routing on an event file and
prints the tracklets of every TMU in rank order. With --run it prints the
dump stored in the database by "run --dump-tracklets" instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			filter := unitFilter{}
			filter.event, _ = cmd.Flags().GetString("event")
			filter.sector, _ = cmd.Flags().GetInt("sector")
			filter.stack, _ = cmd.Flags().GetInt("stack")
			runID, _ := cmd.Flags().GetString("run")

			if runID != "" {
				if filter.event == "" || filter.sector < 0 || filter.stack < 0 {
					return fmt.Errorf("--run needs --event, --sector and --stack")
				}
				db, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				tracklets, err := sqlite.NewTrackletDumpStore(db).GetTracklets(cmd.Context(), runID, filter.event, filter.sector, filter.stack)
				if err != nil {
					return err
				}
				p := &trackletPrinter{w: cmd.OutOrStdout()}
				return p.WriteTracklets(cmd.Context(), filter.event, filter.sector, filter.stack, tracklets)
			}

			if len(args) != 1 {
				return fmt.Errorf("dump needs an EVENTS_FILE or --run")
			}
			table, err := params.NewDefaultTable(cfg.ParamsOptions())
			if err != nil {
				return err
			}
			return dumpEvents(cmd.Context(), cmd.OutOrStdout(), table, args[0], filter)
		},
	}
	cmd.Flags().String("event", "", "Only this event ID")
	cmd.Flags().Int("sector", -1, "Only this sector (-1 = all)")
	cmd.Flags().Int("stack", -1, "Only this stack (-1 = all)")
	cmd.Flags().String("run", "", "Read the dump of this run from the database")
	return cmd
}

type unitFilter struct {
	event  string
	sector int
	stack  int
}

func (f unitFilter) match(sector, stack int) bool {
	return (f.sector < 0 || f.sector == sector) && (f.stack < 0 || f.stack == stack)
}

func dumpEvents(ctx context.Context, w io.Writer, table params.Table, path string, filter unitFilter) error {
	events, err := eventio.Load(fsutil.OSFileSystem{}, path)
	if err != nil {
		return err
	}
	if filter.event != "" {
		var kept []eventio.Event
		for _, ev := range events {
			if ev.ID == filter.event {
				kept = append(kept, ev)
			}
		}
		if len(kept) == 0 {
			return fmt.Errorf("event %q not found in %s", filter.event, path)
		}
		events = kept
	}

	g, err := pipeline.New(pipeline.Config{
		Params:       table,
		Workers:      1,
		TrackletSink: &trackletPrinter{w: w, filter: filter},
	})
	if err != nil {
		return err
	}
	results, err := g.ProcessEvents(ctx, events)
	if err != nil {
		return err
	}
	for _, r := range results {
		for _, u := range r.Units {
			if u.Err != nil && filter.match(u.Sector, u.Stack) {
				fmt.Fprintf(w, "# event %s sector %d stack %d: %v\n", r.EventID, u.Sector, u.Stack, u.Err)
			}
		}
	}
	return nil
}

// trackletPrinter is a pipeline.TrackletSink writing the text dump.
type trackletPrinter struct {
	w      io.Writer
	filter unitFilter
}

func (p *trackletPrinter) WriteTracklets(_ context.Context, eventID string, sector, stack int, tracklets []*l1tracklets.Tracklet) error {
	if !p.filter.match(sector, stack) {
		return nil
	}
	if _, err := fmt.Fprintf(p.w, "# event %s sector %d stack %d: %d tracklets\n", eventID, sector, stack, len(tracklets)); err != nil {
		return err
	}
	for _, t := range tracklets {
		if _, err := fmt.Fprintln(p.w, t.String()); err != nil {
			return err
		}
	}
	return nil
}
