package main

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu/eventio"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/gtu/storage/sqlite"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs stored in the database",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := sqlite.NewRunStore(db, nil).ListRuns(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range runs {
				status := "running"
				switch {
				case r.Error != "":
					status = "failed: " + r.Error
				case r.Finished():
					status = "done"
				}
				fmt.Fprintf(w, "%s  events=%d tracks=%d  %s\n", r.RunID, r.EventCount, r.TrackCount, status)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a run and, with --event, the tracks of one event as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := sqlite.NewRunStore(db, nil).GetRun(args[0])
			if err != nil {
				return err
			}
			eventID, _ := cmd.Flags().GetString("event")
			if eventID == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			tracks, err := sqlite.NewTrackStore(db).GetTracks(cmd.Context(), run.RunID, eventID)
			if err != nil {
				return err
			}
			if tracks == nil {
				tracks = []l3tracks.Summary{}
			}
			result := eventio.EventTracks{ID: eventID, Tracks: tracks}
			return eventio.WriteTracksJSON(cmd.OutOrStdout(), []eventio.EventTracks{result})
		},
	}
	cmd.Flags().String("event", "", "Print the stored tracks of this event")
	return cmd
}
