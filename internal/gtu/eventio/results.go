package eventio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
)

// EventTracks is the result record of one event.
type EventTracks struct {
	ID     string             `json:"id"`
	Tracks []l3tracks.Summary `json:"tracks"`
	Errors []string           `json:"errors,omitempty"`
}

// NewEventTracks flattens the tracks of an event.
func NewEventTracks(id string, tracks []*l3tracks.Track, errs ...error) EventTracks {
	out := EventTracks{ID: id, Tracks: make([]l3tracks.Summary, 0, len(tracks))}
	for _, t := range tracks {
		out.Tracks = append(out.Tracks, t.Summary())
	}
	for _, err := range errs {
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
		}
	}
	return out
}

// WriteTracksJSON writes the results as an indented JSON array.
func WriteTracksJSON(w io.Writer, results []EventTracks) error {
	if results == nil {
		results = []EventTracks{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}
