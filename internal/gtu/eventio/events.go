package eventio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/trd-gtu/internal/fsutil"
	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// maxEventFileSize bounds the size of an event file.
const maxEventFileSize = 64 << 20

// ErrNoEvents is returned for a file without any event.
var ErrNoEvents = errors.New("eventio: no events")

// File is the top-level document of an event file.
type File struct {
	Events []Event `yaml:"events"`
}

// Event is the tracklet input of one trigger.
type Event struct {
	ID        string           `yaml:"id"`
	Tracklets []TrackletRecord `yaml:"tracklets"`
}

// TrackletRecord is one tracklet as received on a link.
type TrackletRecord struct {
	Sector int    `yaml:"sector"`
	Stack  int    `yaml:"stack"`
	Link   int    `yaml:"link"`
	Zbin   int32  `yaml:"zbin"`
	Ybin   int32  `yaml:"ybin"`
	DY     int32  `yaml:"dy"`
	Word   uint32 `yaml:"word,omitempty"`
}

// Tracklet returns the record in the form the TMU input unit accepts.
func (r TrackletRecord) Tracklet() l1tracklets.Tracklet {
	return l1tracklets.Tracklet{Word: r.Word, Zbin: r.Zbin, Ybin: r.Ybin, DY: r.DY}
}

// Validate checks the hardware coordinates of the record.
func (r TrackletRecord) Validate() error {
	switch {
	case r.Sector < 0 || r.Sector >= gtu.NSectors:
		return fmt.Errorf("%w: sector %d out of range [0,%d)", gtu.ErrInvalidTracklet, r.Sector, gtu.NSectors)
	case r.Stack < 0 || r.Stack >= gtu.NStacks:
		return fmt.Errorf("%w: stack %d out of range [0,%d)", gtu.ErrInvalidTracklet, r.Stack, gtu.NStacks)
	case r.Link < 0 || r.Link >= gtu.NLinks:
		return fmt.Errorf("%w: link %d out of range [0,%d)", gtu.ErrInvalidTracklet, r.Link, gtu.NLinks)
	}
	return nil
}

// Validate checks every tracklet record of the event.
func (e Event) Validate() error {
	for j, rec := range e.Tracklets {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("event %q tracklet %d: %w", e.ID, j, err)
		}
	}
	return nil
}

// Parse decodes and validates an event file. Unknown keys are rejected.
func Parse(data []byte) ([]Event, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoEvents
		}
		return nil, fmt.Errorf("parsing event file: %w", err)
	}
	if len(f.Events) == 0 {
		return nil, ErrNoEvents
	}

	seen := make(map[string]bool, len(f.Events))
	for i := range f.Events {
		ev := &f.Events[i]
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if seen[ev.ID] {
			return nil, fmt.Errorf("event %d: duplicate id %q", i, ev.ID)
		}
		seen[ev.ID] = true
		if err := ev.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Events, nil
}

// Load reads and parses the event file at path.
func Load(fsys fsutil.FileSystem, path string) ([]Event, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("event file: %w", err)
	}
	if info.Size() > maxEventFileSize {
		return nil, fmt.Errorf("event file %s too large: %d bytes (max %d)", path, info.Size(), maxEventFileSize)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event file: %w", err)
	}
	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Save writes events to path in the event file format.
func Save(fsys fsutil.FileSystem, path string, events []Event) error {
	data, err := yaml.Marshal(File{Events: events})
	if err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing event file: %w", err)
	}
	return nil
}
