package l1tracklets

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu"
)

// Store holds the tracklets of one sector/stack for one processing cycle,
// one list per layer. The store owns the records; later stages only keep
// pointers into it.
type Store struct {
	layers [gtu.NLayers][]*Tracklet
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add copies t into the store under the given layer and returns the owned
// record.
func (s *Store) Add(layer int, t Tracklet) (*Tracklet, error) {
	if layer < 0 || layer >= gtu.NLayers {
		return nil, fmt.Errorf("%w: layer %d out of range", gtu.ErrInvalidTracklet, layer)
	}
	rec := t
	rec.Layer = layer
	rec.Index = len(s.layers[layer])
	s.layers[layer] = append(s.layers[layer], &rec)
	return &rec, nil
}

// Layer returns the tracklets of a layer in their current order. The
// returned slice must not be modified.
func (s *Store) Layer(layer int) []*Tracklet {
	if layer < 0 || layer >= gtu.NLayers {
		return nil
	}
	return s.layers[layer]
}

// Len returns the number of tracklets in a layer.
func (s *Store) Len(layer int) int {
	return len(s.Layer(layer))
}

// Total returns the number of tracklets over all layers.
func (s *Store) Total() int {
	n := 0
	for layer := range s.layers {
		n += len(s.layers[layer])
	}
	return n
}

// Reset drops all tracklets. Calling it on an empty store is a no-op.
func (s *Store) Reset() {
	for layer := range s.layers {
		clear(s.layers[layer])
		s.layers[layer] = s.layers[layer][:0]
	}
}
