package gtu

import "errors"

// Hardware dimensions of the GTU.
const (
	NSectors   = 18 // supermodules around the barrel
	NStacks    = 5  // stacks along z per sector
	NLinks     = 12 // optical links per stack, two per layer
	NLayers    = NLinks / 2
	NZChannels = 3

	// MinHits is the number of layers a candidate must be found in.
	MinHits = 4
)

var (
	// ErrConfiguration reports a structural precondition failure such as
	// an unset or out-of-range sector or stack. Only the affected cycle
	// is aborted.
	ErrConfiguration = errors.New("gtu: configuration error")

	// ErrInvariantViolation reports that a stage could not find data its
	// ordering invariants guarantee. The cycle is aborted and nothing is
	// salvaged.
	ErrInvariantViolation = errors.New("gtu: invariant violation")

	// ErrInvalidTracklet reports a tracklet that cannot be placed, e.g. a
	// link outside the stack.
	ErrInvalidTracklet = errors.New("gtu: invalid tracklet")
)

// LayerOfLink maps an optical link to its detector layer.
func LayerOfLink(link int) int { return link / 2 }
