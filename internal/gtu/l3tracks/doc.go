// Package l3tracks owns Layer 3 (Tracks) of the GTU data model.
//
// Responsibilities: the track candidate record and the track finder, the
// two-pointer sweep over the ordered z-channel lists that assembles
// tracklets from at least four layers into candidates.
// Key types: Track, Finder, FinderParams.
//
// Dependency rule: L3 may depend on L1-L2, never on L4+.
package l3tracks
