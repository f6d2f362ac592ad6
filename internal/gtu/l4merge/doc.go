// Package l4merge owns Layer 4 (Merging) of the GTU data model.
//
// Responsibilities: the three ordered k-way merges that combine the track
// candidates of all reference layers and z-channels of one stack into a
// single list, each followed by a uniquify pass that collapses candidates
// sharing a tracklet.
// Key types: LessFunc, DupFunc, PreferFunc.
//
// Dependency rule: L4 may depend on L1-L3, never on L5+.
package l4merge
