// Package tmu composes the GTU stage packages into the Track Matching
// Unit of one stack of one sector.
//
// A TMU owns its tracklet store, its z-channel lists and its candidate
// lists. Its lifecycle is populate (AddTracklet), run (Run) and reset
// (Reset). A TMU is not safe for concurrent use; independent TMUs are, and
// internal/gtu/pipeline runs one per sector/stack in parallel.
//
// Stage order:
//
//	l1tracklets  input unit: sort, index and normalize each layer
//	l2zchannels  route tracklets into the ordered z-channel lists
//	l3tracks     sweep every z-channel once per reference layer
//	l4merge      merge and uniquify across reference layers and channels
//	l5fit        fit the surviving candidates
package tmu
