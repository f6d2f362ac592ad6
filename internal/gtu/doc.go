// Package gtu holds the shared constants and error values of the GTU
// track matching simulation.
//
// The processing stages live in layer packages, leaves first:
//
//	l1tracklets  tracklet records, per-layer store, input unit
//	l2zchannels  z-channel router
//	l3tracks     track candidates and the track finder
//	l4merge      ordered merge and uniquification
//	l5fit        track parameter reconstruction
//
// Dependency rule: a layer package may import lower layers and this
// package, never a higher layer. tmu composes the layers for one
// sector/stack and pipeline runs many TMUs side by side.
package gtu
