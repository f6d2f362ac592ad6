// Package l1tracklets owns Layer 1 (Tracklets) of the GTU data model.
//
// Responsibilities: the decoded tracklet record, the per-layer tracklet
// store of one sector/stack, and the input unit that ranks tracklets
// within their layer and derives the fixed-point quantities (alpha,
// yproj, yprime) used by every later stage.
// Key types: Tracklet, Store, InputParams.
//
// Dependency rule: L1 depends only on the gtu package.
package l1tracklets
