// Package l5fit owns Layer 5 (Fit) of the GTU data model.
//
// Responsibilities: computing the fit coefficients and the integer
// transverse momentum of every surviving track candidate from the
// normalized y positions of its tracklets.
// Key types: Reconstructor, RecoParams.
//
// Dependency rule: L5 may depend on L1-L4, never on L6+.
package l5fit
