// Package params provides the GTU parameter table: the per-layer and
// per-stack geometric constants, the z-channel predicates, the finder
// windows and the reconstruction lookup tables every TMU stage reads.
//
// The table is read-only after construction and safe to share between
// TMUs running concurrently.
package params
