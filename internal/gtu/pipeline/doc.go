// Package pipeline runs the GTU over whole events.
//
// It groups the tracklets of an event by sector and stack, runs one TMU
// per group in parallel and hands the results to optional sinks
// (persistence, tracklet dumps). The pipeline does not own domain logic;
// it delegates to the tmu package and the stage packages behind it.
package pipeline
