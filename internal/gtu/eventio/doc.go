// Package eventio reads tracklet event files and writes track results.
//
// Event files are YAML:
//
//	events:
//	  - id: ev-0001
//	    tracklets:
//	      - {sector: 4, stack: 1, link: 0, zbin: 5, ybin: 120, dy: -3}
//
// An event without an id is given a random UUID. Results are written as
// indented JSON, one object per event.
package eventio
