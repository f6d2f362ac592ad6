// Package l2zchannels owns Layer 2 (Z-channels) of the GTU data model.
//
// Responsibilities: routing the normalized tracklets of every layer into
// the z-channels they belong to and keeping each (layer, channel) list
// ordered by (z-subchannel, yproj). That ordering is what lets the track
// finder sweep each list once.
// Key types: Router, ChannelParams.
//
// Dependency rule: L2 may depend on L1, never on L3+.
package l2zchannels
