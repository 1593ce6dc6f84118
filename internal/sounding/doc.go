// Package sounding normalizes soundings of any encoding into one canonical
// output: a time axis, a current time index, a current location, a location
// axis and one temperature/dew-point/wind profile triple per time.
//
// A [Dispatcher] classifies each submitted [domain.Data] with [Classify],
// loads it into a fresh adapter for that shape and forwards the adapter's
// output to a [Listener], suppressing any notification whose value equals
// the last one delivered on the same channel.
package sounding
