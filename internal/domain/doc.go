// Package domain models atmospheric soundings and the building blocks used to
// normalize them.
//
// # Encodings
//
// Soundings arrive in one of three encodings, each a variant of [Data]:
//
//	StationSounding  one radiosonde (RAOB) ascent at a fixed station
//	TrackSounding    time-stamped samples from a moving platform (aircraft)
//	GridSeries       3-D model output, one GridStep per forecast/analysis time
//
// The wire decoder [ParseRawEvent] is the only place raw JSON is inspected;
// everything downstream pattern-matches on [Kind].
//
// # Units
//
// Canonical units after normalization:
//
//	pressure     hPa  (accepted: Pa, hPa)
//	altitude     m    (accepted: m, km)
//	temperature  degC (accepted: K, degC)
//	wind         m/s  (accepted: m/s, kt)
//
// An empty unit string means the canonical unit.
//
// Missing values are NaN in memory and null on the wire (see [Samples]).
//
// # Vertical coordinate
//
// Profiles are always indexed by pressure. Altitude coordinates are converted
// with the 1976 U.S. Standard Atmosphere ([PressureAtAltitude]); the inverse is
// [AltitudeAtPressure]. A [VerticalDomain] only ever holds finite, strictly
// monotonic levels: invalid levels are dropped, never kept as sentinels.
//
// # Wind
//
// Speed/direction pairs follow the meteorological convention (direction the
// wind blows from, degrees clockwise from north) and are converted to u/v
// components by [WindComponents].
package domain
