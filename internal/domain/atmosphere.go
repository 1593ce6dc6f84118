package domain

import (
	"math"
	"sync"
)

// 1976 U.S. Standard Atmosphere constants.
const (
	standardGravity  = 9.80665   // m/s^2
	molarMassAir     = 0.0289644 // kg/mol
	gasConstant      = 8.3144598 // J/(mol K)
	seaLevelPressure = 1013.25   // hPa
	seaLevelTempK    = 288.15    // K

	hydrostaticFactor = standardGravity * molarMassAir / gasConstant
)

type atmosphereLayer struct {
	baseAltitude float64 // geopotential meters
	baseTemp     float64 // K
	lapseRate    float64 // K/m
	basePressure float64 // hPa
}

// atmosphereLayers derives each layer's base pressure from the one below it so
// the pressure/altitude mapping is continuous and exactly invertible.
var atmosphereLayers = sync.OnceValue(func() []atmosphereLayer {
	layers := []atmosphereLayer{
		{baseAltitude: 0, lapseRate: -0.0065},
		{baseAltitude: 11000, lapseRate: 0},
		{baseAltitude: 20000, lapseRate: 0.001},
		{baseAltitude: 32000, lapseRate: 0.0028},
		{baseAltitude: 47000, lapseRate: 0},
		{baseAltitude: 51000, lapseRate: -0.0028},
		{baseAltitude: 71000, lapseRate: -0.002},
	}
	layers[0].baseTemp = seaLevelTempK
	layers[0].basePressure = seaLevelPressure
	for i := 1; i < len(layers); i++ {
		prev := layers[i-1]
		layers[i].baseTemp = prev.baseTemp + prev.lapseRate*(layers[i].baseAltitude-prev.baseAltitude)
		layers[i].basePressure = prev.pressureAt(layers[i].baseAltitude)
	}
	return layers
})

func (l atmosphereLayer) pressureAt(h float64) float64 {
	dh := h - l.baseAltitude
	if l.lapseRate == 0 {
		return l.basePressure * math.Exp(-hydrostaticFactor*dh/l.baseTemp)
	}
	return l.basePressure * math.Pow(l.baseTemp/(l.baseTemp+l.lapseRate*dh), hydrostaticFactor/l.lapseRate)
}

func (l atmosphereLayer) altitudeAt(p float64) float64 {
	ratio := p / l.basePressure
	if l.lapseRate == 0 {
		return l.baseAltitude - l.baseTemp/hydrostaticFactor*math.Log(ratio)
	}
	return l.baseAltitude + l.baseTemp/l.lapseRate*(math.Pow(ratio, -l.lapseRate/hydrostaticFactor)-1)
}

// PressureAtAltitude returns the standard-atmosphere pressure (hPa) at a
// geopotential altitude in meters. Altitudes below sea level extrapolate the
// lowest layer; NaN propagates.
func PressureAtAltitude(m float64) float64 {
	if math.IsNaN(m) {
		return math.NaN()
	}
	layers := atmosphereLayers()
	l := layers[0]
	for _, candidate := range layers[1:] {
		if m < candidate.baseAltitude {
			break
		}
		l = candidate
	}
	return l.pressureAt(m)
}

// AltitudeAtPressure is the inverse of PressureAtAltitude. Non-positive
// pressures yield NaN.
func AltitudeAtPressure(hPa float64) float64 {
	if math.IsNaN(hPa) || hPa <= 0 {
		return math.NaN()
	}
	layers := atmosphereLayers()
	l := layers[0]
	for _, candidate := range layers[1:] {
		if hPa > candidate.basePressure {
			break
		}
		l = candidate
	}
	return l.altitudeAt(hPa)
}

// AltitudesToPressures applies PressureAtAltitude element-wise.
func AltitudesToPressures(meters []float64) []float64 {
	out := make([]float64, len(meters))
	for i, m := range meters {
		out[i] = PressureAtAltitude(m)
	}
	return out
}
