package domain

import "math"

// Magnus coefficients (Alduchov and Eskridge, 1996).
const (
	magnusA = 17.625
	magnusB = 243.04 // degC
)

// DewPointFromRH derives dew point (degC) from temperature (degC) and relative
// humidity (percent). Non-positive or missing humidity yields NaN.
func DewPointFromRH(tempC, rh float64) float64 {
	if math.IsNaN(tempC) || math.IsNaN(rh) || rh <= 0 {
		return math.NaN()
	}
	gamma := math.Log(rh/100) + magnusA*tempC/(magnusB+tempC)
	return magnusB * gamma / (magnusA - gamma)
}

// WindComponents converts a meteorological speed/direction pair into u
// (eastward) and v (northward) components in the units of speed.
func WindComponents(speed, directionDeg float64) (u, v float64) {
	rad := directionDeg * math.Pi / 180
	return -speed * math.Sin(rad), -speed * math.Cos(rad)
}
