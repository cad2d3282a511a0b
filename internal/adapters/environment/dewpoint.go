package environment

import (
	"math"

	"github.com/quentinrf/radiometer/internal/domain"
)

// Magnus coefficients over water, valid for -45..60 degrees Celsius
const (
	magnusB = 17.62
	magnusC = 243.12
)

// DewPoint returns the dew point in degrees Celsius for temperature t (C) and
// relative humidity h (%). It is invalid when h is not positive.
func DewPoint(t, h float64) domain.Measurement {
	if h <= 0 || math.IsNaN(h) || math.IsNaN(t) {
		return domain.Measurement{}
	}
	gamma := math.Log(h/100) + magnusB*t/(magnusC+t)
	return domain.Some(magnusC * gamma / (magnusB - gamma))
}

// New builds an Environment reading with its dew point filled in
func New(t, h, p float64) domain.Environment {
	return domain.Environment{
		Temperature: t,
		Humidity:    h,
		Pressure:    p,
		DewPoint:    DewPoint(t, h),
	}
}
