// Package sun computes daylight for the coordinates of a lat/lon location.
package sun

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/devskill-org/weatherbit/weatherbit"
)

// Daylight holds sun times and the sun position at a given instant
type Daylight struct {
	At        time.Time
	Sunrise   time.Time
	Sunset    time.Time
	SolarNoon time.Time
	Altitude  float64 // degrees above the horizon
	Azimuth   float64 // degrees, suncalc convention (0 = south, clockwise towards west)
}

// ForLocation computes daylight at the given latitude and longitude, passed
// as the same strings the Weatherbit client accepts.
func ForLocation(lat, lon string, at time.Time) (*Daylight, error) {
	latitude, err := parseCoordinate("lat", lat, 90)
	if err != nil {
		return nil, err
	}
	longitude, err := parseCoordinate("lon", lon, 180)
	if err != nil {
		return nil, err
	}

	times := suncalc.GetTimes(at, latitude, longitude)
	pos := suncalc.GetPosition(at, latitude, longitude)

	return &Daylight{
		At:        at,
		Sunrise:   times["sunrise"].Value,
		Sunset:    times["sunset"].Value,
		SolarNoon: times["solarNoon"].Value,
		Altitude:  pos.Altitude * 180 / math.Pi,
		Azimuth:   pos.Azimuth * 180 / math.Pi,
	}, nil
}

// IsDay reports whether t falls between sunrise and sunset
func (d *Daylight) IsDay(t time.Time) bool {
	return !t.Before(d.Sunrise) && !t.After(d.Sunset)
}

// Length returns the time between sunrise and sunset
func (d *Daylight) Length() time.Duration {
	if d.Sunset.Before(d.Sunrise) {
		return 0
	}
	return d.Sunset.Sub(d.Sunrise)
}

func parseCoordinate(field, value string, limit float64) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &weatherbit.ValidationError{Field: field, Message: fmt.Sprintf("must be a number, got %q", value)}
	}
	if math.IsNaN(f) || f < -limit || f > limit {
		return 0, &weatherbit.ValidationError{Field: field, Message: fmt.Sprintf("must be between %v and %v, got %v", -limit, limit, f)}
	}
	return f, nil
}
