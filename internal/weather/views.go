package weather

import (
	"math"
	"time"
)

const (
	// HourlyPoints is the number of leading 3-hour samples in the hourly view.
	HourlyPoints = 4

	// DailyStride is the number of 3-hour samples per day.
	DailyStride = 8

	// DailyPoints caps the daily view.
	DailyPoints = 5
)

// TimeOfDay is presentation metadata derived from sunrise and sunset.
type TimeOfDay string

const (
	Day   TimeOfDay = "day"
	Night TimeOfDay = "night"
)

// TimeOfDayAt reports day when now falls within [sunrise, sunset).
func (s *Snapshot) TimeOfDayAt(now time.Time) TimeOfDay {
	if !now.Before(s.Sunrise) && now.Before(s.Sunset) {
		return Day
	}
	return Night
}

// RoundedTemperature returns the temperature rounded half away from zero.
func (s *Snapshot) RoundedTemperature() int {
	return int(math.Round(s.Temperature))
}

// Hourly returns the first HourlyPoints samples.
func (f *Forecast) Hourly() []ForecastPoint {
	if f == nil {
		return nil
	}
	n := min(len(f.Points), HourlyPoints)
	out := make([]ForecastPoint, n)
	copy(out, f.Points[:n])
	return out
}

// Daily returns every DailyStride-th sample starting at the first, up to DailyPoints entries.
func (f *Forecast) Daily() []ForecastPoint {
	if f == nil {
		return nil
	}
	out := make([]ForecastPoint, 0, DailyPoints)
	for i := 0; i < len(f.Points) && len(out) < DailyPoints; i += DailyStride {
		out = append(out, f.Points[i])
	}
	return out
}
