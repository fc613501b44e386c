package console

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Render writes a text rendering of st to w. Times are shown in loc.
func Render(w io.Writer, st session.State, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}

	switch st.Status.Phase {
	case session.PhaseIdle:
		fmt.Fprintln(w, "No city searched yet.")
		return
	case session.PhaseLoading:
		fmt.Fprintln(w, "Loading...")
		return
	case session.PhaseError:
		fmt.Fprintf(w, "! %s\n", st.Status.Message)
		return
	}

	snap := st.Current
	if snap == nil {
		return
	}
	temp := st.Units.TemperatureSymbol()

	place := snap.Name
	if snap.Country != "" {
		place += ", " + snap.Country
	}
	fmt.Fprintf(w, "%s  %d%s  %s", place, snap.RoundedTemperature(), temp, snap.Condition)
	if snap.Description != "" {
		fmt.Fprintf(w, " (%s)", snap.Description)
	}
	if st.TimeOfDay != "" {
		fmt.Fprintf(w, "  [%s]", st.TimeOfDay)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  low %d%s  high %d%s  humidity %.0f%%  wind %.1f %s  pressure %.0f hPa\n",
		round(snap.TempMin), temp, round(snap.TempMax), temp,
		snap.Humidity, snap.WindSpeed, st.Units.SpeedSymbol(), snap.Pressure)
	fmt.Fprintf(w, "  sunrise %s  sunset %s\n",
		snap.Sunrise.In(loc).Format("15:04"), snap.Sunset.In(loc).Format("15:04"))

	if len(st.Hourly) > 0 {
		fmt.Fprintf(w, "  next hours: %s\n", joinPoints(st.Hourly, temp, func(t time.Time) string {
			return t.In(loc).Format("15:04")
		}))
	}
	if len(st.Daily) > 0 {
		fmt.Fprintf(w, "  next days:  %s\n", joinPoints(st.Daily, temp, func(t time.Time) string {
			return t.In(loc).Format("Mon")
		}))
	}
}

// RenderRecent writes the recent searches list to w.
func RenderRecent(w io.Writer, recent session.RecentSearches) {
	if len(recent) == 0 {
		fmt.Fprintln(w, "No recent searches.")
		return
	}
	for i, r := range recent {
		place := r.City
		if r.Country != "" {
			place += ", " + r.Country
		}
		fmt.Fprintf(w, "%d. %s  %d%s  %s\n", i+1, place, r.Temperature, r.Units.TemperatureSymbol(), r.Condition)
	}
}

func joinPoints(points []weather.ForecastPoint, symbol string, label func(time.Time) string) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%s %d%s %s", label(p.Time), round(p.Temperature), symbol, p.Condition))
	}
	return strings.Join(parts, " | ")
}

func round(v float64) int {
	return int(math.Round(v))
}
