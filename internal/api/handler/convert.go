package handler

import (
	"github.com/weatherdeck/weatherdeck/internal/api/models"
	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// toSessionState converts a session snapshot to its wire form.
// Slices are always non-nil so clients see [] rather than null.
func toSessionState(st session.State) models.SessionState {
	out := models.SessionState{
		Status: models.SessionStatus{
			Phase:   string(st.Status.Phase),
			Message: st.Status.Message,
		},
		Units:           string(st.Units),
		TemperatureUnit: st.Units.TemperatureSymbol(),
		SpeedUnit:       st.Units.SpeedSymbol(),
		City:            st.City,
		TimeOfDay:       string(st.TimeOfDay),
		Hourly:          toForecastEntries(st.Hourly),
		Daily:           toForecastEntries(st.Daily),
		RecentSearches:  make([]models.RecentSearch, 0, len(st.Recent)),
	}

	if snap := st.Current; snap != nil {
		out.Current = &models.Conditions{
			City:          snap.Name,
			Country:       snap.Country,
			ObservedAt:    models.Timestamp(snap.ObservedAt),
			Temperature:   snap.Temperature,
			TempMin:       snap.TempMin,
			TempMax:       snap.TempMax,
			Humidity:      snap.Humidity,
			Pressure:      snap.Pressure,
			WindSpeed:     snap.WindSpeed,
			WindDirection: snap.WindDirection,
			CloudCover:    snap.CloudCover,
			Visibility:    snap.Visibility,
			Precipitation: snap.Precipitation,
			Sunrise:       models.Timestamp(snap.Sunrise),
			Sunset:        models.Timestamp(snap.Sunset),
			Condition:     snap.Condition,
			Description:   snap.Description,
		}
	}

	for _, r := range st.Recent {
		out.RecentSearches = append(out.RecentSearches, models.RecentSearch{
			City:        r.City,
			Country:     r.Country,
			Temperature: r.Temperature,
			Units:       string(r.Units),
			Condition:   r.Condition,
			SearchedAt:  models.Timestamp(r.SearchedAt),
		})
	}
	return out
}

func toForecastEntries(points []weather.ForecastPoint) []models.ForecastEntry {
	entries := make([]models.ForecastEntry, 0, len(points))
	for _, p := range points {
		entries = append(entries, models.ForecastEntry{
			Time:        models.Timestamp(p.Time),
			Temperature: p.Temperature,
			TempMin:     p.TempMin,
			TempMax:     p.TempMax,
			Condition:   p.Condition,
			Description: p.Description,
			PrecipProb:  p.PrecipProb,
		})
	}
	return entries
}
