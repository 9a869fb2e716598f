package types

import "time"

// ------------------------
// Timetable data
// ------------------------

// Departure is one row on a stop screen, already reduced to what the
// panel can show.
type Departure struct {
	// Category as reported by the timetable, e.g. "T" (tram), "B" (bus),
	// "IR", "S".
	Category string `json:"category"`
	// Line number within the category, e.g. "3" or "11".
	Number string `json:"number"`
	// Final stop, raw (same-city prefix stripping happens at render time).
	Destination string `json:"destination"`
	// Whole minutes until scheduled (or prognosed) departure.
	Minutes int `json:"minutes"`
	// Delay in minutes on top of Minutes, if any.
	Delay int `json:"delay"`
	// Platform or track, if reported.
	Platform string `json:"platform,omitempty"`
}

// Due is minutes-until-departure including delay, the sort key of a
// departure board.
func (d Departure) Due() int { return d.Minutes + d.Delay }

// ------------------------
// Weather data
// ------------------------

// WeatherSnapshot is one observation for a weather screen.
type WeatherSnapshot struct {
	TemperatureC float64   `json:"temperature_c"`
	WindSpeedKMH float64   `json:"wind_speed_kmh"`
	Code         int       `json:"code"` // WMO weather interpretation code
	Description  string    `json:"description"`
	ObservedAt   time.Time `json:"observed_at"`
}
