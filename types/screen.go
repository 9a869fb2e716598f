package types

// ------------------------
// Screens
// ------------------------

// ScreenKind discriminates what a screen shows.
type ScreenKind string

const (
	ScreenStop    ScreenKind = "stop"
	ScreenWeather ScreenKind = "weather"
)

// StopScreen is a departure-board view of one stop.
type StopScreen struct {
	// Stop name as the timetable API knows it, e.g. "Basel, Aeschenplatz".
	Stop string `json:"stop"`
	// Optional exact-destination filter; empty means all departures.
	Destination string `json:"destination,omitempty"`
	// Transport categories to request, e.g. "tram", "train". Empty means all.
	Transports []string `json:"transports,omitempty"`
	// Rows to keep after filtering.
	Limit int `json:"limit"`
}

// WeatherScreen is a current-conditions view for one place.
type WeatherScreen struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Screen is one entry in the configured screen cycle. Exactly one of
// Stop/Weather is set, per Kind.
type Screen struct {
	ID      string         `json:"id"`
	Kind    ScreenKind     `json:"kind"`
	Stop    *StopScreen    `json:"stop,omitempty"`
	Weather *WeatherScreen `json:"weather,omitempty"`
}

// Title is the header text shown for the screen.
func (s Screen) Title() string {
	switch s.Kind {
	case ScreenStop:
		if s.Stop != nil {
			return s.Stop.Stop
		}
	case ScreenWeather:
		if s.Weather != nil {
			return s.Weather.City
		}
	}
	return s.ID
}
