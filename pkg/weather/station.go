// Package weather provides the station registry and the numerical-forecast
// providers used by the ensemble.
package weather

import "time"

// Season buckets the year for the dispersion tables.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// SeasonOf returns the season for a given date.
func SeasonOf(date time.Time) Season {
	switch date.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// DefaultStdDev is the baseline forecast RMSE in °F, used when a station
// has no seasonal entry.
const DefaultStdDev = 1.1

// Station represents a weather observation station with Kalshi market
// integration.
type Station struct {
	// Identification
	Code string // Short code used in correlation groups (e.g. "PHX")
	Name string // City name for display
	ID   string // METAR/observation station ID (e.g. "KPHX")

	// Location
	Timezone string  // IANA timezone (e.g. "America/Phoenix")
	Lat      float64 // Latitude
	Lon      float64 // Longitude

	// Kalshi integration: series ticker for daily-high markets
	Series string

	// NWS integration
	NWSOffice string // NWS office code (e.g. "PSR")
	NWSGridX  int    // NWS grid X coordinate
	NWSGridY  int    // NWS grid Y coordinate

	// Risk: cities whose daily highs move together share a group.
	// Empty means the station is its own group.
	Group string

	// Forecast-error dispersion by season (°F)
	SeasonalStdDev map[Season]float64
}

// Stations is the registry of all traded cities.
var Stations = map[string]*Station{
	"PHX": {
		Code: "PHX", Name: "Phoenix", ID: "KPHX",
		Timezone: "America/Phoenix", Lat: 33.4484, Lon: -112.0740,
		Series:    "KXHIGHTPHX",
		NWSOffice: "PSR", NWSGridX: 162, NWSGridY: 57,
		Group: "desert",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 0.9, SeasonSpring: 1.1, SeasonSummer: 0.8, SeasonFall: 0.9,
		},
	},
	"SFO": {
		Code: "SFO", Name: "San Francisco", ID: "KSFO",
		Timezone: "America/Los_Angeles", Lat: 37.7749, Lon: -122.4194,
		Series:    "KXHIGHTSFO",
		NWSOffice: "MTR", NWSGridX: 85, NWSGridY: 105,
		Group: "pacific",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.3, SeasonSpring: 1.5, SeasonSummer: 1.1, SeasonFall: 1.3,
		},
	},
	"SEA": {
		Code: "SEA", Name: "Seattle", ID: "KSEA",
		Timezone: "America/Los_Angeles", Lat: 47.6062, Lon: -122.3321,
		Series:    "KXHIGHTSEA",
		NWSOffice: "SEW", NWSGridX: 124, NWSGridY: 67,
		Group: "pacific",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.6, SeasonSpring: 1.5, SeasonSummer: 0.9, SeasonFall: 1.5,
		},
	},
	"DC": {
		Code: "DC", Name: "Washington DC", ID: "KDCA",
		Timezone: "America/New_York", Lat: 38.9072, Lon: -77.0369,
		Series:    "KXHIGHTDC",
		NWSOffice: "LWX", NWSGridX: 96, NWSGridY: 70,
		Group: "northeast",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.5, SeasonSpring: 1.3, SeasonSummer: 1.1, SeasonFall: 1.3,
		},
	},
	"HOU": {
		Code: "HOU", Name: "Houston", ID: "KIAH",
		Timezone: "America/Chicago", Lat: 29.7604, Lon: -95.3698,
		Series:    "KXHIGHTHOU",
		NWSOffice: "HGX", NWSGridX: 65, NWSGridY: 97,
		Group: "gulf_south",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.3, SeasonSpring: 1.1, SeasonSummer: 0.9, SeasonFall: 1.1,
		},
	},
	"NOLA": {
		Code: "NOLA", Name: "New Orleans", ID: "KMSY",
		Timezone: "America/Chicago", Lat: 29.9511, Lon: -90.0715,
		Series:    "KXHIGHTNOLA",
		NWSOffice: "LIX", NWSGridX: 76, NWSGridY: 72,
		Group: "gulf_south",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.3, SeasonSpring: 1.1, SeasonSummer: 0.9, SeasonFall: 1.1,
		},
	},
	"DAL": {
		Code: "DAL", Name: "Dallas", ID: "KDFW",
		Timezone: "America/Chicago", Lat: 32.7767, Lon: -96.7970,
		Series:    "KXHIGHTDAL",
		NWSOffice: "FWD", NWSGridX: 80, NWSGridY: 108,
		Group: "gulf_south",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.5, SeasonSpring: 1.3, SeasonSummer: 0.9, SeasonFall: 1.3,
		},
	},
	"BOS": {
		Code: "BOS", Name: "Boston", ID: "KBOS",
		Timezone: "America/New_York", Lat: 42.3601, Lon: -71.0589,
		Series:    "KXHIGHTBOS",
		NWSOffice: "BOX", NWSGridX: 70, NWSGridY: 76,
		Group: "northeast",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.5, SeasonSpring: 1.3, SeasonSummer: 1.1, SeasonFall: 1.3,
		},
	},
	"OKC": {
		Code: "OKC", Name: "Oklahoma City", ID: "KOKC",
		Timezone: "America/Chicago", Lat: 35.4676, Lon: -97.5164,
		Series:    "KXHIGHTOKC",
		NWSOffice: "OUN", NWSGridX: 41, NWSGridY: 48,
		Group: "gulf_south",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.6, SeasonSpring: 1.5, SeasonSummer: 1.1, SeasonFall: 1.5,
		},
	},
	"ATL": {
		Code: "ATL", Name: "Atlanta", ID: "KATL",
		Timezone: "America/New_York", Lat: 33.7490, Lon: -84.3880,
		Series:    "KXHIGHTATL",
		NWSOffice: "FFC", NWSGridX: 52, NWSGridY: 88,
		Group: "southeast",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 1.3, SeasonSpring: 1.1, SeasonSummer: 0.9, SeasonFall: 1.1,
		},
	},
	"MIN": {
		Code: "MIN", Name: "Minneapolis", ID: "KMSP",
		Timezone: "America/Chicago", Lat: 44.9778, Lon: -93.2650,
		Series:    "KXHIGHTMIN",
		NWSOffice: "MPX", NWSGridX: 107, NWSGridY: 71,
		Group: "north_central",
		SeasonalStdDev: map[Season]float64{
			SeasonWinter: 2.0, SeasonSpring: 1.6, SeasonSummer: 1.1, SeasonFall: 1.5,
		},
	},
}

// GetStation returns a station by its short code (PHX, SFO, ...).
func GetStation(code string) *Station {
	return Stations[code]
}

// AllStations returns all registered stations.
func AllStations() []*Station {
	result := make([]*Station, 0, len(Stations))
	for _, s := range Stations {
		result = append(result, s)
	}
	return result
}

// Location returns the timezone-aware location for the station.
func (s *Station) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StdDev returns the city × season forecast dispersion for a date.
func (s *Station) StdDev(date time.Time) float64 {
	if sd, ok := s.SeasonalStdDev[SeasonOf(date)]; ok {
		return sd
	}
	return DefaultStdDev
}

// CorrelationGroup returns the risk group the station belongs to. Stations
// without an explicit group are their own group.
func (s *Station) CorrelationGroup() string {
	if s.Group != "" {
		return s.Group
	}
	return s.Code
}
