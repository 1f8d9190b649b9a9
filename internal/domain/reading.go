package domain

import "time"

type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// trendThreshold is the temperature delta in °C between the last two
// readings above which the series is considered moving.
const trendThreshold = 0.5

// TrendOf compares the last two readings of a series.
func TrendOf(readings []Reading) Trend {
	if len(readings) < 2 {
		return TrendStable
	}
	diff := readings[len(readings)-1].Temperature - readings[len(readings)-2].Temperature
	switch {
	case diff > trendThreshold:
		return TrendRising
	case diff < -trendThreshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

func TemperatureBand(celsius float64) string {
	switch {
	case celsius < 15:
		return "cold"
	case celsius < 25:
		return "comfortable"
	case celsius < 30:
		return "warm"
	default:
		return "hot"
	}
}

func HumidityBand(percent float64) string {
	switch {
	case percent < 30:
		return "dry"
	case percent < 70:
		return "normal"
	default:
		return "humid"
	}
}
