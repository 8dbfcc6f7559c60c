package util

import (
	"math"
	"time"
)

// SeasonalTheme returns the theme an exercise published on t should carry.
// Holidays win over the plain season.
func SeasonalTheme(t time.Time) string {
	day := t.Day()
	switch month := t.Month(); {
	case month == time.December:
		return "Noël"
	case month == time.January && day <= 15:
		return "Nouvel An"
	case month == time.February && day >= 7 && day <= 14:
		return "Saint-Valentin"
	case month == time.October && day >= 20:
		return "Halloween"
	case month == time.April:
		return "Pâques"
	case month >= time.March && month <= time.May:
		return "Printemps"
	case month >= time.June && month <= time.August:
		return "Été"
	case month >= time.September && month <= time.November:
		return "Automne"
	default:
		return "Hiver"
	}
}

// EstimateMinutes is the expected time to complete n questions, rounded up,
// never less than one minute.
func EstimateMinutes(n int, perQuestion float64) int {
	if n <= 0 || perQuestion <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(float64(n)*perQuestion)))
}
