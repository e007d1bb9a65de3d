package tui

import "strconv"

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func itoa(n int) string { return strconv.Itoa(n) }

// meters formats a distance, switching to km above one kilometre.
func meters(d float64) string {
	if d >= 1000 {
		return strconv.FormatFloat(d/1000, 'f', 2, 64) + " km"
	}
	return strconv.FormatFloat(d, 'f', 0, 64) + " m"
}
