package api

import (
	"net/url"
	"strconv"
	"strings"
)

const DEFAULT_WINDOW_HOURS = 24

// parseHours reads the hours query parameter the way the dashboard has
// always sent it: the leading integer of the value is used, and a missing,
// unparsable, overflowing or zero value falls back to 24 hours. No bound
// is applied.
func parseHours(query url.Values) int {
	value := strings.TrimLeft(query.Get("hours"), " \t\n\r")

	end := 0
	if end < len(value) && (value[end] == '-' || value[end] == '+') {
		end++
	}
	digits := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == digits {
		return DEFAULT_WINDOW_HOURS
	}

	hours, err := strconv.Atoi(value[:end])
	if err != nil || hours == 0 {
		return DEFAULT_WINDOW_HOURS
	}

	return hours
}
