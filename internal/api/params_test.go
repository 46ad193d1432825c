package api

import (
	"net/url"
	"testing"
)

func TestParseHours(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 24},
		{"6", 6},
		{"48", 48},
		{"  12", 12},
		{"12h", 12},
		{"3.9", 3},
		{"+5", 5},
		{"-2", -2},
		{"0", 24},
		{"-0", 24},
		{"abc", 24},
		{"-", 24},
		{"h12", 24},
		{"99999999999999999999999", 24},
		{"100000", 100000},
	}

	for _, tc := range cases {
		query := url.Values{}
		if tc.raw != "" {
			query.Set("hours", tc.raw)
		}

		if got := parseHours(query); got != tc.want {
			t.Errorf("parseHours(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
