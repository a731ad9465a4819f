package timefmt

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatElapsed(t *testing.T) {
	cases := map[int64]string{
		0:          "0:00:00",
		999:        "0:00:00",
		2000:       "0:00:02",
		62000:      "0:01:02",
		3723000:    "1:02:03",
		36000000:   "10:00:00",
		-5:         "0:00:00",
		360000000:  "100:00:00",
	}
	for ms, want := range cases {
		require.Equal(t, want, FormatElapsed(ms), "ms=%d", ms)
	}
}

func TestFormatCompact(t *testing.T) {
	require.Equal(t, "5s", FormatCompact(5000))
	require.Equal(t, "3m 04s", FormatCompact(184000))
	require.Equal(t, "1h 02m", FormatCompact(3723000))
}

func TestParseElapsed(t *testing.T) {
	cases := map[string]int64{
		"1:02:03": 3723000,
		"02:03":   123000,
		"45":      45000,
		" 10 ":    10000,
		"1h30m":   5400000,
		"90s":     90000,
		"0:00:00": 0,
	}
	for in, want := range cases {
		got, err := ParseElapsed(in)
		require.NoError(t, err, "input %q", in)
		require.Equal(t, want, got, "input %q", in)
	}
}

func TestParseElapsed_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "1:75", "1:2:3:4", "-1h", "1:-2"} {
		_, err := ParseElapsed(in)
		require.ErrorIs(t, err, ErrInvalidElapsed, "input %q", in)
	}
}

func TestParseElapsed_Overflow(t *testing.T) {
	for _, in := range []string{
		"9223372036854776",
		"9223372036854775807",
		"2562047788015216:00:00",
		"153722867280912931:00",
	} {
		_, err := ParseElapsed(in)
		require.ErrorIs(t, err, ErrInvalidElapsed, "input %q", in)
	}

	got, err := ParseElapsed(strconv.FormatInt(MaxSeconds, 10))
	require.NoError(t, err)
	require.Equal(t, int64(MaxSeconds*1000), got)

	got, err = ParseElapsed("2562047788015:12:00")
	require.NoError(t, err)
	require.Positive(t, got)
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1000, 59000, 3600000, 3723000} {
		got, err := ParseElapsed(FormatElapsed(ms))
		require.NoError(t, err)
		require.Equal(t, ms, got)
	}
}
