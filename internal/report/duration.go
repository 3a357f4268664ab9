package report

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gertd/go-pluralize"
)

var plural = pluralize.NewClient()

func count(n int64, unit string) string {
	return plural.Pluralize(unit, int(n), true)
}

// FormatDuration renders d in whole units: seconds below a minute, minutes
// and seconds below an hour, hours and minutes above.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	switch {
	case secs < 60:
		return count(secs, "second")
	case secs < 3600:
		return count(secs/60, "minute") + " " + count(secs%60, "second")
	default:
		return count(secs/3600, "hour") + " " + count(secs%3600/60, "minute")
	}
}

var spentMagnitudes = []humanize.RelTimeMagnitude{
	{D: 45 * time.Second, Format: "a few seconds", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "a minute", DivBy: time.Minute},
	{D: 45 * time.Minute, Format: "%d minutes", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "an hour", DivBy: time.Hour},
	{D: 22 * time.Hour, Format: "%d hours", DivBy: time.Hour},
	{D: 48 * time.Hour, Format: "a day", DivBy: humanize.Day},
	{D: 30 * humanize.Day, Format: "%d days", DivBy: humanize.Day},
	{D: math.MaxInt64, Format: "over a month", DivBy: humanize.Day},
}

// TimeSpent describes the span between a file's first and last edit in
// loose terms, e.g. "a few seconds" or "12 minutes".
func TimeSpent(first, last time.Time) string {
	return strings.TrimSpace(humanize.CustomRelTime(first, last, "", "", spentMagnitudes))
}
