package helpers

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/karrick/tparse/v2"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/pkg/errors"
)

var (
	ErrInvalidTime = errors.New("invalid time")
	ErrTimeInPast  = errors.New("time is in the past")
)

const (
	layoutFull      = "2006/01/02-15:04"
	layoutMonthDay  = "01/02-15:04"
	layoutClockTime = "15:04"
	// DisplayLayout is how due times are shown to guilds
	DisplayLayout = "2006/01/02 15:04"
)

var naturalParser *when.Parser

func init() {
	naturalParser = when.New(nil)
	naturalParser.Add(en.All...)
	naturalParser.Add(common.All...)
}

// GuildLocation is the fixed zone of a guild utc offset in hours
func GuildLocation(offset float64) *time.Location {
	return time.FixedZone("", int(offset*3600))
}

// ParseTime reads a job time relative to $now. Accepted forms are relative
// offsets like "+1d2h", "YYYY/MM/DD-HH:mm", "MM/DD-HH:mm" or "HH:mm" in the
// guild zone, and plain english like "tomorrow 9pm". The result must lie in
// the future.
func ParseTime(input string, now time.Time, offset float64) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, errors.Wrap(ErrInvalidTime, "empty")
	}

	location := GuildLocation(offset)
	local := now.In(location)

	var result time.Time
	var err error
	switch {
	case strings.HasPrefix(input, "+"):
		result, err = tparse.AddDuration(now, input)
		if err != nil {
			return time.Time{}, errors.Wrap(ErrInvalidTime, input)
		}

	case isLayout(input, layoutFull, location):
		result, _ = time.ParseInLocation(layoutFull, input, location)

	case isLayout(input, layoutMonthDay, location):
		parsed, _ := time.ParseInLocation(layoutMonthDay, input, location)
		result = time.Date(local.Year(), parsed.Month(), parsed.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, location)
		if !result.After(now) {
			result = result.AddDate(1, 0, 0)
		}

	case isLayout(input, layoutClockTime, location):
		parsed, _ := time.ParseInLocation(layoutClockTime, input, location)
		result = time.Date(local.Year(), local.Month(), local.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, location)
		if !result.After(now) {
			result = result.AddDate(0, 0, 1)
		}

	default:
		match, err := naturalParser.Parse(input, local)
		if err != nil || match == nil {
			return time.Time{}, errors.Wrap(ErrInvalidTime, input)
		}
		result = match.Time
	}

	if !result.After(now) {
		return time.Time{}, errors.Wrap(ErrTimeInPast, input)
	}
	return result, nil
}

func isLayout(input, layout string, location *time.Location) bool {
	_, err := time.ParseInLocation(layout, input, location)
	return err == nil
}

// FormatTime renders $t in the guild zone plus a relative hint like "in 3 hours"
func FormatTime(t time.Time, offset float64) (absolute, relative string) {
	return t.In(GuildLocation(offset)).Format(DisplayLayout), humanize.Time(t)
}
