package models

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobKeyRoundTrip(t *testing.T) {
	key := JobKey(JobKindRaffle, "123456789")
	assert.Equal(t, "raffle_123456789", key)

	kind, messageID, err := ParseJobKey(key)
	require.NoError(t, err)
	assert.Equal(t, JobKindRaffle, kind)
	assert.Equal(t, "123456789", messageID)
}

func TestParseJobKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "check", "check_", "_123", "remind_123"} {
		_, _, err := ParseJobKey(key)
		assert.Equal(t, ErrInvalidJobKey, errors.Cause(err), key)
	}
}

func TestRepeatPeriodNext(t *testing.T) {
	base := time.Date(2021, time.January, 31, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2021, time.February, 1, 9, 0, 0, 0, time.UTC), RepeatDay.Next(base))
	assert.Equal(t, time.Date(2021, time.February, 7, 9, 0, 0, 0, time.UTC), RepeatWeek.Next(base))
	assert.Equal(t, time.Date(2021, time.February, 28, 9, 0, 0, 0, time.UTC), RepeatMonth.Next(base))
	assert.Equal(t, time.Date(2021, time.April, 30, 9, 0, 0, 0, time.UTC), RepeatSeason.Next(base))
}

func TestRepeatPeriodNextClampsMonthEnd(t *testing.T) {
	for _, c := range []struct {
		period RepeatPeriod
		from   time.Time
		want   time.Time
	}{
		{RepeatMonth, time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC), time.Date(2026, time.February, 28, 9, 0, 0, 0, time.UTC)},
		{RepeatMonth, time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC), time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)},
		{RepeatMonth, time.Date(2026, time.December, 31, 9, 0, 0, 0, time.UTC), time.Date(2027, time.January, 31, 9, 0, 0, 0, time.UTC)},
		{RepeatMonth, time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC), time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC)},
		{RepeatSeason, time.Date(2026, time.November, 30, 9, 0, 0, 0, time.UTC), time.Date(2027, time.February, 28, 9, 0, 0, 0, time.UTC)},
		{RepeatSeason, time.Date(2026, time.May, 31, 9, 0, 0, 0, time.UTC), time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)},
	} {
		assert.Equal(t, c.want, c.period.Next(c.from), "%s from %s", c.period, c.from.Format("2006-01-02"))
	}

	// a fixed offset zone keeps its wall clock
	zone := time.FixedZone("UTC+8", 8*60*60)
	assert.Equal(t,
		time.Date(2026, time.February, 28, 23, 30, 0, 0, zone),
		RepeatMonth.Next(time.Date(2026, time.January, 31, 23, 30, 0, 0, zone)),
	)
}

func TestParseRepeatPeriod(t *testing.T) {
	period, ok := ParseRepeatPeriod("Quarter")
	require.True(t, ok)
	assert.Equal(t, RepeatSeason, period)

	_, ok = ParseRepeatPeriod("fortnight")
	assert.False(t, ok)
}

func TestJobExecuteTime(t *testing.T) {
	var job Job
	at := time.Date(2021, time.March, 1, 12, 30, 0, 0, time.UTC)
	job.SetExecuteTime(at)

	assert.Equal(t, int64(1614601800000), job.ExecuteAt)
	assert.True(t, job.ExecuteTime().Equal(at))
	assert.True(t, job.IsDue(at))
	assert.False(t, job.IsDue(at.Add(-time.Millisecond)))
}

func TestReactionStatusOrdering(t *testing.T) {
	rs := ReactionStatus{
		"3": {DisplayName: "carol", Status: StatusReacted},
		"1": {DisplayName: "alice", Status: StatusReacted},
		"2": {DisplayName: "bob", Status: StatusLocked},
		"4": {DisplayName: "alice", Status: StatusReacted},
	}

	assert.Equal(t, []string{"1", "4", "3"}, rs.IDs(StatusReacted))
	assert.Equal(t, []string{"alice", "alice", "carol"}, rs.Names(StatusReacted))
	assert.Equal(t, 1, rs.Count(StatusLocked))
	assert.Equal(t, 0, rs.Count(StatusAbsent))
	assert.Empty(t, rs.IDs(StatusLeaved))
}

func TestGuildSettingsValidation(t *testing.T) {
	assert.NoError(t, ValidateOffset(5.75))
	assert.NoError(t, ValidateOffset(-12))
	assert.Equal(t, ErrInvalidOffset, ValidateOffset(5.1))
	assert.Equal(t, ErrInvalidOffset, ValidateOffset(12.25))

	assert.NoError(t, ValidateLength(0))
	assert.Equal(t, ErrInvalidLength, ValidateLength(1001))

	assert.NoError(t, ValidatePrefix("!"))
	assert.Equal(t, ErrInvalidPrefix, ValidatePrefix(""))
	assert.Equal(t, ErrInvalidPrefix, ValidatePrefix("a b"))

	locale, err := NormalizeLocale("zh-tw")
	require.NoError(t, err)
	assert.Equal(t, "zh-TW", locale)
	_, err = NormalizeLocale("not a locale")
	assert.Equal(t, ErrInvalidLocale, errors.Cause(err))
}

func TestGuildSettingsShows(t *testing.T) {
	settings := GuildSettings{}.Default()
	assert.False(t, settings.Shows(StatusReacted))
	assert.True(t, settings.Shows(StatusAbsent))

	settings.SetShows(StatusReacted, true)
	settings.SetShows(StatusLeaved, false)
	assert.True(t, settings.Shows(StatusReacted))
	assert.False(t, settings.Shows(StatusLeaved))
}
