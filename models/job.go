package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	JobsTable = "jobs"
)

// JobKind distinguishes plain checks from raffles
type JobKind string

const (
	JobKindCheck  JobKind = "check"
	JobKindRaffle JobKind = "raffle"
)

// RepeatPeriod makes a job recurring when set
type RepeatPeriod string

const (
	RepeatDay    RepeatPeriod = "day"
	RepeatWeek   RepeatPeriod = "week"
	RepeatMonth  RepeatPeriod = "month"
	RepeatSeason RepeatPeriod = "season"
)

var ErrInvalidJobKey = errors.New("invalid job key")

// ParseRepeatPeriod accepts the period names plus "quarter" as an alias of season
func ParseRepeatPeriod(s string) (RepeatPeriod, bool) {
	switch strings.ToLower(s) {
	case "day", "daily":
		return RepeatDay, true
	case "week", "weekly":
		return RepeatWeek, true
	case "month", "monthly":
		return RepeatMonth, true
	case "season", "quarter", "quarterly":
		return RepeatSeason, true
	}
	return "", false
}

// Next adds one period to $t. Months roll from $t, not from calendar quarters.
func (p RepeatPeriod) Next(t time.Time) time.Time {
	switch p {
	case RepeatDay:
		return t.AddDate(0, 0, 1)
	case RepeatWeek:
		return t.AddDate(0, 0, 7)
	case RepeatMonth:
		return addMonths(t, 1)
	case RepeatSeason:
		return addMonths(t, 3)
	}
	return t
}

// addMonths keeps the day of month, clamped to the last day of the target month
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, hour, minute, second, t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

type JobCommand struct {
	GuildID     string `json:"guildId"`
	ChannelID   string `json:"channelId"`
	UserID      string `json:"userId"`
	RaffleCount int    `json:"raffleCount,omitempty"`
}

type JobTarget struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
}

// Job is the durable record stored at /jobs/{kind}_{messageId}.
// The json names are read by external tooling, keep them stable.
type Job struct {
	ClientID   string       `json:"clientId"`
	ExecuteAt  int64        `json:"executeAt"`
	Command    JobCommand   `json:"command"`
	Target     JobTarget    `json:"target"`
	RetryTimes int          `json:"retryTimes"`
	Repeat     RepeatPeriod `json:"repeat,omitempty"`
}

// ExecuteTime converts ExecuteAt (epoch millis) into a time.Time
func (j Job) ExecuteTime() time.Time {
	return time.Unix(0, j.ExecuteAt*int64(time.Millisecond))
}

// SetExecuteTime stores $t as epoch millis
func (j *Job) SetExecuteTime(t time.Time) {
	j.ExecuteAt = t.UnixNano() / int64(time.Millisecond)
}

// IsDue reports whether the job may run at $now
func (j Job) IsDue(now time.Time) bool {
	return j.ExecuteAt <= now.UnixNano()/int64(time.Millisecond)
}

// JobKey builds the id of a job, one per kind and target message
func JobKey(kind JobKind, messageID string) string {
	return string(kind) + "_" + messageID
}

// ParseJobKey splits a job id into kind and message id
func ParseJobKey(key string) (kind JobKind, messageID string, err error) {
	idx := strings.Index(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", errors.Wrap(ErrInvalidJobKey, key)
	}

	kind = JobKind(key[:idx])
	switch kind {
	case JobKindCheck, JobKindRaffle:
	default:
		return "", "", errors.Wrap(ErrInvalidJobKey, key)
	}

	return kind, key[idx+1:], nil
}
