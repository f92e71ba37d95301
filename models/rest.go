package models

import (
	"time"
)

var (
	ISO8601 = "2006-01-02T15:04:05-0700"
)

type Rest_Job struct {
	ID          string
	Kind        JobKind
	ClientID    string
	GuildID     string
	ChannelID   string
	UserID      string
	Target      JobTarget
	ExecuteAt   time.Time
	RetryTimes  int
	Repeat      RepeatPeriod `json:",omitempty"`
	RaffleCount int          `json:",omitempty"`
}

type Rest_Ban struct {
	ID        string
	Reason    string
	CreatedAt time.Time
}

type Rest_Error struct {
	Error string
}

// NewRestJob flattens the stored job $key for the operator API
func NewRestJob(key string, job Job) Rest_Job {
	kind, _, _ := ParseJobKey(key)
	return Rest_Job{
		ID:          key,
		Kind:        kind,
		ClientID:    job.ClientID,
		GuildID:     job.Command.GuildID,
		ChannelID:   job.Command.ChannelID,
		UserID:      job.Command.UserID,
		Target:      job.Target,
		ExecuteAt:   job.ExecuteTime(),
		RetryTimes:  job.RetryTimes,
		Repeat:      job.Repeat,
		RaffleCount: job.Command.RaffleCount,
	}
}

func NewRestBan(id string, ban Ban) Rest_Ban {
	return Rest_Ban{
		ID:        id,
		Reason:    ban.Reason,
		CreatedAt: time.Unix(0, ban.CreatedAt*int64(time.Millisecond)),
	}
}
