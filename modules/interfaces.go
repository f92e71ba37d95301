package modules

import (
	"context"

	"github.com/Elantris/attention-please-sub000/models"
)

// Request is a parsed command invocation
type Request struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	// Permissions of the author in ChannelID
	Permissions int

	Command  string
	Args     []string
	Settings models.GuildSettings
}

// Arg returns the argument at $index or an empty string
func (r Request) Arg(index int) string {
	if index < 0 || index >= len(r.Args) {
		return ""
	}
	return r.Args[index]
}

type Plugin interface {
	Commands() []string

	Action(ctx context.Context, request Request) Result
}
