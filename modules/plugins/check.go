package plugins

import (
	"context"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/reactions"
	"github.com/pkg/errors"
)

type Check struct {
	bot *Bot
}

func (c *Check) Commands() []string {
	return []string{
		"check",
	}
}

func (c *Check) Action(ctx context.Context, request modules.Request) modules.Result {
	settings := request.Settings
	locale := settings.Locale
	usage := settings.Prefix + "check <message> [time] [repeat]"

	if len(request.Args) == 0 {
		return syntaxError(locale, usage)
	}

	message, failed := c.bot.fetchTarget(request, request.Arg(0))
	if failed != nil {
		return failed
	}

	at, repeat, scheduled, err := parseSchedule(request.Args[1:], c.bot.now(), settings.Offset)
	if err != nil {
		return scheduleError(locale, err)
	}
	if scheduled {
		return c.bot.schedule(ctx, models.JobKindCheck, request, message, at, repeat, 0)
	}

	status, err := c.bot.Aggregator.Evaluate(request.GuildID, message)
	if errors.Cause(err) == reactions.ErrNoMentionedMembers {
		return modules.Failure{Content: helpers.GetText(locale, "errors.no-mentioned"), Diagnostic: err}
	}
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}

	link := helpers.MessageLink(request.GuildID, message.ChannelID, message.ID)
	return checkResult(settings, c.bot.Mirror.RemindSettings(request.GuildID), link, message.ID, status)
}
