package plugins

import (
	"context"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/pkg/errors"
)

type Cancel struct {
	bot *Bot
}

func (c *Cancel) Commands() []string {
	return []string{
		"cancel",
	}
}

func (c *Cancel) Action(ctx context.Context, request modules.Request) modules.Result {
	locale := request.Settings.Locale

	key := request.Arg(0)
	if key == "" {
		return syntaxError(locale, request.Settings.Prefix+"cancel <job>")
	}

	err := c.bot.Scheduler.Cancel(ctx, request.GuildID, key)
	if errors.Cause(err) == scheduler.ErrJobNotFound {
		return modules.Failure{Content: helpers.GetTextF(locale, "errors.job-not-found", key), Diagnostic: err}
	}
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}

	return modules.Success{Content: helpers.GetTextF(locale, "schedule.cancelled", key)}
}
