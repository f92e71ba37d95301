package plugins

import (
	"context"
	"strings"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/modules"
)

type List struct {
	bot *Bot
}

func (l *List) Commands() []string {
	return []string{
		"list",
	}
}

func (l *List) Action(ctx context.Context, request modules.Request) modules.Result {
	settings := request.Settings
	locale := settings.Locale

	entries := l.bot.Scheduler.Pending(request.GuildID)
	if len(entries) == 0 {
		return modules.Success{Content: helpers.GetText(locale, "schedule.list-empty")}
	}

	lines := []string{helpers.GetText(locale, "schedule.list-header")}
	for _, entry := range entries {
		absolute, relative := helpers.FormatTime(entry.Job.ExecuteTime(), settings.Offset)
		if entry.Job.Repeat != "" {
			lines = append(lines, helpers.GetTextF(locale, "schedule.list-entry-repeat",
				entry.Key, entry.Job.Target.ChannelID, absolute, relative, string(entry.Job.Repeat)))
			continue
		}
		lines = append(lines, helpers.GetTextF(locale, "schedule.list-entry",
			entry.Key, entry.Job.Target.ChannelID, absolute, relative))
	}
	return modules.Success{Content: strings.Join(lines, "\n")}
}
