package plugins

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/raffle"
	"github.com/Elantris/attention-please-sub000/reactions"
	"github.com/pkg/errors"
)

type Raffle struct {
	bot *Bot
}

func (r *Raffle) Commands() []string {
	return []string{
		"raffle",
	}
}

func (r *Raffle) Action(ctx context.Context, request modules.Request) modules.Result {
	settings := request.Settings
	locale := settings.Locale
	usage := settings.Prefix + "raffle <message> <count> [time] [repeat]"

	if len(request.Args) < 2 {
		return syntaxError(locale, usage)
	}

	count, err := strconv.Atoi(request.Arg(1))
	if err != nil || count < 1 {
		return modules.SyntaxError{Content: helpers.GetText(locale, "errors.invalid-count")}
	}

	message, failed := r.bot.fetchTarget(request, request.Arg(0))
	if failed != nil {
		return failed
	}

	at, repeat, scheduled, err := parseSchedule(request.Args[2:], r.bot.now(), settings.Offset)
	if err != nil {
		return scheduleError(locale, err)
	}
	if scheduled {
		return r.bot.schedule(ctx, models.JobKindRaffle, request, message, at, repeat, count)
	}

	status, err := r.bot.Aggregator.Evaluate(request.GuildID, message)
	if errors.Cause(err) == reactions.ErrNoMentionedMembers {
		return modules.Failure{Content: helpers.GetText(locale, "errors.no-mentioned"), Diagnostic: err}
	}
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}

	result, err := raffle.Draw(status, count, rand.New(rand.NewSource(r.bot.seed())))
	if errors.Cause(err) == raffle.ErrNoReactedMembers {
		return modules.Failure{Content: helpers.GetText(locale, "errors.no-reacted"), Diagnostic: err}
	}
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}

	link := helpers.MessageLink(request.GuildID, message.ChannelID, message.ID)
	return raffleResult(settings, r.bot.Mirror.RemindSettings(request.GuildID), link, message.ID, status, result)
}
