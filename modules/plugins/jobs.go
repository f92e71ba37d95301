package plugins

import (
	"context"
	"math/rand"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/raffle"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// JobRunner executes scheduled checks and raffles
type JobRunner struct {
	bot *Bot
}

func NewJobRunner(bot *Bot) *JobRunner {
	return &JobRunner{bot: bot}
}

type delivery struct {
	platform  Platform
	channelID string
	message   *discordgo.MessageSend
	reacted   bool
}

func (d *delivery) Reacted() bool {
	return d.reacted
}

func (d *delivery) Deliver() error {
	_, err := d.platform.ChannelMessageSendComplex(d.channelID, d.message)
	return err
}

func (r *JobRunner) Execute(ctx context.Context, key string, job models.Job) (scheduler.Delivery, error) {
	kind, _, err := models.ParseJobKey(key)
	if err != nil {
		return nil, err
	}

	for _, channelID := range []string{job.Command.ChannelID, job.Target.ChannelID} {
		if _, err = r.bot.Platform.Channel(channelID); err != nil {
			return nil, errors.Wrapf(scheduler.ErrChannelNotFound, "%s: %s", channelID, err.Error())
		}
	}

	message, err := r.bot.Platform.ChannelMessage(job.Target.ChannelID, job.Target.MessageID)
	if err != nil {
		return nil, errors.Wrapf(ErrMessageNotFound, "%s: %s", job.Target.MessageID, err.Error())
	}
	if message.ChannelID == "" {
		message.ChannelID = job.Target.ChannelID
	}

	settings, err := r.bot.Settings.Get(ctx, job.Command.GuildID)
	if err != nil {
		return nil, err
	}
	remind := r.bot.Mirror.RemindSettings(job.Command.GuildID)

	status, err := r.bot.Aggregator.Evaluate(job.Command.GuildID, message)
	if err != nil {
		return nil, err
	}

	link := helpers.MessageLink(job.Command.GuildID, job.Target.ChannelID, job.Target.MessageID)
	result := &delivery{
		platform:  r.bot.Platform,
		channelID: job.Command.ChannelID,
		reacted:   status.Count(models.StatusReacted) > 0,
	}

	switch kind {
	case models.JobKindCheck:
		result.message = modules.Render(checkResult(settings, remind, link, message.ID, status))

	case models.JobKindRaffle:
		drawn, err := raffle.Draw(status, job.Command.RaffleCount, rand.New(rand.NewSource(r.bot.seed())))
		if errors.Cause(err) == raffle.ErrNoReactedMembers {
			result.message = &discordgo.MessageSend{Content: helpers.GetText(settings.Locale, "errors.no-reacted")}
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		result.message = modules.Render(raffleResult(settings, remind, link, message.ID, status, drawn))
	}

	return result, nil
}

func (r *JobRunner) ClearReactions(job models.Job) error {
	return r.bot.Platform.MessageReactionsRemoveAll(job.Target.ChannelID, job.Target.MessageID)
}

func (r *JobRunner) Warn(key string, job models.Job, reason scheduler.Reason, cause error) {
	log := r.bot.Log.WithField("job", key)

	locale := models.DefaultLocale
	if settings, err := r.bot.Settings.Get(context.Background(), job.Command.GuildID); err == nil {
		locale = settings.Locale
	}

	var content string
	switch reason {
	case scheduler.ReasonRetryExceeded:
		causeText := "unknown error"
		if cause != nil {
			causeText = errors.Cause(cause).Error()
		}
		content = helpers.GetTextF(locale, "warnings.retryExceeded", key, scheduler.MaxRetryTimes+1, causeText)
	case scheduler.ReasonRepeatEmpty:
		content = helpers.GetTextF(locale, "warnings.repeatEmpty", scheduler.MaxRetryTimes, key)
	}
	log.Warnf("job dropped: %s", reason)

	_, err := r.bot.Platform.ChannelMessageSendComplex(job.Command.ChannelID, &discordgo.MessageSend{Content: content})
	if err != nil {
		log.Warnf("sending warning: %s", err.Error())
	}
}
