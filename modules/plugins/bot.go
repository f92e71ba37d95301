package plugins

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/reactions"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrMessageNotFound = errors.New("message not found")

// Platform is the part of the chat platform the plugins use
type Platform interface {
	reactions.Platform

	Channel(channelID string) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	MessageReactionsRemoveAll(channelID, messageID string) error
}

// Bot bundles what the plugins and the job runner share
type Bot struct {
	Platform   Platform
	Aggregator *reactions.Aggregator
	Scheduler  *scheduler.Scheduler
	Settings   *cache.SettingsCache
	Mirror     *cache.Mirror
	Store      store.Store
	Log        logrus.FieldLogger

	now func() time.Time

	rngMutex sync.Mutex
	rng      *rand.Rand
}

func NewBot(
	platform Platform,
	aggregator *reactions.Aggregator,
	jobs *scheduler.Scheduler,
	settings *cache.SettingsCache,
	mirror *cache.Mirror,
	s store.Store,
	log logrus.FieldLogger,
) *Bot {
	return &Bot{
		Platform:   platform,
		Aggregator: aggregator,
		Scheduler:  jobs,
		Settings:   settings,
		Mirror:     mirror,
		Store:      s,
		Log:        log.WithField("module", "plugins"),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Plugins returns every command plugin
func (b *Bot) Plugins() []modules.Plugin {
	return []modules.Plugin{
		&Check{bot: b},
		&Raffle{bot: b},
		&List{bot: b},
		&Cancel{bot: b},
		&Config{bot: b},
		&Help{},
	}
}

// seed returns a fresh seed for a draw, rand.Rand is not safe for concurrent use
func (b *Bot) seed() int64 {
	b.rngMutex.Lock()
	defer b.rngMutex.Unlock()

	return b.rng.Int63()
}

func syntaxError(locale, usage string) modules.SyntaxError {
	return modules.SyntaxError{Content: helpers.GetTextF(locale, "errors.syntax", usage)}
}

// fetchTarget resolves a message link or id inside the guild of $request
func (b *Bot) fetchTarget(request modules.Request, input string) (*discordgo.Message, modules.Result) {
	locale := request.Settings.Locale

	reference, err := helpers.ParseMessageReference(input, request.ChannelID)
	if err != nil {
		return nil, modules.SyntaxError{Content: helpers.GetText(locale, "errors.message-not-found")}
	}
	if reference.GuildID != "" && reference.GuildID != request.GuildID {
		return nil, modules.Failure{Content: helpers.GetText(locale, "errors.message-not-found")}
	}

	channel, err := b.Platform.Channel(reference.ChannelID)
	if err != nil || channel.GuildID != request.GuildID {
		return nil, modules.Failure{
			Content:    helpers.GetText(locale, "errors.channel-not-found"),
			Diagnostic: err,
		}
	}

	message, err := b.Platform.ChannelMessage(reference.ChannelID, reference.MessageID)
	if err != nil {
		return nil, modules.Failure{
			Content:    helpers.GetText(locale, "errors.message-not-found"),
			Diagnostic: errors.Wrap(ErrMessageNotFound, err.Error()),
		}
	}
	if message.ChannelID == "" {
		message.ChannelID = reference.ChannelID
	}
	return message, nil
}

// parseSchedule reads the optional "[time] [repeat]" tail of a command
func parseSchedule(args []string, now time.Time, offset float64) (at time.Time, repeat models.RepeatPeriod, scheduled bool, err error) {
	if len(args) == 0 {
		return time.Time{}, "", false, nil
	}

	if period, ok := models.ParseRepeatPeriod(args[len(args)-1]); ok {
		repeat = period
		args = args[:len(args)-1]
	}
	if len(args) == 0 {
		return time.Time{}, "", false, errors.Wrap(helpers.ErrInvalidTime, "a repeat needs a start time")
	}

	at, err = helpers.ParseTime(strings.Join(args, " "), now, offset)
	if err != nil {
		return time.Time{}, "", false, err
	}
	return at, repeat, true, nil
}

func scheduleError(locale string, err error) modules.Result {
	if errors.Cause(err) == helpers.ErrTimeInPast {
		return modules.SyntaxError{Content: helpers.GetText(locale, "errors.time-in-past")}
	}
	return modules.SyntaxError{Content: helpers.GetTextF(locale, "errors.invalid-time", err.Error())}
}

// schedule stores a job for $message once the message is known to mention somebody
func (b *Bot) schedule(
	ctx context.Context,
	kind models.JobKind,
	request modules.Request,
	message *discordgo.Message,
	at time.Time,
	repeat models.RepeatPeriod,
	raffleCount int,
) modules.Result {
	locale := request.Settings.Locale

	roster, err := b.Aggregator.FetchRoster(request.GuildID)
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}
	if _, err = reactions.Resolve(roster, reactions.MentionsOf(message)); err != nil {
		return modules.Failure{
			Content:    helpers.GetText(locale, "errors.no-mentioned"),
			Diagnostic: err,
		}
	}

	job := models.Job{
		Command: models.JobCommand{
			GuildID:     request.GuildID,
			ChannelID:   request.ChannelID,
			UserID:      request.AuthorID,
			RaffleCount: raffleCount,
		},
		Target: models.JobTarget{
			MessageID: message.ID,
			ChannelID: message.ChannelID,
		},
		Repeat: repeat,
	}
	job.SetExecuteTime(at)

	key, err := b.Scheduler.Schedule(ctx, kind, job)
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}

	absolute, relative := helpers.FormatTime(at, request.Settings.Offset)
	if repeat != "" {
		return modules.Success{Content: helpers.GetTextF(locale, "schedule.scheduled-repeat",
			key, relative, absolute, string(repeat))}
	}
	return modules.Success{Content: helpers.GetTextF(locale, "schedule.scheduled", key, relative, absolute)}
}
