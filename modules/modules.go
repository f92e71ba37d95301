package modules

import (
	"context"
	"strings"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/metrics"
	"github.com/Elantris/attention-please-sub000/ratelimits"
	"github.com/Necroforger/dgrouter"
	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Platform is what the dispatcher needs from the chat platform
type Platform interface {
	UserChannelPermissions(userID, channelID string) (int, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
}

// Dispatcher routes text commands to plugins and posts their results
type Dispatcher struct {
	platform Platform
	settings *cache.SettingsCache
	mirror   *cache.Mirror
	gate     *ratelimits.GuildGate
	buckets  *ratelimits.UserBuckets
	router   *exrouter.Route
	commands map[string]Plugin
	log      logrus.FieldLogger
}

func NewDispatcher(
	platform Platform,
	settings *cache.SettingsCache,
	mirror *cache.Mirror,
	gate *ratelimits.GuildGate,
	buckets *ratelimits.UserBuckets,
	log logrus.FieldLogger,
) *Dispatcher {
	return &Dispatcher{
		platform: platform,
		settings: settings,
		mirror:   mirror,
		gate:     gate,
		buckets:  buckets,
		router:   exrouter.New(),
		commands: make(map[string]Plugin),
		log:      log.WithField("module", "modules"),
	}
}

// Init registers the commands of $plugins
func (d *Dispatcher) Init(plugins ...Plugin) error {
	for _, plugin := range plugins {
		for _, command := range plugin.Commands() {
			command = strings.ToLower(command)
			if _, exists := d.commands[command]; exists {
				return errors.Errorf("command %s is registered twice", command)
			}
			d.commands[command] = plugin
			d.router.On(command, d.route(plugin, command))
		}
		d.log.Infof("%T reacts to [ %s ]", plugin, strings.Join(plugin.Commands(), " "))
	}
	return nil
}

// Plugin returns the plugin registered for $command
func (d *Dispatcher) Plugin(command string) (Plugin, bool) {
	plugin, ok := d.commands[strings.ToLower(command)]
	return plugin, ok
}

// OnMessageCreate listens for said discord event
func (d *Dispatcher) OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	defer helpers.Recover(d.log)

	msg := event.Message
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}
	if d.mirror.IsBanned(msg.Author.ID, msg.GuildID) {
		return
	}

	settings, err := d.settings.Get(context.Background(), msg.GuildID)
	if err != nil {
		d.log.WithField("guild", msg.GuildID).Errorf("loading settings: %s", err.Error())
		return
	}

	err = d.router.FindAndExecute(session, settings.Prefix, session.State.User.ID, msg)
	if err != nil && err != dgrouter.ErrCouldNotFindRoute {
		d.log.Debugf("routing message %s: %s", msg.ID, err.Error())
	}
}

func (d *Dispatcher) route(plugin Plugin, command string) exrouter.HandlerFunc {
	return func(ctx *exrouter.Context) {
		msg := ctx.Msg
		settings, err := d.settings.Get(context.Background(), msg.GuildID)
		if err != nil {
			d.log.WithField("guild", msg.GuildID).Errorf("loading settings: %s", err.Error())
			return
		}

		permissions, err := d.platform.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
		if err != nil {
			permissions = 0
		}

		args := []string{}
		if len(ctx.Args) > 1 {
			args = ctx.Args[1:]
		}

		request := Request{
			GuildID:     msg.GuildID,
			ChannelID:   msg.ChannelID,
			MessageID:   msg.ID,
			AuthorID:    msg.Author.ID,
			Permissions: permissions,
			Command:     command,
			Args:        args,
			Settings:    settings,
		}

		result := d.Dispatch(context.Background(), plugin, request)
		d.Send(msg.ChannelID, result)
	}
}

// Dispatch runs $plugin behind the rate limits. Panics and unexpected
// failures are logged, reported and turned into a generic failure.
func (d *Dispatcher) Dispatch(ctx context.Context, plugin Plugin, request Request) (result Result) {
	locale := request.Settings.Locale
	log := d.log.WithFields(logrus.Fields{
		"guild":   request.GuildID,
		"channel": request.ChannelID,
		"command": request.Command,
	})

	if !d.buckets.Drain(request.AuthorID) {
		metrics.CommandsThrottled.WithLabelValues("user").Inc()
		return Failure{Content: helpers.GetText(locale, "errors.busy-cooling")}
	}

	release, state, ok := d.gate.Acquire(request.GuildID)
	if !ok {
		metrics.CommandsThrottled.WithLabelValues("guild").Inc()
		if state == ratelimits.GuildProcessing {
			return Failure{Content: helpers.GetText(locale, "errors.busy-processing")}
		}
		return Failure{Content: helpers.GetText(locale, "errors.busy-cooling")}
	}
	defer release()

	defer func() {
		if r := recover(); r != nil {
			result = Failure{Diagnostic: errors.Errorf("recovered from panic: %#v", r)}
		}

		metrics.CommandsExecuted.WithLabelValues(request.Command, ResultName(result)).Inc()

		failure, isFailure := result.(Failure)
		if !isFailure {
			return
		}
		if failure.Content != "" {
			if failure.Diagnostic != nil {
				log.Debugf("command failed: %s", failure.Diagnostic.Error())
			}
			return
		}

		diagnostic := failure.Diagnostic
		if diagnostic == nil {
			diagnostic = errors.New("failure without diagnostic")
		}
		log.Errorf("command failed unexpectedly: %+v", diagnostic)
		helpers.CaptureError(diagnostic, map[string]string{
			"GuildID":   request.GuildID,
			"ChannelID": request.ChannelID,
			"Command":   request.Command,
		})
		result = Failure{
			Content:    helpers.GetText(locale, "errors.generic"),
			Diagnostic: diagnostic,
		}
	}()

	return plugin.Action(ctx, request)
}
