package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/metrics"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/modules/plugins"
	"github.com/Elantris/attention-please-sub000/ratelimits"
	"github.com/Elantris/attention-please-sub000/reactions"
	"github.com/Elantris/attention-please-sub000/rest"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/Elantris/attention-please-sub000/version"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to discord and serve commands and scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}
}

func runBot(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	log := cache.GetLogger().WithField("module", "launcher")
	log.Info("Booting Attention Please...")

	// Read i18n
	if err := helpers.LoadTranslations(); err != nil {
		return err
	}

	// Show version
	version.DumpInfo(cache.GetLogger())

	metrics.Init()

	// Call home
	if dsn := helpers.ConfigString("sentry", ""); dsn != "" {
		if err := raven.SetDSN(dsn); err != nil {
			return errors.Wrap(err, "configuring sentry")
		}
		if version.Released() {
			raven.SetRelease(version.BOT_VERSION)
		}
		log.Info("[SENTRY] Someone picked up the phone \\^-^/")
	}

	log.Info("Opening store...")
	s, err := openStore(ctx, cache.GetLogger())
	if err != nil {
		return err
	}
	defer s.Close()

	mirror := cache.NewMirror(cache.GetLogger())
	settings := cache.NewSettingsCache(s, helpers.ConfigDuration("settings.ttl", cache.DefaultSettingsTimeout))
	mirror.OnChange(settings.OnStoreEvent)
	if err = mirror.Attach(ctx, s); err != nil {
		return err
	}

	token, err := discordToken(ctx)
	if err != nil {
		return err
	}

	routeDiscordgoLogs()
	log.Info("Connecting to discord...")
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return errors.Wrap(err, "creating discord session")
	}

	session.Lock()
	session.Debug = false
	session.LogLevel = discordgo.LogInformational
	session.StateEnabled = true
	session.Unlock()

	clientID, err := helpers.ClientID(helpers.ConfigString("client_id", ""), func() (*discordgo.User, error) {
		return session.User("@me")
	})
	if err != nil {
		return err
	}
	// tells processes sharing a client id apart in logs and sentry
	instanceID := uuid.New().String()
	raven.SetTagsContext(map[string]string{"client": clientID, "instance": instanceID})
	log.Infof("running as client %s (instance %s)", clientID, instanceID)

	platform := helpers.NewDiscord(session)
	jobs := scheduler.New(s, mirror, nil, clientID, cache.GetLogger())
	bot := plugins.NewBot(
		platform,
		reactions.NewAggregator(platform, cache.GetLogger()),
		jobs,
		settings,
		mirror,
		s,
		cache.GetLogger(),
	)
	jobs.SetExecutor(plugins.NewJobRunner(bot))

	dispatcher := modules.NewDispatcher(
		platform,
		settings,
		mirror,
		ratelimits.NewGuildGate(helpers.ConfigDuration("gate.cooldown", ratelimits.DefaultCooldown)),
		ratelimits.NewUserBuckets(),
		cache.GetLogger(),
	)
	if err = dispatcher.Init(bot.Plugins()...); err != nil {
		return err
	}

	session.AddHandler(BotOnReady)
	session.AddHandler(BotOnGuildCreate)
	session.AddHandler(BotOnGuildDelete)
	session.AddHandler(dispatcher.OnMessageCreate)
	session.AddHandler(metrics.OnMessageCreate)

	if err = session.Open(); err != nil {
		raven.CaptureErrorAndWait(err, nil)
		return errors.Wrap(err, "connecting to discord")
	}
	defer session.Close()

	go metrics.CollectDiscordMetrics(ctx, session)

	if err = jobs.Start(ctx, helpers.ConfigString("scheduler.interval", scheduler.DefaultInterval)); err != nil {
		return err
	}
	defer jobs.Stop()

	// Open REST API
	api := &rest.API{
		Scheduler: jobs,
		Settings:  settings,
		Mirror:    mirror,
		Store:     s,
		Log:       cache.GetLogger(),
	}
	listen := helpers.ConfigString("api.listen", "localhost:2021")
	server := &http.Server{Addr: listen, Handler: api.NewContainer()}
	go func() {
		defer helpers.Recover(log)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("REST API stopped: %s", err.Error())
		}
	}()
	defer server.Shutdown(context.Background())
	log.Infof("REST API listening on %s", listen)

	// Wait until the os wants us to shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signals:
	case <-ctx.Done():
	}

	log.Info("Attention Please is stopping")
	return nil
}
