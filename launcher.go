package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/logging"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/Elantris/attention-please-sub000/version"
	"github.com/go-redis/redis"
	"github.com/joho/godotenv"
	"github.com/kz/discordrus"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	rootCmd = &cobra.Command{
		Use:               "attention-please",
		Short:             "Discord bot that checks who reacted to a message",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Entrypoint
func main() {
	// variables from .env are optional
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("attention-please %s (built %s by %s)\n",
				version.BOT_VERSION, version.BUILD_TIME, version.BUILD_USER)
		},
	})
	rootCmd.AddCommand(newRunCmd(), newJobsCmd(), newBansCmd())
}

// setup reads the config and builds the logger every command shares
func setup(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err == nil {
		if err = helpers.LoadConfig(cfgFile); err != nil {
			return err
		}
	}

	log := logrus.New()
	log.Out = os.Stdout
	log.Level = logrus.InfoLevel
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)

	if helpers.ConfigBool("debug", false) {
		log.Level = logrus.DebugLevel
	}
	if level := helpers.ConfigString("logging.level", ""); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrap(err, "logging.level")
		}
		log.Level = parsed
	}

	if path := helpers.ConfigString("logging.jsonfile", ""); path != "" {
		fileHook, err := logging.NewLogrusFileHook(path, log.Level)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err:", err.Error())
		} else {
			log.Hooks.Add(fileHook)
		}
	}

	if webhook := helpers.ConfigString("logging.discord_webhook", ""); webhook != "" {
		log.Hooks.Add(discordrus.NewHook(
			webhook,
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	cache.SetLogger(log)
	return nil
}

// openStore connects to the backend named by store.driver
func openStore(ctx context.Context, log logrus.FieldLogger) (store.Store, error) {
	prefix := helpers.ConfigString("store.prefix", "")

	switch driver := helpers.ConfigString("store.driver", "bolt"); driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     helpers.ConfigString("redis.address", "localhost:6379"),
			Password: helpers.ConfigString("redis.password", ""),
			DB:       helpers.ConfigInt("redis.db", 0),
		})
		if err := client.Ping().Err(); err != nil {
			return nil, errors.Wrap(err, "connecting to redis")
		}
		return store.NewRedis(client, prefix, log), nil

	case "bolt":
		return store.OpenBolt(helpers.ConfigString("bolt.path", "attention-please.db"))

	case "firestore":
		return store.NewFirestore(ctx, helpers.ConfigString("gcp.project_id", ""), prefix, log)

	default:
		return nil, errors.Errorf("unknown store driver %s", driver)
	}
}

// discordToken prefers DISCORD_TOKEN, then the secret manager, then the config file
func discordToken(ctx context.Context) (string, error) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		return token, nil
	}
	if secret := helpers.ConfigString("discord.token_secret", ""); secret != "" {
		return helpers.ReadSecret(ctx, helpers.ConfigString("gcp.project_id", ""), secret)
	}
	if token := helpers.ConfigString("discord.token", ""); token != "" {
		return token, nil
	}
	return "", errors.New("no discord token configured")
}
