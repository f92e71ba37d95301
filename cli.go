package main

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newTable writes to stdout in the light style
func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and cancel scheduled jobs",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all scheduled jobs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore(cmd.Context(), cache.GetLogger())
				if err != nil {
					return err
				}
				defer s.Close()

				raw, err := s.List(cmd.Context(), models.JobsTable)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(raw))
				for key := range raw {
					keys = append(keys, key)
				}
				sort.Strings(keys)

				t := newTable(table.Row{"ID", "Guild", "Channel", "Due", "Repeat", "Retries", "Client"})
				for _, key := range keys {
					var job models.Job
					if err = json.Unmarshal(raw[key], &job); err != nil {
						return errors.Wrapf(err, "decoding job %s", key)
					}
					t.AppendRow(table.Row{
						key,
						job.Command.GuildID,
						job.Command.ChannelID,
						job.ExecuteTime().Format(helpers.DisplayLayout),
						string(job.Repeat),
						job.RetryTimes,
						job.ClientID,
					})
				}
				t.Render()
				return nil
			},
		},
		&cobra.Command{
			Use:   "cancel <job>",
			Short: "Remove a scheduled job",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore(cmd.Context(), cache.GetLogger())
				if err != nil {
					return err
				}
				defer s.Close()

				jobs := scheduler.New(s, cache.NewMirror(cache.GetLogger()), nil, "", cache.GetLogger())
				if err = jobs.CancelAny(cmd.Context(), args[0]); err != nil {
					return err
				}
				cache.GetLogger().WithField("module", "cli").Infof("cancelled %s", args[0])
				return nil
			},
		},
	)

	return cmd
}

func newBansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bans",
		Short: "Manage banned users and guilds",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <id> [reason]",
			Short: "Ban a user or guild from using the bot",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore(cmd.Context(), cache.GetLogger())
				if err != nil {
					return err
				}
				defer s.Close()

				_, err = cache.AddBan(cmd.Context(), s, nil, args[0], strings.Join(args[1:], " "))
				return err
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Lift a ban",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore(cmd.Context(), cache.GetLogger())
				if err != nil {
					return err
				}
				defer s.Close()

				return cache.RemoveBan(cmd.Context(), s, nil, args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all bans",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore(cmd.Context(), cache.GetLogger())
				if err != nil {
					return err
				}
				defer s.Close()

				bans, err := cache.ListBans(cmd.Context(), s)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(bans))
				for id := range bans {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				t := newTable(table.Row{"ID", "Reason", "Since"})
				for _, id := range ids {
					ban := models.NewRestBan(id, bans[id])
					t.AppendRow(table.Row{id, ban.Reason, ban.CreatedAt.Format(time.RFC3339)})
				}
				t.Render()
				return nil
			},
		},
	)

	return cmd
}
