package reactions

import (
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// PageSize is the number of reacting users fetched per request
	PageSize = 100
	// RosterPageSize is the number of guild members fetched per request
	RosterPageSize = 1000
)

// Platform is the part of the chat platform an evaluation reads from
type Platform interface {
	GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error)
	MessageReactions(channelID, messageID, emojiID string, limit int, after string) ([]*discordgo.User, error)
	UserChannelPermissions(userID, channelID string) (int, error)
}

// Aggregator evaluates messages against a platform
type Aggregator struct {
	platform Platform
	log      logrus.FieldLogger
}

func NewAggregator(platform Platform, log logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		platform: platform,
		log:      log,
	}
}

// FetchRoster pages through every member of $guildID
func (a *Aggregator) FetchRoster(guildID string) (Roster, error) {
	members := make([]*discordgo.Member, 0)
	after := ""
	for {
		page, err := a.platform.GuildMembers(guildID, after, RosterPageSize)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching members of guild %s", guildID)
		}
		members = append(members, page...)
		if len(page) < RosterPageSize {
			break
		}
		after = page[len(page)-1].User.ID
	}
	return NewRoster(members), nil
}

// Aggregate walks every reaction of $message and moves the members in
// $status accordingly. Reacting users outside the candidate set are added as
// irrelevant, or leaved when they are no longer in the guild.
func (a *Aggregator) Aggregate(status models.ReactionStatus, roster Roster, message *discordgo.Message) error {
	for _, reaction := range message.Reactions {
		if reaction.Emoji == nil {
			continue
		}
		emojiID := reaction.Emoji.APIName()

		after := ""
		for {
			users, err := a.platform.MessageReactions(message.ChannelID, message.ID, emojiID, PageSize, after)
			if err != nil {
				return errors.Wrapf(err, "fetching reactions %s of message %s", emojiID, message.ID)
			}

			for _, user := range users {
				if user.Bot {
					continue
				}
				mark(status, roster, user)
			}

			if len(users) < PageSize {
				break
			}
			after = users[len(users)-1].ID
		}
	}
	return nil
}

func mark(status models.ReactionStatus, roster Roster, user *discordgo.User) {
	member, isCandidate := status[user.ID]
	if !isCandidate {
		if rosterMember, inGuild := roster[user.ID]; inGuild {
			status[user.ID] = &models.MemberStatus{
				DisplayName: DisplayName(rosterMember),
				Status:      models.StatusIrrelevant,
			}
		} else {
			status[user.ID] = &models.MemberStatus{
				DisplayName: user.Username,
				Status:      models.StatusLeaved,
			}
		}
		return
	}

	if member.Status == models.StatusAbsent {
		member.Status = models.StatusReacted
	}
}

// Classify marks every member still absent as locked when it cannot read
// the message history of $channelID
func (a *Aggregator) Classify(status models.ReactionStatus, roster Roster, channelID string) error {
	for userID, member := range status {
		if member.Status != models.StatusAbsent {
			continue
		}
		if _, ok := roster[userID]; !ok {
			member.Status = models.StatusLocked
			continue
		}

		permissions, err := a.platform.UserChannelPermissions(userID, channelID)
		if err != nil {
			return errors.Wrapf(err, "fetching permissions of %s in channel %s", userID, channelID)
		}
		if permissions&discordgo.PermissionReadMessages == 0 ||
			permissions&discordgo.PermissionReadMessageHistory == 0 {
			member.Status = models.StatusLocked
		}
	}
	return nil
}

// Evaluate builds the full reaction status of $message in $guildID
func (a *Aggregator) Evaluate(guildID string, message *discordgo.Message) (models.ReactionStatus, error) {
	roster, err := a.FetchRoster(guildID)
	if err != nil {
		return nil, err
	}

	status, err := Resolve(roster, MentionsOf(message))
	if err != nil {
		return nil, err
	}

	err = a.Aggregate(status, roster, message)
	if err != nil {
		return nil, err
	}

	err = a.Classify(status, roster, message.ChannelID)
	if err != nil {
		return nil, err
	}

	a.log.WithField("module", "reactions").Debugf(
		"evaluated message %s: %d reacted, %d absent, %d locked",
		message.ID,
		status.Count(models.StatusReacted),
		status.Count(models.StatusAbsent),
		status.Count(models.StatusLocked),
	)
	return status, nil
}
