package helpers

import (
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Discord adapts a session to the narrow platform interfaces of the bot
type Discord struct {
	Session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{Session: session}
}

func (d *Discord) BotUserID() string {
	if d.Session.State == nil || d.Session.State.User == nil {
		return ""
	}
	return d.Session.State.User.ID
}

func (d *Discord) Channel(channelID string) (*discordgo.Channel, error) {
	if channel, err := d.Session.State.Channel(channelID); err == nil {
		return channel, nil
	}
	return d.Session.Channel(channelID)
}

func (d *Discord) ChannelMessage(channelID, messageID string) (*discordgo.Message, error) {
	return d.Session.ChannelMessage(channelID, messageID)
}

func (d *Discord) GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error) {
	return d.Session.GuildMembers(guildID, after, limit)
}

func (d *Discord) MessageReactions(channelID, messageID, emojiID string, limit int, after string) ([]*discordgo.User, error) {
	return d.Session.MessageReactions(channelID, messageID, emojiID, limit, "", after)
}

func (d *Discord) UserChannelPermissions(userID, channelID string) (int, error) {
	return d.Session.UserChannelPermissions(userID, channelID)
}

func (d *Discord) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return d.Session.ChannelMessageSendComplex(channelID, data)
}

func (d *Discord) MessageReactionsRemoveAll(channelID, messageID string) error {
	return d.Session.MessageReactionsRemoveAll(channelID, messageID)
}

// CanManageGuild checks if $permissions allow changing the settings of a guild
func CanManageGuild(permissions int) bool {
	return permissions&discordgo.PermissionAdministrator != 0 ||
		permissions&discordgo.PermissionManageServer != 0
}

// ClientID is the owner stamped on scheduled jobs: $configured when set,
// otherwise the id of the bot user so that a restarted process picks up the
// jobs of the previous one
func ClientID(configured string, self func() (*discordgo.User, error)) (string, error) {
	if configured != "" {
		return configured, nil
	}

	user, err := self()
	if err != nil {
		return "", errors.Wrap(err, "fetching bot user")
	}
	if user == nil || user.ID == "" {
		return "", errors.New("bot user has no id")
	}
	return user.ID, nil
}
