package helpers

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidMessageReference = errors.New("not a message link or id")

var (
	messageLinkRegex = regexp.MustCompile(
		`^<?https://(?:(?:ptb|canary)\.)?discord(?:app)?\.com/channels/(\d+|@me)/(\d+)/(\d+)>?$`,
	)
	snowflakeRegex = regexp.MustCompile(`^\d{15,21}$`)
)

// MessageReference points at a message, GuildID is empty for bare ids
type MessageReference struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// ParseMessageReference accepts a message link or a bare message id, the
// latter is resolved in $channelID
func ParseMessageReference(input, channelID string) (MessageReference, error) {
	input = strings.TrimSpace(input)

	if parts := messageLinkRegex.FindStringSubmatch(input); parts != nil {
		return MessageReference{
			GuildID:   parts[1],
			ChannelID: parts[2],
			MessageID: parts[3],
		}, nil
	}

	if snowflakeRegex.MatchString(input) {
		return MessageReference{
			ChannelID: channelID,
			MessageID: input,
		}, nil
	}

	return MessageReference{}, errors.Wrap(ErrInvalidMessageReference, input)
}

// MessageLink builds the link of a guild message
func MessageLink(guildID, channelID, messageID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID + "/" + messageID
}
