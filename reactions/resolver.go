// Package reactions works out who of the members a message mentions
// acknowledged it by reacting, and who could not have seen it at all.
package reactions

import (
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

var ErrNoMentionedMembers = errors.New("the message does not mention any member")

// Roster maps user ids to the members currently in a guild
type Roster map[string]*discordgo.Member

// NewRoster indexes $members by user id
func NewRoster(members []*discordgo.Member) Roster {
	roster := make(Roster, len(members))
	for _, member := range members {
		if member == nil || member.User == nil {
			continue
		}
		roster[member.User.ID] = member
	}
	return roster
}

// DisplayName returns the nickname of a member, or its username
func DisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	return member.User.Username
}

// Mentions is what a message mentions
type Mentions struct {
	UserIDs  []string
	RoleIDs  []string
	Everyone bool
}

// MentionsOf extracts the mentions of $message
func MentionsOf(message *discordgo.Message) Mentions {
	mentions := Mentions{
		RoleIDs:  message.MentionRoles,
		Everyone: message.MentionEveryone,
	}
	for _, user := range message.Mentions {
		mentions.UserIDs = append(mentions.UserIDs, user.ID)
	}
	return mentions
}

// Resolve builds the candidate set of a message, every candidate starts absent.
// Bots are never candidates.
func Resolve(roster Roster, mentions Mentions) (models.ReactionStatus, error) {
	status := make(models.ReactionStatus)

	add := func(member *discordgo.Member) {
		if member.User.Bot {
			return
		}
		status[member.User.ID] = &models.MemberStatus{
			DisplayName: DisplayName(member),
			Status:      models.StatusAbsent,
		}
	}

	if mentions.Everyone {
		for _, member := range roster {
			add(member)
		}
	} else {
		for _, userID := range mentions.UserIDs {
			if member, ok := roster[userID]; ok {
				add(member)
			}
		}

		if len(mentions.RoleIDs) > 0 {
			roles := make(map[string]bool, len(mentions.RoleIDs))
			for _, roleID := range mentions.RoleIDs {
				roles[roleID] = true
			}
			for _, member := range roster {
				for _, roleID := range member.Roles {
					if roles[roleID] {
						add(member)
						break
					}
				}
			}
		}
	}

	if len(status) == 0 {
		return nil, ErrNoMentionedMembers
	}
	return status, nil
}
