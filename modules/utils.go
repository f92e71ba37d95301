package modules

import (
	"github.com/bwmarrin/discordgo"
)

// Render turns $result into a message
func Render(result Result) *discordgo.MessageSend {
	switch r := result.(type) {
	case Success:
		return &discordgo.MessageSend{
			Content: r.Content,
			Embed:   r.Embed,
			Files:   r.Files,
		}
	case SyntaxError:
		return &discordgo.MessageSend{Content: r.Content}
	case Failure:
		return &discordgo.MessageSend{Content: r.Content}
	}
	return nil
}

// Send posts $result to $channelID
func (d *Dispatcher) Send(channelID string, result Result) {
	message := Render(result)
	if message == nil || (message.Content == "" && message.Embed == nil && len(message.Files) == 0) {
		return
	}

	_, err := d.platform.ChannelMessageSendComplex(channelID, message)
	if err != nil {
		d.log.WithField("channel", channelID).Warnf("sending result: %s", err.Error())
	}
}
