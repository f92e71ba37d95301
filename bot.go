package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/bwmarrin/discordgo"
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger().WithField("module", "bot")

	log.Infof("Connected to discord as %s#%s in %d guilds",
		event.User.Username, event.User.Discriminator, len(event.Guilds))
	log.Info("Invite link: " + fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%d",
		event.User.ID,
		botPermissions,
	))

	status := helpers.ConfigString("bot.status", "")
	if status == "" {
		status = models.DefaultPrefix + "help"
	}
	if err := session.UpdateStatus(0, status); err != nil {
		log.Warnf("updating status: %s", err.Error())
	}
}

// BotOnGuildCreate logs joined guilds
func BotOnGuildCreate(session *discordgo.Session, guild *discordgo.GuildCreate) {
	cache.GetLogger().WithField("module", "bot").Debugf("available guild: %s (#%s)", guild.Name, guild.ID)
}

// BotOnGuildDelete logs left guilds
func BotOnGuildDelete(session *discordgo.Session, guild *discordgo.GuildDelete) {
	cache.GetLogger().WithField("module", "bot").Infof("left guild #%s", guild.ID)
}

// permissions the bot asks for in the invite link
const botPermissions = discordgo.PermissionReadMessages |
	discordgo.PermissionSendMessages |
	discordgo.PermissionEmbedLinks |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionManageMessages

// routeDiscordgoLogs forwards the internal logger of discordgo into logrus
func routeDiscordgoLogs() {
	log := cache.GetLogger().WithField("module", "discordgo")

	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		switch msgL {
		case discordgo.LogError:
			log.Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			log.Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			log.Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			log.Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}
}
