package plugins

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

var errInvalidSwitch = errors.New("expected on or off")

type Config struct {
	bot *Bot
}

func (m *Config) Commands() []string {
	return []string{
		"config",
	}
}

func (m *Config) Action(ctx context.Context, request modules.Request) modules.Result {
	settings := request.Settings
	locale := settings.Locale

	if len(request.Args) == 0 {
		return modules.Success{Embed: m.settingsEmbed(request.GuildID, settings)}
	}

	if !helpers.CanManageGuild(request.Permissions) {
		return modules.Failure{Content: helpers.GetText(locale, "errors.no-permission")}
	}

	key := strings.ToLower(request.Arg(0))
	value := request.Arg(1)
	if value == "" {
		return modules.SyntaxError{Content: helpers.GetText(locale, "config.keys")}
	}

	var err error
	switch key {
	case "locale":
		settings.Locale, err = models.NormalizeLocale(value)
		value = settings.Locale

	case "offset":
		var offset float64
		offset, err = strconv.ParseFloat(value, 64)
		if err == nil {
			err = models.ValidateOffset(offset)
		}
		settings.Offset = offset

	case "length":
		var length int
		length, err = strconv.Atoi(value)
		if err == nil {
			err = models.ValidateLength(length)
		}
		settings.Length = length

	case "prefix":
		err = models.ValidatePrefix(value)
		settings.Prefix = value

	case "mention":
		return m.setMention(ctx, request, value)

	case "show":
		kind, ok := models.ParseStatusKind(strings.ToLower(value))
		if !ok {
			return modules.SyntaxError{Content: helpers.GetText(locale, "config.keys")}
		}
		var show bool
		show, err = parseSwitch(request.Arg(2))
		settings.SetShows(kind, show)
		key = "show " + string(kind)
		value = request.Arg(2)

	default:
		return modules.SyntaxError{Content: helpers.GetText(locale, "config.keys")}
	}

	if err != nil {
		return modules.SyntaxError{Content: helpers.GetTextF(locale, "errors.invalid-config", errors.Cause(err).Error())}
	}

	if err = m.bot.Settings.Set(ctx, request.GuildID, settings); err != nil {
		return modules.Failure{Diagnostic: err}
	}
	// answer in the new locale
	return modules.Success{Content: helpers.GetTextF(settings.Locale, "config.updated", key, value)}
}

func (m *Config) setMention(ctx context.Context, request modules.Request, value string) modules.Result {
	locale := request.Settings.Locale

	mention, err := parseSwitch(value)
	if err != nil {
		return modules.SyntaxError{Content: helpers.GetTextF(locale, "errors.invalid-config", err.Error())}
	}

	remind := models.RemindSettings{Mention: mention}
	err = m.bot.Store.Set(ctx, store.Path(models.RemindSettingsTable, request.GuildID), remind)
	if err != nil {
		return modules.Failure{Diagnostic: err}
	}
	m.bot.Mirror.ApplyValue(models.RemindSettingsTable, request.GuildID, remind)

	return modules.Success{Content: helpers.GetTextF(locale, "config.updated", "mention", switchText(locale, mention))}
}

func (m *Config) settingsEmbed(guildID string, settings models.GuildSettings) *discordgo.MessageEmbed {
	locale := settings.Locale
	remind := m.bot.Mirror.RemindSettings(guildID)

	shown := make([]string, 0, len(models.StatusKinds))
	for _, kind := range models.StatusKinds {
		if settings.Shows(kind) {
			shown = append(shown, helpers.GetText(locale, "status."+string(kind)))
		}
	}
	if len(shown) == 0 {
		shown = append(shown, "-")
	}

	field := func(name, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{
			Name:   helpers.GetText(locale, "config.fields."+name),
			Value:  value,
			Inline: true,
		}
	}

	return &discordgo.MessageEmbed{
		Title: helpers.GetText(locale, "config.show"),
		Fields: []*discordgo.MessageEmbedField{
			field("locale", settings.Locale),
			field("offset", fmt.Sprintf("UTC%+g", settings.Offset)),
			field("length", strconv.Itoa(settings.Length)),
			field("prefix", "`"+settings.Prefix+"`"),
			field("mention", switchText(locale, remind.Mention)),
			field("show", strings.Join(shown, ", ")),
		},
	}
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, errInvalidSwitch
}

func switchText(locale string, on bool) string {
	if on {
		return helpers.GetText(locale, "config.on")
	}
	return helpers.GetText(locale, "config.off")
}
