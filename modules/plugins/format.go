package plugins

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/modules"
	"github.com/Elantris/attention-please-sub000/raffle"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

func mention(userID string) string {
	return "<@" + userID + ">"
}

// statusLists renders one line per shown, non empty status
func statusLists(settings models.GuildSettings, remind models.RemindSettings, status models.ReactionStatus, skip ...models.StatusKind) []string {
	locale := settings.Locale
	lines := make([]string, 0, len(models.StatusKinds))

NextKind:
	for _, kind := range models.StatusKinds {
		for _, skipped := range skip {
			if kind == skipped {
				continue NextKind
			}
		}
		if !settings.Shows(kind) {
			continue
		}

		ids := status.IDs(kind)
		if len(ids) == 0 {
			continue
		}

		names := make([]string, len(ids))
		for i, id := range ids {
			if kind == models.StatusAbsent && remind.Mention {
				names[i] = mention(id)
			} else {
				names[i] = status[id].DisplayName
			}
		}

		lines = append(lines, helpers.GetTextF(locale, "check.list",
			helpers.GetText(locale, "status."+string(kind)), len(ids), strings.Join(names, " ")))
	}
	return lines
}

// fit appends $lists to $head, or attaches them as a file once they are
// longer than the guild allows
func fit(settings models.GuildSettings, head []string, lists []string, fileName string) modules.Success {
	body := strings.Join(lists, "\n")
	if body == "" {
		return modules.Success{Content: strings.Join(head, "\n")}
	}

	if utf8.RuneCountInString(body) <= settings.Length {
		return modules.Success{Content: strings.Join(append(head, body), "\n")}
	}

	head = append(head, helpers.GetText(settings.Locale, "check.file-fallback"))
	return modules.Success{
		Content: strings.Join(head, "\n"),
		Files: []*discordgo.File{
			{
				Name:        fileName,
				ContentType: "text/plain",
				Reader:      strings.NewReader(body),
			},
		},
	}
}

func percentage(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

// checkResult renders the outcome of a check
func checkResult(settings models.GuildSettings, remind models.RemindSettings, link, messageID string, status models.ReactionStatus) modules.Success {
	locale := settings.Locale
	reacted := status.Count(models.StatusReacted)
	mentioned := reacted + status.Count(models.StatusAbsent) + status.Count(models.StatusLocked)

	head := []string{
		helpers.GetTextF(locale, "check.header", link),
		helpers.GetTextF(locale, "check.summary",
			humanize.Comma(int64(mentioned)), humanize.Comma(int64(reacted)), percentage(reacted, mentioned)),
	}

	return fit(settings, head, statusLists(settings, remind, status),
		helpers.GetTextF(locale, "check.file-name", messageID))
}

// raffleResult renders the outcome of a raffle, winners are always mentioned
func raffleResult(settings models.GuildSettings, remind models.RemindSettings, link, messageID string, status models.ReactionStatus, result raffle.Result) modules.Success {
	locale := settings.Locale

	winners := make([]string, len(result.Winners))
	for i, id := range result.Winners {
		winners[i] = mention(id)
	}

	head := []string{
		helpers.GetTextF(locale, "raffle.header", link),
		helpers.GetTextF(locale, "raffle.winners",
			len(result.Winners), len(result.Winners)+len(result.Losers), strings.Join(winners, " ")),
	}

	lists := statusLists(settings, remind, status, models.StatusReacted)
	if len(result.Losers) > 0 {
		losers := make([]string, len(result.Losers))
		for i, id := range result.Losers {
			losers[i] = status[id].DisplayName
		}
		lists = append([]string{helpers.GetTextF(locale, "raffle.losers", len(losers), strings.Join(losers, " "))}, lists...)
	}

	return fit(settings, head, lists, helpers.GetTextF(locale, "raffle.file-name", messageID))
}
