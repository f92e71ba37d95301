package plugins

import (
	"context"
	"strings"

	"github.com/Elantris/attention-please-sub000/helpers"
	"github.com/Elantris/attention-please-sub000/modules"
)

type Help struct{}

func (h *Help) Commands() []string {
	return []string{
		"help",
	}
}

func (h *Help) Action(ctx context.Context, request modules.Request) modules.Result {
	locale := request.Settings.Locale
	prefix := request.Settings.Prefix

	lines := []string{
		helpers.GetText(locale, "help"),
		helpers.GetTextF(locale, "help.check", prefix),
		helpers.GetTextF(locale, "help.raffle", prefix),
		helpers.GetTextF(locale, "help.list", prefix),
		helpers.GetTextF(locale, "help.cancel", prefix),
		helpers.GetTextF(locale, "help.config", prefix),
		helpers.GetText(locale, "help.time"),
		helpers.GetText(locale, "help.repeat"),
	}
	return modules.Success{Content: strings.Join(lines, "\n")}
}
