package helpers

import (
	"testing"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseTime(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected time.Time
	}{
		{"+1d2h", testNow.Add(26 * time.Hour)},
		{"+30m", testNow.Add(30 * time.Minute)},
		{"2021/03/02-09:00", time.Date(2021, 3, 2, 1, 0, 0, 0, time.UTC)},
		{"03/05-08:00", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)},
		// 20:00 local, later today
		{"21:30", time.Date(2021, 3, 1, 13, 30, 0, 0, time.UTC)},
		// already passed today, so tomorrow
		{"19:00", time.Date(2021, 3, 2, 11, 0, 0, 0, time.UTC)},
	} {
		result, err := ParseTime(test.input, testNow, 8)
		require.NoError(t, err, test.input)
		assert.True(t, test.expected.Equal(result), "%s: expected %s, got %s", test.input, test.expected, result)
	}
}

func TestParseTimeRollsMonthDayIntoNextYear(t *testing.T) {
	result, err := ParseTime("02/01-08:00", testNow, 0)
	require.NoError(t, err)
	assert.Equal(t, 2022, result.Year())
}

func TestParseTimeNaturalLanguage(t *testing.T) {
	result, err := ParseTime("tomorrow 9pm", testNow, 0)
	require.NoError(t, err)
	assert.True(t, result.After(testNow))
	assert.Equal(t, 2, result.Day())
}

func TestParseTimeErrors(t *testing.T) {
	_, err := ParseTime("2020/01/01-00:00", testNow, 8)
	assert.Equal(t, ErrTimeInPast, errors.Cause(err))

	for _, input := range []string{"", "soonish maybe", "+banana"} {
		_, err = ParseTime(input, testNow, 8)
		assert.Equal(t, ErrInvalidTime, errors.Cause(err), input)
	}
}

func TestGuildLocation(t *testing.T) {
	_, offset := testNow.In(GuildLocation(5.75)).Zone()
	assert.Equal(t, 5*3600+45*60, offset)

	absolute, _ := FormatTime(testNow, -3.5)
	assert.Equal(t, "2021/03/01 08:30", absolute)
}

func TestParseMessageReference(t *testing.T) {
	for _, link := range []string{
		"https://discord.com/channels/111111111111111111/222222222222222222/333333333333333333",
		"https://discordapp.com/channels/111111111111111111/222222222222222222/333333333333333333",
		"https://ptb.discord.com/channels/111111111111111111/222222222222222222/333333333333333333",
		"<https://canary.discord.com/channels/111111111111111111/222222222222222222/333333333333333333>",
	} {
		reference, err := ParseMessageReference(link, "c1")
		require.NoError(t, err, link)
		assert.Equal(t, MessageReference{
			GuildID:   "111111111111111111",
			ChannelID: "222222222222222222",
			MessageID: "333333333333333333",
		}, reference)
	}

	reference, err := ParseMessageReference("333333333333333333", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", reference.ChannelID)
	assert.Empty(t, reference.GuildID)

	for _, input := range []string{"", "hello", "https://example.com/channels/1/2/3", "123"} {
		_, err = ParseMessageReference(input, "c1")
		assert.Equal(t, ErrInvalidMessageReference, errors.Cause(err), input)
	}

	assert.Equal(t, "https://discord.com/channels/g/c/m", MessageLink("g", "c", "m"))
}

func TestGetText(t *testing.T) {
	require.NoError(t, LoadTranslations())

	assert.Equal(t, "Reacted", GetText("en", "status.reacted"))
	assert.Equal(t, "Reacted", GetText("zh-TW", "status.reacted"))
	assert.Equal(t, "en", MatchLocale("fr"))
	assert.Equal(t, "missing.key", GetText("en", "missing.key"))
	assert.Contains(t, GetText("en", "help"), "Attention Please")
	assert.Contains(t, GetText("en", "errors.generic"), "reported")
	assert.Contains(t, GetTextF("en", "schedule.cancelled", "check_1"), "Job `check_1` was cancelled.")
}

func TestGetTextWithSeveralLocales(t *testing.T) {
	defer func() { require.NoError(t, LoadTranslations()) }()

	err := loadTranslations([]byte(`{"en": {"hello": "hello"}, "zh-TW": {"hello": "你好"}}`))
	require.NoError(t, err)

	assert.Equal(t, "你好", GetText("zh-TW", "hello"))
	assert.Equal(t, "hello", GetText("de", "hello"))

	assert.Error(t, loadTranslations([]byte(`[]`)))
}

func TestConfigAccessors(t *testing.T) {
	defer SetConfig(nil)

	container, err := gabs.ParseJSON([]byte(`{
		"debug": true,
		"redis": {"address": "localhost:6379", "db": 2},
		"gate": {"cooldown": "3s"},
		"settings": {"ttl": "soon"}
	}`))
	require.NoError(t, err)
	SetConfig(container)

	assert.True(t, ConfigBool("debug", false))
	assert.False(t, ConfigBool("missing", false))
	assert.Equal(t, "localhost:6379", ConfigString("redis.address", ""))
	assert.Equal(t, "fallback", ConfigString("redis.password", "fallback"))
	assert.Equal(t, 2, ConfigInt("redis.db", 0))
	assert.Equal(t, 7, ConfigInt("missing.number", 7))
	assert.Equal(t, 3*time.Second, ConfigDuration("gate.cooldown", time.Second))
	assert.Equal(t, time.Minute, ConfigDuration("settings.ttl", time.Minute))
}

func TestCanManageGuild(t *testing.T) {
	assert.True(t, CanManageGuild(0x8))
	assert.True(t, CanManageGuild(0x20))
	assert.False(t, CanManageGuild(0x400))
}

func TestClientID(t *testing.T) {
	calls := 0
	self := func() (*discordgo.User, error) {
		calls++
		return &discordgo.User{ID: "900000000000000001"}, nil
	}

	clientID, err := ClientID("worker-1", self)
	require.NoError(t, err)
	assert.Equal(t, "worker-1", clientID)
	assert.Zero(t, calls)

	// the same bot user on every start
	first, err := ClientID("", self)
	require.NoError(t, err)
	second, err := ClientID("", self)
	require.NoError(t, err)
	assert.Equal(t, "900000000000000001", first)
	assert.Equal(t, first, second)

	_, err = ClientID("", func() (*discordgo.User, error) { return nil, errors.New("401 Unauthorized") })
	assert.Error(t, err)

	_, err = ClientID("", func() (*discordgo.User, error) { return &discordgo.User{}, nil })
	assert.Error(t, err)
}
