package models

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

const (
	GuildSettingsTable  = "settings"
	BansTable           = "bans"
	RemindSettingsTable = "remindSettings"
)

const (
	DefaultPrefix = "ap!"
	DefaultLocale = "en"
	DefaultOffset = 8
	DefaultLength = 1000

	MaxOffset       = 12
	MaxLength       = 1000
	MaxPrefixLength = 10
)

var (
	ErrInvalidOffset = errors.New("offset must be a multiple of 0.25 between -12 and 12")
	ErrInvalidLength = errors.New("length must be between 0 and 1000")
	ErrInvalidPrefix = errors.New("prefix must be 1 to 10 characters without spaces")
	ErrInvalidLocale = errors.New("unknown locale")
)

// GuildSettings is stored at /settings/{guildId}
type GuildSettings struct {
	Locale         string  `json:"locale"`
	ShowReacted    bool    `json:"showReacted"`
	ShowAbsent     bool    `json:"showAbsent"`
	ShowLocked     bool    `json:"showLocked"`
	ShowIrrelevant bool    `json:"showIrrelevant"`
	ShowLeaved     bool    `json:"showLeaved"`
	Offset         float64 `json:"offset"`
	Length         int     `json:"length"`
	Prefix         string  `json:"prefix"`
}

func (c GuildSettings) Default() GuildSettings {
	return GuildSettings{
		Locale:         DefaultLocale,
		ShowReacted:    false,
		ShowAbsent:     true,
		ShowLocked:     true,
		ShowIrrelevant: true,
		ShowLeaved:     true,
		Offset:         DefaultOffset,
		Length:         DefaultLength,
		Prefix:         DefaultPrefix,
	}
}

// Shows reports whether the name list of $kind is displayed
func (c GuildSettings) Shows(kind StatusKind) bool {
	switch kind {
	case StatusReacted:
		return c.ShowReacted
	case StatusAbsent:
		return c.ShowAbsent
	case StatusLocked:
		return c.ShowLocked
	case StatusIrrelevant:
		return c.ShowIrrelevant
	case StatusLeaved:
		return c.ShowLeaved
	}
	return false
}

// SetShows toggles the name list of $kind
func (c *GuildSettings) SetShows(kind StatusKind, show bool) {
	switch kind {
	case StatusReacted:
		c.ShowReacted = show
	case StatusAbsent:
		c.ShowAbsent = show
	case StatusLocked:
		c.ShowLocked = show
	case StatusIrrelevant:
		c.ShowIrrelevant = show
	case StatusLeaved:
		c.ShowLeaved = show
	}
}

func ValidateOffset(offset float64) error {
	if offset < -MaxOffset || offset > MaxOffset {
		return ErrInvalidOffset
	}
	if quarters := offset * 4; quarters != math.Trunc(quarters) {
		return ErrInvalidOffset
	}
	return nil
}

func ValidateLength(length int) error {
	if length < 0 || length > MaxLength {
		return ErrInvalidLength
	}
	return nil
}

func ValidatePrefix(prefix string) error {
	if len(prefix) == 0 || len(prefix) > MaxPrefixLength {
		return ErrInvalidPrefix
	}
	for _, r := range prefix {
		if r == ' ' || r == '\t' || r == '\n' {
			return ErrInvalidPrefix
		}
	}
	return nil
}

// Validate checks every field that can be edited from outside
func (c GuildSettings) Validate() error {
	if _, err := NormalizeLocale(c.Locale); err != nil {
		return err
	}
	if err := ValidateOffset(c.Offset); err != nil {
		return err
	}
	if err := ValidateLength(c.Length); err != nil {
		return err
	}
	return ValidatePrefix(c.Prefix)
}

// NormalizeLocale validates $locale and returns its canonical BCP 47 form
func NormalizeLocale(locale string) (string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return "", errors.Wrap(ErrInvalidLocale, locale)
	}
	return tag.String(), nil
}

// Ban blacklists a user or a guild, stored at /bans/{id}
type Ban struct {
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"createdAt"`
}

// RemindSettings is stored at /remindSettings/{guildId}
type RemindSettings struct {
	// Mention renders absent members as mentions so they get pinged
	Mention bool `json:"mention"`
}
