package helpers

import (
	_ "embed"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/Jeffail/gabs"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

//go:embed assets/i18n.json
var translationsFile []byte

// FallbackLocale is used for ids a locale does not translate
const FallbackLocale = "en"

var (
	translations   *gabs.Container
	locales        []string
	localeMatcher  language.Matcher
	translationsMu sync.RWMutex
)

// LoadTranslations parses the embedded catalog, the top level keys are locales
func LoadTranslations() error {
	return loadTranslations(translationsFile)
}

func loadTranslations(data []byte) error {
	json, err := gabs.ParseJSON(data)
	if err != nil {
		return errors.Wrap(err, "parsing translations")
	}

	children, err := json.ChildrenMap()
	if err != nil {
		return errors.Wrap(err, "translations must be an object of locales")
	}

	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	// the first tag is what the matcher falls back to
	for i, name := range names {
		if name == FallbackLocale {
			names[0], names[i] = names[i], names[0]
		}
	}

	tags := make([]language.Tag, len(names))
	for i, name := range names {
		tags[i] = language.Make(name)
	}

	translationsMu.Lock()
	translations = json
	locales = names
	localeMatcher = language.NewMatcher(tags)
	translationsMu.Unlock()
	return nil
}

// MatchLocale returns the best catalog locale for $locale
func MatchLocale(locale string) string {
	translationsMu.RLock()
	defer translationsMu.RUnlock()

	if localeMatcher == nil {
		return FallbackLocale
	}
	_, index, _ := localeMatcher.Match(language.Make(locale))
	return locales[index]
}

func lookup(locale, id string) (*gabs.Container, bool) {
	translationsMu.RLock()
	defer translationsMu.RUnlock()

	if translations == nil {
		return nil, false
	}
	path := locale + "." + id
	if !translations.ExistsP(path) {
		return nil, false
	}
	return translations.Path(path), true
}

// GetText returns the text $id in $locale, falling back to english and then to $id
func GetText(locale, id string) string {
	item, ok := lookup(MatchLocale(locale), id)
	if !ok {
		item, ok = lookup(FallbackLocale, id)
	}
	if !ok {
		return id
	}

	// If this is an object return __
	if _, isObject := item.Data().(map[string]interface{}); isObject {
		item = item.Path("__")
	}

	// If this is an array return a random item
	if arr, isArray := item.Data().([]interface{}); isArray && len(arr) > 0 {
		if text, isText := arr[rand.Intn(len(arr))].(string); isText {
			return text
		}
	}

	if text, isText := item.Data().(string); isText {
		return text
	}
	return id
}

func GetTextF(locale, id string, replacements ...interface{}) string {
	return fmt.Sprintf(GetText(locale, id), replacements...)
}
