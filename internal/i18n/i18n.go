// Package i18n negotiates the response language between Simplified Chinese
// and English.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var (
	supported = []language.Tag{language.SimplifiedChinese, language.English}
	matcher   = language.NewMatcher(supported)
)

// Default returns the default language tag.
func Default() language.Tag {
	return supported[0]
}

// Match returns the best supported tag for the given preferences.
func Match(prefs ...language.Tag) language.Tag {
	if len(prefs) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// Parse resolves a single language value such as "en-US" or "zh".
func Parse(value string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return Default()
	}
	return Match(tag)
}

// ResolveTag determines the best language tag for the request: the lang query
// parameter first, then Accept-Language, then fallback.
func ResolveTag(r *http.Request, fallback language.Tag) language.Tag {
	if r == nil {
		return fallback
	}

	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return Match(tag)
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return Match(tags...)
		}
	}

	return fallback
}

// Base returns the two-letter base language of tag ("zh" or "en").
func Base(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
