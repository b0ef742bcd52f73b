// Package i18n localizes pwnlate's own console messages.
//
// It wraps the gotext library behind T() and N(). Translations are embedded
// into the binary via go:embed and selected from the environment at startup.
// Most of the tool's users are Russian-speaking SA-MP modders, so the tool
// ships with a Russian locale; everything else falls through to the English
// msgids.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs:
// locales/{lang}/LC_MESSAGES/pwnlate.po
//
//go:embed all:locales
var locales embed.FS

const domain = "pwnlate"

var locale *gotext.Locale

// Init selects the UI language. An empty lang auto-detects from LANGUAGE,
// LC_ALL, LC_MESSAGES, and LANG, in GNU gettext priority order. Call once
// at startup before any T or N.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	locale = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	locale.AddDomain(domain)
	locale.SetDomain(domain)
}

// T translates a message, returning the msgid unchanged when no translation
// exists.
func T(msgid string) string {
	if locale == nil {
		return msgid
	}
	return locale.Get(msgid)
}

// N translates a message with plural forms; n picks the form.
func N(singular, plural string, n int) string {
	if locale == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return locale.GetN(singular, plural, n)
}

// detectLanguage reads the gettext environment variables.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first entry.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip the encoding suffix: "ru_RU.UTF-8" -> "ru_RU".
		val, _, _ = strings.Cut(val, ".")
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
