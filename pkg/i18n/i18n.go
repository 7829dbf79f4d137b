// Package i18n holds the interface strings for the languages FarmBuddy
// supports and resolves user supplied language tags to one of them.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnsupportedLanguage is returned by Parse for tags that do not match a
// supported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Lang is a supported interface language, identified by its ISO 639-1 code.
type Lang string

const (
	English Lang = "en"
	Hausa   Lang = "ha"
	Igbo    Lang = "ig"
	Yoruba  Lang = "yo"
)

// Default is used when no language has been chosen.
const Default = English

var (
	supported = []Lang{English, Hausa, Igbo, Yoruba}
	tags      = []language.Tag{
		language.MustParse(string(English)),
		language.MustParse(string(Hausa)),
		language.MustParse(string(Igbo)),
		language.MustParse(string(Yoruba)),
	}
	matcher = language.NewMatcher(tags)
)

// Languages returns the supported languages in display order.
func Languages() []Lang {
	out := make([]Lang, len(supported))
	copy(out, supported)
	return out
}

// Parse resolves a BCP 47 tag such as "yo-NG" or "en_US" to a supported
// language.
func Parse(code string) (Lang, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty tag", ErrUnsupportedLanguage)
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	return supported[idx], nil
}

// Tag returns the BCP 47 tag for l.
func (l Lang) Tag() language.Tag {
	return language.Make(string(l))
}

// DisplayName returns the language's name in the language itself, falling
// back to the code.
func (l Lang) DisplayName() string {
	if name := display.Self.Name(l.Tag()); name != "" {
		return name
	}
	return string(l)
}

func (l Lang) String() string {
	return string(l)
}
