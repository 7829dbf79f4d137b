package speech

import (
	"regexp"
	"strings"
)

var (
	fencePattern   = regexp.MustCompile("(?s)```.*?```")
	imagePattern   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingPattern = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	bulletPattern  = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
	quotePattern   = regexp.MustCompile(`(?m)^\s*>\s?`)
	emphPattern    = regexp.MustCompile(`(\*\*|__|\*|_|~~|` + "`" + `)`)
	spacePattern   = regexp.MustCompile(`[ \t]+`)
	blankPattern   = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips markdown markup so a reply reads naturally when spoken.
func PlainText(markdown string) string {
	s := fencePattern.ReplaceAllString(markdown, "")
	s = imagePattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = headingPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "")
	s = quotePattern.ReplaceAllString(s, "")
	s = emphPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	s = blankPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
