package processor

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// SectionName derives a display name from the last path segment of a
// section URL: ".../health-and-wellbeing" becomes "Health And Wellbeing".
func SectionName(sectionURL string) string {
	p := sectionURL
	if u, err := url.Parse(sectionURL); err == nil {
		p = u.Path
	}
	last := path.Base(strings.TrimRight(p, "/"))
	if last == "." || last == "/" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(last, "-", " "))
}

// shorten cuts s to at most n runes.
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
