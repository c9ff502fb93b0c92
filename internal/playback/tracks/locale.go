package tracks

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
)

// SameLanguage compares two language codes by base language, so "en", "eng" and "en-US" all match.
func SameLanguage(a, b string) bool {
	a = strings.ReplaceAll(strings.TrimSpace(a), "_", "-")
	b = strings.ReplaceAll(strings.TrimSpace(b), "_", "-")
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	ta, err := language.Parse(a)
	if err != nil {
		return false
	}
	tb, err := language.Parse(b)
	if err != nil {
		return false
	}
	if ta == language.Und || tb == language.Und {
		return false
	}
	ba, _ := ta.Base()
	bb, _ := tb.Base()
	return ba == bb
}

// groupForLanguage matches the first variant of each group.
func groupForLanguage(groups []Group, code string) int {
	_, idx, ok := lo.FindIndexOf(groups, func(g Group) bool {
		return len(g.Variants) > 0 && SameLanguage(g.Variants[0].Language, code)
	})
	if !ok {
		return unset
	}
	return idx
}

// groupForDefaultLocale prefers the locale's group, else the first one.
func groupForDefaultLocale(groups []Group, locale string) int {
	if len(groups) == 0 {
		return unset
	}
	if idx := groupForLanguage(groups, locale); idx != unset {
		return idx
	}
	if len(groups[0].Variants) == 0 {
		return unset
	}
	return 0
}
