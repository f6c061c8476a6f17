package orchestrator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// buildSynthesisPrompt assembles the text sent to a synthesis backend: the
// tenant's prompt, a title-cased subject line when the job is tied to a named
// dish, and a language hint derived from the submitter's locale so on-image
// text comes out in the right language.
func buildSynthesisPrompt(prompt, subject, locale string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	if subject = strings.TrimSpace(subject); subject != "" {
		title := cases.Title(language.Und).String(subject)
		fmt.Fprintf(&b, "\nFeatured dish: %s.", title)
	}
	if hint := languageHint(locale); hint != "" {
		fmt.Fprintf(&b, "\nAny visible text or captions must be in %s.", hint)
	}
	return b.String()
}

func languageHint(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil || tag == language.Und {
		return ""
	}
	name := display.English.Languages().Name(tag)
	if name == "" || strings.EqualFold(name, "unknown language") {
		return ""
	}
	return name
}
