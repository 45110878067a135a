package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var reDescriptionLabel = regexp.MustCompile(`(?i)^\s*description\s*:\s*`)

// Normalize collapses every run of whitespace into a single space and trims
// the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold applies NFKC compatibility folding, turning full-width digits, signs and
// ideographic spaces into their plain forms.
func Fold(s string) string {
	return norm.NFKC.String(s)
}

// StripLabelPrefix removes a leading "<label>:" from value for the first label
// that matches, case-insensitively. When none match, a leading "Description:"
// is stripped instead. The result is always normalized.
func StripLabelPrefix(value string, labels []string) string {
	if value == "" {
		return value
	}
	s := Normalize(value)
	for _, label := range labels {
		if label == "" {
			continue
		}
		clean := strings.TrimRight(Normalize(label), ":")
		if clean == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)^(?:` + regexp.QuoteMeta(clean) + `)\s*:\s*`)
		if err != nil {
			continue
		}
		if loc := re.FindStringIndex(s); loc != nil {
			return strings.TrimSpace(s[loc[1]:])
		}
	}
	return strings.TrimSpace(reDescriptionLabel.ReplaceAllString(s, ""))
}
