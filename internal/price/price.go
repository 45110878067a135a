// Package price pulls a decimal amount out of noisy currency text.
package price

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/gocatalog/internal/textnorm"
)

// rePrice matches an optional currency sign, digits with optional comma
// grouping and an optional one or two digit fraction.
var rePrice = regexp.MustCompile(`([€£$¥])?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// Extract returns the first amount found in text with grouping commas removed.
// The boolean is false when text holds no amount.
func Extract(text string) (string, bool) {
	m := rePrice.FindStringSubmatch(textnorm.Fold(text))
	if m == nil {
		return "", false
	}
	v := strings.ReplaceAll(m[2], ",", "")
	if v == "" {
		return "", false
	}
	return v, true
}
