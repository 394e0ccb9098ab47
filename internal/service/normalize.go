package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aurelia-labs/docq/internal/domain"
)

// NormalizeText prepares raw document text for chunking. Line endings are
// unified to \n, control characters other than newline and tab are stripped,
// runs of spaces and tabs collapse to a single space, and runs of three or
// more newlines collapse to a blank line so paragraph boundaries survive.
// The function is deterministic and idempotent: normalizing already
// normalized text returns it unchanged.
func NormalizeText(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", domain.ErrInvalidEncoding
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	text = b.String()

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text), nil
}
