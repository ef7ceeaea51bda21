package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileNamePart makes a metadata value safe to embed in a filename.
// Path separators and colons become dashes, other characters that are illegal
// in filenames are removed, control characters are dropped, and runs of
// whitespace collapse to a single space. The value is NFC-normalized so
// composed and decomposed umlauts produce the same filename.
func SanitizeFileNamePart(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = fileNameReplacer.Replace(value)
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate caps a string at max runes without splitting a rune.
func Truncate(value string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return strings.TrimSpace(string(runes[:max]))
}
