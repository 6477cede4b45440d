package record

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ValidateText checks that s is non-empty, valid UTF-8 text and returns
// its NFC-normalized form, so two byte-distinct but canonically equal
// keys never collide or diverge in the index.
func ValidateText(s string) (string, error) {
	if len(s) == 0 {
		return "", ErrInvalidText
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidText
	}
	return norm.NFC.String(s), nil
}

// ValidateValue checks that s is valid UTF-8 text, allowing the empty
// string, and returns its NFC-normalized form. Unlike ValidateText it
// does not reject the empty string.
func ValidateValue(s string) (string, error) {
	if len(s) == 0 {
		return "", nil
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidText
	}
	return norm.NFC.String(s), nil
}
