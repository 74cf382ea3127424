package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// EmojiMaxBytes bounds a reaction token
var EmojiMaxBytes = 16

// Register adds the chat binding rules:
//
//	notblank  string must contain a non-space character
//	emoji     1..EmojiMaxBytes bytes of emoji code points (see IsEmoji)
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		return err
	}
	return v.RegisterValidation("emoji", emoji)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func emoji(fl validator.FieldLevel) bool {
	return IsEmoji(fl.Field().String())
}

// pictographic approximates the Extended_Pictographic code points
var pictographic = [][2]rune{
	{0x00A9, 0x00A9}, {0x00AE, 0x00AE},
	{0x203C, 0x203C}, {0x2049, 0x2049}, {0x2122, 0x2122}, {0x2139, 0x2139},
	{0x2194, 0x21AA}, {0x231A, 0x23FF}, {0x24C2, 0x24C2}, {0x25AA, 0x25FE},
	{0x2600, 0x27BF}, {0x2934, 0x2935}, {0x2B05, 0x2B55},
	{0x3030, 0x3030}, {0x303D, 0x303D}, {0x3297, 0x3297}, {0x3299, 0x3299},
	{0x1F000, 0x1FAFF},
}

const (
	zeroWidthJoiner = 0x200D
	keycap          = 0x20E3
)

func isPictographic(r rune) bool {
	for _, rg := range pictographic {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// joins variation selectors, ZWJ, keycap marks and tag characters
func isEmojiComponent(r rune) bool {
	return r == zeroWidthJoiner || r == keycap ||
		(r >= 0xFE00 && r <= 0xFE0F) ||
		(r >= 0xE0020 && r <= 0xE007F)
}

func isKeycapBase(r rune) bool {
	return (r >= '0' && r <= '9') || r == '#' || r == '*'
}

// IsEmoji reports whether s, after trimming, is a single reaction token: emoji
// code points joined by modifiers, or a keycap sequence such as 1️⃣.
func IsEmoji(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > EmojiMaxBytes || !utf8.ValidString(s) {
		return false
	}

	hasKeycap := strings.ContainsRune(s, keycap)
	base := false
	for _, r := range s {
		switch {
		case isPictographic(r):
			base = true
		case hasKeycap && isKeycapBase(r):
			base = true
		case isEmojiComponent(r):
		default:
			return false
		}
	}
	return base
}
