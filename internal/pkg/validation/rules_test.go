package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmoji(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"👍", true},
		{" 🎉 ", true},
		{"👍🏽", true},
		{"❤️", true},
		{"1️⃣", true},
		{"#️⃣", true},
		{"🇹🇷", true},
		{"👩‍💻", true},
		{"", false},
		{"   ", false},
		{"ok", false},
		{"1", false},
		{"!!", false},
		{"?", false},
		{"é", false},
		{"\u200d", false},
		{"👍 👍", false},
		{"🎉🎉🎉🎉🎉", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsEmoji(tt.in), "IsEmoji(%q)", tt.in)
	}
}

func TestRegister(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type body struct {
		Content string `validate:"notblank"`
		Emoji   string `validate:"emoji"`
	}

	assert.NoError(t, v.Struct(body{Content: "hi", Emoji: "👍"}))

	err := v.Struct(body{Content: "  \t", Emoji: "x"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Equal(t, "notblank", verrs[0].Tag())
	assert.Equal(t, "emoji", verrs[1].Tag())
}
