package games

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGameInput(t *testing.T) {
	tests := []struct {
		input string
		want  GameInput
	}{
		{"fa52a821368421e960dff1b6fa1dcf07", GameInput{ID: "fa52a821368421e960dff1b6fa1dcf07"}},
		{"  fa52a821/  ", GameInput{ID: "fa52a821"}},
		{
			"http://games.jackbox.tv/artifact/Quiplash2Game/fa52a821368421e960dff1b6fa1dcf07/",
			GameInput{ID: "fa52a821368421e960dff1b6fa1dcf07", Type: "Quiplash2"},
		},
		{
			"games.jackbox.tv/artifact/DrawfulGame/195dd2b39eab8af9bb08c1a090723ef9",
			GameInput{ID: "195dd2b39eab8af9bb08c1a090723ef9", Type: "Drawful"},
		},
		{
			"http://games.jackbox.tv/artifact/RangeGameGame/abc",
			GameInput{ID: "abc", Type: "Range"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGameInput(tt.input))
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		underscore bool
		want       string
	}{
		{"tags and quotes", `<b>It's</b> "fine", ok;`, true, "Its_fine_ok"},
		{"keeps spaces", "Big day out", false, "Big day out"},
		{"folds letters", "ÑÏÆ party", true, "NIAE_party"},
		{"drops underscores first", "snake_case name", true, "snakecase_name"},
		{"smart quotes", "“Hi” ’there’", false, "Hi there"},
		{"trims", "  padded  ", false, "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanString(tt.input, tt.underscore))
		})
	}
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "What_is_1-2-", fileStem("What is 1/2?"))
	assert.Equal(t, "asset", fileStem("<i></i>"))
	assert.Len(t, []rune(fileStem(strings.Repeat("ü", 200))), maxFileStem)
}
