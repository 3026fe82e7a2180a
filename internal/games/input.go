package games

import (
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// GameInput is a game reference given on the command line.
type GameInput struct {
	ID   string // game id, the last path segment
	Type string // game type from a gallery URL, "Game" suffix removed; "" for a bare id
}

// ParseGameInput accepts a bare game id or a gallery URL such as
// http://games.jackbox.tv/artifact/Quiplash2Game/<id>/.
func ParseGameInput(s string) GameInput {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "/"), "/")
	in := GameInput{ID: parts[len(parts)-1]}
	if len(parts) > 1 {
		in.Type = strings.ReplaceAll(parts[len(parts)-2], "Game", "")
	}
	return in
}

var (
	strippedChars = []string{"'", `"`, ",", "’", "“", "”", ";", "_"}
	foldedChars   = strings.NewReplacer("Ñ", "N", "Ï", "I", "Æ", "AE")
)

// CleanString strips markup and punctuation from player text. With
// underscore set, spaces become underscores.
func CleanString(s string, underscore bool) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	for _, c := range strippedChars {
		s = strings.TrimSpace(strings.ReplaceAll(s, c, ""))
	}
	s = foldedChars.Replace(s)
	if underscore {
		s = strings.ReplaceAll(s, " ", "_")
	}
	return s
}
