// Package artifact builds the artifact service URLs for one game.
package artifact

import (
	"fmt"
	"strings"
)

// Endpoints are the artifact service base URLs.
type Endpoints struct {
	Fishery string
	Gallery string
	Blob    string
}

// URLs is the immutable set of URLs for one game. Build it with New.
type URLs struct {
	code    string
	gameID  string
	format  string
	data    string
	gallery string
	blob    string
	gen     string
}

// New computes every URL for a game up front. format is the generated asset
// extension ("gif" or "png"); it may be empty for games drawn locally.
func New(ep Endpoints, code, gameID, format string) URLs {
	fishery := strings.TrimRight(ep.Fishery, "/")
	return URLs{
		code:    code,
		gameID:  gameID,
		format:  format,
		data:    fmt.Sprintf("%s/%s/%s", fishery, code, gameID),
		gallery: fmt.Sprintf("%s/%s/%s", strings.TrimRight(ep.Gallery, "/"), code, gameID),
		blob:    fmt.Sprintf("%s/%s/%s", strings.TrimRight(ep.Blob, "/"), code, gameID),
		gen:     fmt.Sprintf("%s/%s/%s/%s", fishery, format, code, gameID),
	}
}

func (u URLs) Code() string   { return u.code }
func (u URLs) GameID() string { return u.gameID }
func (u URLs) Format() string { return u.format }

// Data is the result payload URL.
func (u URLs) Data() string { return u.data }

// Gallery is the public gallery page for the game.
func (u URLs) Gallery() string { return u.gallery }

// Asset is the direct download URL of a named asset.
func (u URLs) Asset(name string) string { return u.blob + "/" + name }

// Generate is the URL that asks the service to render asset index.
func (u URLs) Generate(index string) string { return u.gen + "/" + index }
