// Package track defines the Track entity exchanged between modules.
// Tag extraction is done by an external collaborator; tracks built here
// carry at least a path and a display title derived from the filename.
package track

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Track represents a playable audio file and its known metadata.
type Track struct {
	// Path is the absolute filesystem path to the resource.
	Path string

	// Tag metadata. Empty/zero means unknown.
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Number      int
	Disc        int
	Year        int

	// Length is the duration in seconds, 0 if unknown.
	Length int
}

// New returns a track for the given file. The title defaults to the
// filename without its extension until a tag reader fills it in.
func New(path string) *Track {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return &Track{Path: path, Title: title}
}

// URI returns the complete file URI to the resource.
func (t *Track) URI() string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(t.Path)}).String()
}

// Basename returns the filename only, not the full path.
func (t *Track) Basename() string {
	return filepath.Base(t.Path)
}

// Dir returns the directory containing the resource.
func (t *Track) Dir() string {
	return filepath.Dir(t.Path)
}

// WindowTitle returns an "Artist - Title" representation suitable for a
// window title or a notification.
func (t *Track) WindowTitle() string {
	if t.Title == "" {
		return t.Basename()
	}
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

func (t *Track) String() string {
	return fmt.Sprintf("<Track %s>", t.WindowTitle())
}

// Playtime returns the summed duration in seconds of the given tracks.
func Playtime(tracks []*Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Length
	}
	return total
}
