package msg

import "github.com/santelmotechnologies/sirena/domain/track"

// Parameter names used by the message catalogue. Key order is irrelevant;
// a message's params may be empty.
const (
	KeyURI         = "uri"
	KeyForced      = "forced"
	KeySeconds     = "seconds"
	KeyTrack       = "track"
	KeyTracks      = "tracks"
	KeyPlayNow     = "playNow"
	KeyIndex       = "idx"
	KeyRepeat      = "repeat"
	KeyHasPrevious = "hasPrevious"
	KeyHasNext     = "hasNext"
	KeyPlaytime    = "playtime"
	KeyThumbnail   = "pathThumbnail"
	KeyFullSize    = "pathFullSize"
	KeyQuery       = "query"
	KeyPaths       = "paths"
)

// Params is the parameter bag attached to a posted message. Values are
// owned by the receiver; modules must not share mutable state through them
// beyond the documented payload types.
type Params map[string]any

// String returns the string stored under key, or "" if absent.
func (p Params) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Int returns the int stored under key, or 0 if absent.
func (p Params) Int(key string) int {
	v, _ := p[key].(int)
	return v
}

// Bool returns the bool stored under key, or false if absent.
func (p Params) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// Track returns the track stored under key, or nil if absent.
func (p Params) Track(key string) *track.Track {
	v, _ := p[key].(*track.Track)
	return v
}

// Tracks returns the track slice stored under key, or nil if absent.
func (p Params) Tracks(key string) []*track.Track {
	v, _ := p[key].([]*track.Track)
	return v
}

// Strings returns the string slice stored under key, or nil if absent.
func (p Params) Strings(key string) []string {
	v, _ := p[key].([]string)
	return v
}
