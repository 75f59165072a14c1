package modules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var coversInfo = module.Info{
	Name:           "covers",
	Label:          "Covers",
	Desc:           "Show album covers",
	Deps:           []string{"tracklist"},
	DefaultEnabled: true,
	Configurable:   true,
	Threaded:       true,
}

const prefCoverNames = "user_cover_filenames"

// defaultCoverNames are tried in order; "*" accepts any image file.
var defaultCoverNames = []string{"folder", "cover", "art", "front", "*"}

// coverFormats are the image formats we can display.
var coverFormats = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
}

// Covers looks for user-provided cover files next to the playing track.
// Directory scans run on a worker, so slow disks never stall the UI; the
// result is posted as a set-cover command. Downloading covers is out of
// scope here.
type Covers struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	names []string
	// cache remembers the cover found (or "" for none) per directory.
	cache map[string]string
}

// NewCovers constructs the covers module.
func NewCovers(env *application.Env) (module.Module, error) {
	c := &Covers{
		env:   env,
		cache: make(map[string]string),
	}
	c.handlers = map[msg.ID]msg.Handler{
		msg.EvtAppStarted: func(msg.Params) { c.onLoaded() },
		msg.EvtModLoaded:  func(msg.Params) { c.onLoaded() },
		msg.EvtNewTrack:   func(p msg.Params) { c.onNewTrack(p.Track(msg.KeyTrack)) },
	}
	return c, nil
}

func (c *Covers) Info() module.Info                { return coversInfo }
func (c *Covers) Handlers() map[msg.ID]msg.Handler { return c.handlers }

func (c *Covers) onLoaded() {
	c.names = c.env.Prefs.GetStrings(coversInfo.Name, prefCoverNames, defaultCoverNames)
}

func (c *Covers) onNewTrack(trk *track.Track) {
	if trk == nil {
		return
	}
	dir := trk.Dir()
	cover, ok := c.cache[dir]
	if !ok {
		cover = c.findUserCover(dir)
		c.cache[dir] = cover
	}

	c.env.Bus.Post(msg.CmdSetCover, msg.Params{
		msg.KeyTrack:     trk,
		msg.KeyThumbnail: cover,
		msg.KeyFullSize:  cover,
	})
}

// findUserCover returns the path of the preferred cover file in dir, or
// "" when the directory has none.
func (c *Covers) findUserCover(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	// name (lowercased, no extension) -> path, for every image file
	candidates := make(map[string]string)
	var anyImage string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := coverFormats[ext]; !ok {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		path := filepath.Join(dir, entry.Name())
		if _, dup := candidates[name]; !dup {
			candidates[name] = path
		}
		if anyImage == "" {
			anyImage = path
		}
	}

	for _, name := range c.names {
		if name == "*" {
			if anyImage != "" {
				return anyImage
			}
			continue
		}
		if path, ok := candidates[name]; ok {
			return path
		}
	}
	return ""
}
