package modules

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
)

var searchInfo = module.Info{
	Name:      "search",
	Label:     "Search",
	Desc:      "Search the music folders by file path",
	Deps:      []string{"explorer"},
	Mandatory: true,
	Threaded:  true,
}

// searchBatch is how many results are appended per event, keeping the
// UI responsive while a large library streams in.
const searchBatch = 50

// Search walks the configured music folders and matches every word of
// the query against the lowercased file path. All handlers run serially
// on the module mailbox, so state needs no locking.
type Search struct {
	env      *application.Env
	handlers map[msg.ID]msg.Handler

	roots []string
}

func NewSearch(env *application.Env) (module.Module, error) {
	s := &Search{env: env}
	s.handlers = map[msg.ID]msg.Handler{
		msg.EvtAppStarted: func(msg.Params) {
			s.roots = env.Prefs.GetStrings(explorerInfo.Name, prefMusicPaths, nil)
		},
		msg.EvtMusicPathsChanged: func(p msg.Params) {
			s.roots = p.Strings(msg.KeyPaths)
		},
		msg.EvtSearchStart: func(p msg.Params) { s.run(p.String(msg.KeyQuery)) },
	}
	return s, nil
}

func (s *Search) Info() module.Info                { return searchInfo }
func (s *Search) Handlers() map[msg.ID]msg.Handler { return s.handlers }

func (s *Search) run(query string) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		s.env.Bus.Post(msg.EvtSearchReset, nil)
		return
	}

	batch := make([]*track.Track, 0, searchBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.env.Bus.Post(msg.EvtSearchAppend, msg.Params{msg.KeyTracks: batch})
		batch = make([]*track.Track, 0, searchBatch)
	}

	total := 0
	for _, root := range s.roots {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !track.IsSupported(path) {
				return nil
			}
			if !matchesAll(strings.ToLower(path), words) {
				return nil
			}
			batch = append(batch, track.New(path))
			total++
			if len(batch) == searchBatch {
				flush()
			}
			return nil
		})
	}
	flush()

	s.env.Logger.Info("Search finished", "query", query, "results", total)
	s.env.Bus.Post(msg.EvtSearchEnd, msg.Params{msg.KeyQuery: query})
}

func matchesAll(path string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(path, w) {
			return false
		}
	}
	return true
}
