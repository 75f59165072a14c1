package track

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported audio file extensions.
var formats = map[string]struct{}{
	".ac3": {}, ".ape": {}, ".flac": {}, ".m4a": {}, ".mp2": {}, ".mp3": {},
	".mp4": {}, ".mpc": {}, ".oga": {}, ".ogg": {}, ".wav": {}, ".wma": {},
	".wv": {},
}

// IsSupported reports whether the given file has a supported audio format.
func IsSupported(path string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Collect resolves a mixed list of files and directories to tracks.
// Directories are walked recursively; entries come back in sorted path
// order. Unsupported and unreadable entries are skipped silently.
func Collect(paths []string) []*Track {
	var tracks []*Track

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			if IsSupported(path) {
				tracks = append(tracks, New(path))
			}
			continue
		}

		filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && IsSupported(p) {
				tracks = append(tracks, New(p))
			}
			return nil
		})
	}

	return tracks
}
