package track

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDerivesTitleFromFilename(t *testing.T) {
	trk := New("/music/album/03 - Heart of Gold.ogg")

	if trk.Title != "03 - Heart of Gold" {
		t.Errorf("Title = %q", trk.Title)
	}
	if trk.Basename() != "03 - Heart of Gold.ogg" {
		t.Errorf("Basename() = %q", trk.Basename())
	}
	if trk.Dir() != "/music/album" {
		t.Errorf("Dir() = %q", trk.Dir())
	}
}

func TestURI(t *testing.T) {
	trk := New("/music/Neil Young/song.ogg")

	if got := trk.URI(); got != "file:///music/Neil%20Young/song.ogg" {
		t.Errorf("URI() = %q", got)
	}
}

func TestWindowTitle(t *testing.T) {
	tests := []struct {
		name string
		trk  *Track
		want string
	}{
		{"artist and title", &Track{Path: "/a.ogg", Title: "Song", Artist: "Band"}, "Band - Song"},
		{"title only", &Track{Path: "/a.ogg", Title: "Song"}, "Song"},
		{"no tags", &Track{Path: "/music/a.ogg"}, "a.ogg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trk.WindowTitle(); got != tt.want {
				t.Errorf("WindowTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaytime(t *testing.T) {
	tracks := []*Track{{Length: 120}, {Length: 0}, {Length: 185}}

	if got := Playtime(tracks); got != 305 {
		t.Errorf("Playtime() = %d, want 305", got)
	}
	if got := Playtime(nil); got != 0 {
		t.Errorf("Playtime(nil) = %d, want 0", got)
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/a.ogg", true},
		{"/music/a.FLAC", true},
		{"/music/a.mp3", true},
		{"/music/a.txt", false},
		{"/music/noext", false},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.path); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCollectWalksAndSorts(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "album")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		filepath.Join(sub, "02 second.ogg"),
		filepath.Join(sub, "01 first.ogg"),
		filepath.Join(root, "cover.jpg"),
	} {
		if err := os.WriteFile(name, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(root, "loose.flac")
	if err := os.WriteFile(single, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tracks := Collect([]string{sub, single})

	if len(tracks) != 3 {
		t.Fatalf("Collect() = %d tracks, want 3", len(tracks))
	}
	if tracks[0].Basename() != "01 first.ogg" || tracks[1].Basename() != "02 second.ogg" {
		t.Errorf("directory tracks out of order: %v, %v", tracks[0].Basename(), tracks[1].Basename())
	}
	if tracks[2].Path != single {
		t.Errorf("tracks[2] = %q, want the loose file", tracks[2].Path)
	}
}

func TestCollectIgnoresMissingPaths(t *testing.T) {
	if got := Collect([]string{"/does/not/exist"}); len(got) != 0 {
		t.Errorf("Collect() = %v, want empty", got)
	}
}
