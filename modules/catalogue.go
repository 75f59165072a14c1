// Package modules contains the feature units shipped with the application.
// Each module owns its private state, declares a handler table at
// construction, and talks to the rest of the application exclusively
// through posted messages.
package modules

import (
	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/infrastructure/audio"
)

// UICallbacks receive display updates from modules. They are invoked on
// the main loop; a nil callback is skipped.
type UICallbacks struct {
	SetTitle  func(title string)
	SetStatus func(status string)
	SetTrack  func(title, artist, album string)
	SetCover  func(path string)
}

// Config holds the collaborators shared by the module catalogue.
type Config struct {
	Engine audio.Engine
	UI     UICallbacks
}

// Catalogue returns a registration for every module shipped with the
// application.
func Catalogue(cfg Config) []application.Registration {
	return []application.Registration{
		{Info: tracklistInfo, New: NewTracklist},
		{Info: playerInfo, New: playerFactory(cfg.Engine)},
		{Info: statusbarInfo, New: statusbarFactory(cfg.UI)},
		{Info: trackpanelInfo, New: trackpanelFactory(cfg.UI)},
		{Info: coversInfo, New: NewCovers},
		{Info: mprisInfo, New: NewMPRIS},
		{Info: mediakeysInfo, New: NewMediaKeys},
		{Info: notifyInfo, New: NewNotify},
		{Info: trackloaderInfo, New: NewTrackLoader},
		{Info: searchInfo, New: NewSearch},
		{Info: explorerInfo, New: NewExplorer},
	}
}
