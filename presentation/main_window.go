package presentation

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/bus"
	"github.com/santelmotechnologies/sirena/core/msg"
	"github.com/santelmotechnologies/sirena/domain/track"
	"github.com/santelmotechnologies/sirena/modules"
)

// MainWindow is the main application window.
type MainWindow struct {
	window   fyne.Window
	bus      *bus.Bus
	registry *application.Registry
	logger   *slog.Logger

	// Track panel
	titleLbl  *widget.Label
	artistLbl *widget.Label
	albumLbl  *widget.Label
	cover     *canvas.Image

	// Toolbar
	playBtn   *widget.ToolbarAction
	repeatChk *widget.Check

	// Search
	searchEntry *widget.Entry
	resultsList *widget.List
	results     []*track.Track

	statusLbl *widget.Label

	paused bool
}

// MainWindowConfig holds configuration for MainWindow.
type MainWindowConfig struct {
	App      fyne.App
	Bus      *bus.Bus
	Registry *application.Registry
	Logger   *slog.Logger
}

// NewMainWindow creates the main window and registers it on the message
// bus for the events it renders itself.
func NewMainWindow(cfg *MainWindowConfig) *MainWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &MainWindow{
		window:   cfg.App.NewWindow("Sirena"),
		bus:      cfg.Bus,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}

	w.init()

	w.bus.Register(w,
		msg.EvtPaused,
		msg.EvtUnpaused,
		msg.EvtStopped,
		msg.EvtNewTrack,
		msg.EvtRepeatChanged,
		msg.EvtSearchReset,
		msg.EvtSearchAppend,
		msg.EvtSearchEnd,
	)

	// Closing the window starts the quit sequence; the registry calls
	// App.Quit once every module has wound down.
	w.window.SetOnClosed(func() {
		w.registry.PostQuitMsg()
	})

	return w
}

func (w *MainWindow) init() {
	toolbar := w.createToolbar()

	w.titleLbl = widget.NewLabelWithStyle("Not playing", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	w.artistLbl = widget.NewLabel("")
	w.albumLbl = widget.NewLabel("")
	w.cover = canvas.NewImageFromResource(theme.MediaMusicIcon())
	w.cover.FillMode = canvas.ImageFillContain
	w.cover.SetMinSize(fyne.NewSize(160, 160))

	trackPanel := container.NewBorder(nil, nil, w.cover, nil,
		container.NewVBox(w.titleLbl, w.artistLbl, w.albumLbl))

	w.searchEntry = widget.NewEntry()
	w.searchEntry.PlaceHolder = "Search your music folders"
	w.searchEntry.OnSubmitted = func(query string) {
		w.bus.Post(msg.EvtSearchStart, msg.Params{msg.KeyQuery: query})
	}

	w.resultsList = widget.NewList(
		func() int { return len(w.results) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(w.results[i].WindowTitle())
		},
	)
	w.resultsList.OnSelected = func(i widget.ListItemID) {
		if i < 0 || i >= len(w.results) {
			return
		}
		w.bus.Post(msg.CmdTracklistAdd, msg.Params{
			msg.KeyTracks:  []*track.Track{w.results[i]},
			msg.KeyPlayNow: true,
		})
		w.resultsList.UnselectAll()
	}

	searchPanel := container.NewBorder(w.searchEntry, nil, nil, nil, w.resultsList)

	w.statusLbl = widget.NewLabel("0 tracks")

	content := container.NewBorder(
		container.NewVBox(toolbar, trackPanel),
		w.statusLbl,
		nil, nil,
		searchPanel,
	)
	w.window.SetContent(content)
	w.window.Resize(fyne.NewSize(700, 520))
}

func (w *MainWindow) createToolbar() fyne.CanvasObject {
	w.playBtn = widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
		w.bus.Post(msg.CmdTogglePause, nil)
	})

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), w.openFolder),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MediaSkipPreviousIcon(), func() {
			w.bus.Post(msg.CmdPrevious, nil)
		}),
		w.playBtn,
		widget.NewToolbarAction(theme.MediaStopIcon(), func() {
			w.bus.Post(msg.CmdStop, nil)
		}),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() {
			w.bus.Post(msg.CmdNext, nil)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() {
			w.bus.Post(msg.CmdTracklistShuffle, nil)
		}),
	)

	w.repeatChk = widget.NewCheck("Repeat", func(checked bool) {
		w.bus.Post(msg.CmdTracklistRepeat, msg.Params{msg.KeyRepeat: checked})
	})

	return container.NewBorder(nil, nil, nil, w.repeatChk, toolbar)
}

func (w *MainWindow) openFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		w.bus.Post(msg.EvtLoadTracks, msg.Params{
			msg.KeyPaths:   []string{uri.Path()},
			msg.KeyPlayNow: true,
		})
	}, w.window)
}

// Name identifies the window as a bus subscriber.
func (w *MainWindow) Name() string { return "mainwindow" }

// Deliver renders bus events. Dispatch already runs on the Fyne event
// loop, so widgets are updated in place.
func (w *MainWindow) Deliver(id msg.ID, p msg.Params) {
	switch id {
	case msg.EvtPaused:
		w.setPaused(true)
	case msg.EvtUnpaused, msg.EvtNewTrack:
		w.setPaused(false)
	case msg.EvtStopped:
		w.paused = false
		w.playBtn.SetIcon(theme.MediaPlayIcon())
	case msg.EvtRepeatChanged:
		w.repeatChk.SetChecked(p.Bool(msg.KeyRepeat))
	case msg.EvtSearchReset:
		w.results = nil
		w.resultsList.Refresh()
	case msg.EvtSearchAppend:
		w.results = append(w.results, p.Tracks(msg.KeyTracks)...)
		w.resultsList.Refresh()
	case msg.EvtSearchEnd:
		w.logger.Debug("Search results rendered", "count", len(w.results))
	}
}

func (w *MainWindow) setPaused(paused bool) {
	w.paused = paused
	if paused {
		w.playBtn.SetIcon(theme.MediaPlayIcon())
	} else {
		w.playBtn.SetIcon(theme.MediaPauseIcon())
	}
}

// Callbacks exposes the widget hooks the display modules render through.
// The modules invoke them via the main-loop scheduler.
func (w *MainWindow) Callbacks() modules.UICallbacks {
	return modules.UICallbacks{
		SetTitle: w.window.SetTitle,
		SetStatus: func(text string) {
			w.statusLbl.SetText(text)
		},
		SetTrack: func(title, artist, album string) {
			w.titleLbl.SetText(title)
			if artist != "" {
				artist = fmt.Sprintf("by %s", artist)
			}
			w.artistLbl.SetText(artist)
			w.albumLbl.SetText(album)
		},
		SetCover: func(path string) {
			if path == "" {
				w.cover.Resource = theme.MediaMusicIcon()
				w.cover.File = ""
			} else {
				w.cover.Resource = nil
				w.cover.File = path
			}
			w.cover.Refresh()
		},
	}
}

// Show displays the main window.
func (w *MainWindow) Show() {
	w.window.Show()
}
