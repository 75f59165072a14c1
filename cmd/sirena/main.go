// Package main is the entry point for Sirena.
package main

import (
	"os"
	"time"

	"fyne.io/fyne/v2/app"

	"github.com/santelmotechnologies/sirena/application"
	"github.com/santelmotechnologies/sirena/core/bus"
	"github.com/santelmotechnologies/sirena/core/module"
	"github.com/santelmotechnologies/sirena/infrastructure/audio"
	"github.com/santelmotechnologies/sirena/infrastructure/logging"
	"github.com/santelmotechnologies/sirena/infrastructure/prefs"
	"github.com/santelmotechnologies/sirena/modules"
	"github.com/santelmotechnologies/sirena/presentation"
)

func main() {
	// Initialize logging (dev: console only, prod: rotating file)
	logger, closeLog, err := logging.Setup(nil)
	if err != nil {
		// Fallback to stderr if logging setup fails
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting Sirena")

	// Load preferences (a missing or corrupt file starts an empty store)
	store := prefs.Open(prefs.DefaultPath(), logger)

	fyneApp := app.NewWithID("org.santelmotechnologies.sirena")

	sched := presentation.NewScheduler()
	messageBus := bus.New(sched, logger)
	pool := module.NewPool(module.DefaultPoolSize)

	registry := application.NewRegistry(&application.RegistryConfig{
		Env: &application.Env{
			Bus:    messageBus,
			Prefs:  store,
			Sched:  sched,
			Logger: logger,
		},
		Pool:   pool,
		Quit:   fyneApp.Quit,
		Logger: logger,
	})

	mainWindow := presentation.NewMainWindow(&presentation.MainWindowConfig{
		App:      fyneApp,
		Bus:      messageBus,
		Registry: registry,
		Logger:   logger,
	})

	for _, reg := range modules.Catalogue(modules.Config{
		Engine: audio.NewSilentEngine(),
		UI:     mainWindow.Callbacks(),
	}) {
		registry.Add(reg)
	}

	registry.LoadEnabledModules()

	mainWindow.Show()
	registry.NotifyStarted()
	fyneApp.Run()

	// Force exit if a worker refuses to die after the UI loop ends
	go func() {
		time.Sleep(10 * time.Second)
		logger.Warn("Shutdown timeout, forcing exit")
		os.Exit(0)
	}()

	pool.Wait()
	logger.Info("Application shutdown complete")
}
