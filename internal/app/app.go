package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	server "stonefall/server"
	"stonefall/server/catalog"
	"stonefall/server/logging"
	loggingSinks "stonefall/server/logging/sinks"
)

// Run boots the server: settings, logging router, profile catalog, hub, and
// the HTTP listener. It blocks until the listener fails or ctx is cancelled.
func Run(ctx context.Context) error {
	settingsPath := os.Getenv("STONEFALL_CONFIG")
	if settingsPath == "" {
		settingsPath = "config.yaml"
	}
	settings, err := server.LoadSettings(settingsPath)
	if err != nil {
		return err
	}

	logCfg := settings.LoggingConfig()
	sinks, cleanup, err := buildSinks(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	router, err := logging.NewRouter(nil, logCfg, sinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
	}()

	profiles, err := catalog.Load(settings.ProfilePaths...)
	if err != nil {
		return fmt.Errorf("load knockback profiles: %w", err)
	}

	hub := server.NewHub(settings, profiles, router)

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := hub.WatchProfiles(watchCtx, settings.ProfilePaths); err != nil {
			log.Printf("profile watcher stopped: %v", err)
		}
	}()

	srv := &http.Server{Addr: settings.ListenAddr, Handler: hub.Routes()}
	log.Printf("server listening on %s", srv.Addr)

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, func(), error) {
	var sinks []logging.NamedSink
	var closers []func()
	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}

	for _, name := range cfg.EnabledSinks {
		switch name {
		case "console":
			sinks = append(sinks, logging.NamedSink{
				Name: name,
				Sink: loggingSinks.NewConsoleSink(os.Stdout, cfg.Console),
			})
		case "json":
			path := cfg.JSON.FilePath
			if path == "" {
				path = "events.jsonl"
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("open json sink %s: %w", path, err)
			}
			closers = append(closers, func() { file.Close() })
			sinks = append(sinks, logging.NamedSink{
				Name: name,
				Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval),
			})
		case "memory":
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewMemorySink()})
		default:
			cleanup()
			return nil, nil, fmt.Errorf("unknown logging sink %q", name)
		}
	}
	return sinks, cleanup, nil
}
