package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"photoview/internal/database"
	"photoview/internal/decoder"
	"photoview/internal/display"
	"photoview/internal/filesystem"
	"photoview/internal/filters"
	"photoview/internal/handlers"
	"photoview/internal/logging"
	"photoview/internal/memory"
	"photoview/internal/metrics"
	"photoview/internal/middleware"
	"photoview/internal/sequence"
	"photoview/internal/session"
	"photoview/internal/startup"
	"photoview/internal/terminal"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/mux"
	"golang.org/x/term"
)

// app holds the long-running components so both front ends share one
// shutdown path.
type app struct {
	monitor   *memory.Monitor
	collector *metrics.Collector
	decoder   *decoder.Service
	session   *session.Session
	db        *database.Database
	stopLoop  context.CancelFunc
}

func main() {
	startTime := time.Now()

	// Memory limit first so the cache budget can be derived from it
	memResult := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	budget := memory.CacheBudget(config.CacheMB, memResult)
	startup.LogMemoryConfig(memResult, budget)

	tui := config.UIMode == startup.UIModeTUI
	if tui && !term.IsTerminal(int(os.Stdout.Fd())) {
		logging.Warn("UI_MODE=tui but stdout is not a terminal, serving HTTP instead")
		tui = false
	}

	a, err := newApp(config, budget)
	if err != nil {
		startup.LogFatal("Initialization failed: %v", err)
	}

	if tui {
		runTerminal(a, config)
		return
	}
	runServer(a, config, startTime)
}

func newApp(config *startup.Config, budget int64) (*app, error) {
	a := &app{}

	a.monitor = memory.NewMonitor(memory.DefaultConfig())
	a.monitor.Start()

	// libvips is optional; the pure Go decoders cover everything it does
	if err := decoder.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using Go decoders: %v", err)
	}
	startup.LogDecoderInit(config.DecodeWorkers, decoder.IsVipsAvailable())

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()

	// Build the sequence
	scanStart := time.Now()
	seq, err := sequence.Scan(config.MediaDir, sequence.ScanOptions{
		Sort:       config.Sort,
		Descending: config.SortDescending,
	})
	if err != nil {
		return nil, err
	}
	startup.LogSequenceLoaded(config.MediaDir, seq.Count(), time.Since(scanStart))

	// Initialize database
	dbStart := time.Now()
	ctx := context.Background()
	a.db, err = database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, err
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	a.decoder = decoder.New(decoder.NewFileLoader(), decoder.Options{
		Workers: config.DecodeWorkers,
		Monitor: a.monitor,
	})

	pipeline := display.New(a.decoder, seq, display.Config{
		CacheBudget:       budget,
		ViewSize:          config.ViewSize,
		Mode:              config.Mode,
		FullSizeThreshold: config.FullSizeThreshold,
		MaxScaledPixels:   config.MaxScaledPixels,
		Rotations:         a.db,
	})
	if config.Filters != "" {
		f, unknown := filters.Parse(config.Filters)
		if len(unknown) > 0 {
			logging.Warn("Ignoring unknown filters: %v", unknown)
		}
		pipeline.SetFilters(f, filters.Known(config.Filters))
	}

	a.session = session.New(pipeline, a.decoder.Results(), session.Options{
		Store:  a.db,
		Folder: config.MediaDir,
	})
	loopCtx, cancel := context.WithCancel(ctx)
	a.stopLoop = cancel
	go a.session.Run(loopCtx)

	if start := session.Resume(ctx, a.db, config.MediaDir, seq); start != "" {
		if err := a.session.Do(ctx, func(p *display.Pipeline) { p.SetCurrent(start, true) }); err != nil {
			return nil, err
		}
	}

	a.collector = metrics.NewCollector(a.session, 15*time.Second)
	a.collector.Start()

	return a, nil
}

// close stops every component in reverse order of creation.
func (a *app) close() {
	startup.LogShutdownStep("Stopping metrics collector")
	a.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping viewing session")
	a.session.Stop()
	a.stopLoop()
	startup.LogShutdownStepComplete("Session stopped")

	startup.LogShutdownStep("Stopping decoder")
	a.decoder.Close()
	decoder.ShutdownVips()
	startup.LogShutdownStepComplete("Decoder stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	a.monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Closing database")
	if err := a.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}
}

func runServer(a *app, config *startup.Config, startTime time.Time) {
	h := handlers.New(a.session)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	// Create server. Frame streams are long-lived, so writes have no
	// server-wide deadline; the stream writer enforces its own.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, a)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func runTerminal(a *app, config *startup.Config) {
	// The screen owns stderr while the viewer runs
	logPath := filepath.Join(config.DatabaseDir, "photoview.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		startup.LogFatal("Failed to open log file %s: %v", logPath, err)
	}
	defer logFile.Close()
	logging.Info("Terminal viewer starting, logging to %s", logPath)
	logging.SetOutput(logFile)
	defer logging.SetOutput(os.Stderr)

	screen, err := tcell.NewScreen()
	if err != nil {
		startup.LogFatal("Failed to open terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		startup.LogFatal("Failed to initialize terminal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := terminal.New(screen, a.session).Run(ctx); err != nil && ctx.Err() == nil {
		logging.Error("Terminal viewer error: %v", err)
	}
	screen.Fini()

	startup.LogShutdownInitiated("quit")
	a.close()
	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Frames
	api.HandleFunc("/frame", h.GetFrame).Methods("GET")
	api.HandleFunc("/state", h.GetState).Methods("GET")
	api.HandleFunc("/stream", h.StreamFrames).Methods("GET")

	// Navigation
	api.HandleFunc("/next", h.Next).Methods("POST")
	api.HandleFunc("/prev", h.Prev).Methods("POST")
	api.HandleFunc("/first", h.First).Methods("POST")
	api.HandleFunc("/last", h.Last).Methods("POST")
	api.HandleFunc("/goto", h.Goto).Methods("POST")

	// View
	api.HandleFunc("/zoom", h.Zoom).Methods("POST")
	api.HandleFunc("/zoom/in", h.ZoomIn).Methods("POST")
	api.HandleFunc("/zoom/out", h.ZoomOut).Methods("POST")
	api.HandleFunc("/zoom/reset", h.ZoomReset).Methods("POST")
	api.HandleFunc("/pan", h.Pan).Methods("POST")
	api.HandleFunc("/resize", h.Resize).Methods("POST")
	api.HandleFunc("/rotate", h.Rotate).Methods("POST")
	api.HandleFunc("/filters", h.SetFilters).Methods("POST")

	// Sequence
	api.HandleFunc("/item", h.RemoveItem).Methods("DELETE")

	return r
}

func handleShutdown(srv *http.Server, a *app) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	a.close()
	startup.LogShutdownComplete()
}
