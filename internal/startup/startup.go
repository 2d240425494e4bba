package startup

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"photoview/internal/display"
	"photoview/internal/logging"
	"photoview/internal/memory"
	"photoview/internal/sequence"
	"photoview/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// User interface modes.
const (
	UIModeHTTP = "http"
	UIModeTUI  = "tui"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	MediaDir        string
	DatabaseDir     string
	Port            string
	LogHealthChecks bool
	MetricsEnabled  bool

	// Viewer
	CacheMB           int
	ViewSize          image.Point
	Mode              display.ViewSizeMode
	FullSizeThreshold float64
	MaxScaledPixels   float64
	DecodeWorkers     int
	Filters           string
	Sort              sequence.SortField
	SortDescending    bool
	UIMode            string

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", "/media")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	cacheMB := getEnvInt("VIEWER_CACHE_MB", 0)
	modeStr := getEnv("VIEW_SIZE_MODE", "fit")
	threshold := getEnvFloat("FULL_SIZE_THRESHOLD", display.DefaultFullSizeThreshold)
	maxScaled := getEnvFloat("MAX_SCALED_PIXELS", display.DefaultMaxScaledPixels)
	viewWidth := getEnvInt("VIEW_WIDTH", 1280)
	viewHeight := getEnvInt("VIEW_HEIGHT", 960)
	filterSpec := getEnv("FILTERS", "")
	sortStr := getEnv("SORT", string(sequence.SortByName))
	sortDesc := getEnvBool("SORT_DESCENDING", false)
	uiMode := strings.ToLower(getEnv("UI_MODE", UIModeHTTP))

	logging.Info("  MEDIA_DIR:            %s", mediaDir)
	logging.Info("  DATABASE_DIR:         %s", databaseDir)
	logging.Info("  PORT:                 %s", port)
	logging.Info("  METRICS_ENABLED:      %v", metricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:    %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())
	logging.Info("  VIEWER_CACHE_MB:      %d", cacheMB)
	logging.Info("  VIEW_SIZE_MODE:       %s", modeStr)
	logging.Info("  FULL_SIZE_THRESHOLD:  %g", threshold)
	logging.Info("  MAX_SCALED_PIXELS:    %g", maxScaled)
	logging.Info("  VIEW_WIDTH/HEIGHT:    %dx%d", viewWidth, viewHeight)
	logging.Info("  FILTERS:              %s", filterSpec)
	logging.Info("  SORT:                 %s (descending: %v)", sortStr, sortDesc)
	logging.Info("  UI_MODE:              %s", uiMode)

	mode, ok := display.ParseViewSizeMode(modeStr)
	if !ok {
		logging.Warn("  Invalid VIEW_SIZE_MODE %q, using default: fit", modeStr)
		mode = display.FitToWindow
	}

	if threshold < 1 {
		logging.Warn("  FULL_SIZE_THRESHOLD must be at least 1, using default: %g", display.DefaultFullSizeThreshold)
		threshold = display.DefaultFullSizeThreshold
	}

	if viewWidth <= 0 || viewHeight <= 0 {
		logging.Warn("  Invalid view size %dx%d, using default: 1280x960", viewWidth, viewHeight)
		viewWidth, viewHeight = 1280, 960
	}

	sortField := sequence.SortField(strings.ToLower(sortStr))
	switch sortField {
	case sequence.SortByName, sequence.SortByDate, sequence.SortBySize:
	default:
		logging.Warn("  Invalid SORT %q, using default: name", sortStr)
		sortField = sequence.SortByName
	}

	if uiMode != UIModeHTTP && uiMode != UIModeTUI {
		logging.Warn("  Invalid UI_MODE %q, using default: %s", uiMode, UIModeHTTP)
		uiMode = UIModeHTTP
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	mediaDir, err := filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", mediaDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := checkMediaDirectory(mediaDir); err != nil {
		return nil, fmt.Errorf("media directory error: %w", err)
	}

	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return &Config{
		MediaDir:          mediaDir,
		DatabaseDir:       databaseDir,
		Port:              port,
		LogHealthChecks:   logHealthChecks,
		MetricsEnabled:    metricsEnabled,
		CacheMB:           cacheMB,
		ViewSize:          image.Pt(viewWidth, viewHeight),
		Mode:              mode,
		FullSizeThreshold: threshold,
		MaxScaledPixels:   maxScaled,
		DecodeWorkers:     workers.ForCPU(0),
		Filters:           filterSpec,
		Sort:              sortField,
		SortDescending:    sortDesc,
		UIMode:            uiMode,
		DatabasePath:      filepath.Join(databaseDir, "photoview.db"),
	}, nil
}

// LogMemoryConfig logs the memory limit and the resulting cache budget
func LogMemoryConfig(result memory.ConfigResult, budget int64) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY")
	logging.Info("------------------------------------------------------------")
	if result.Configured {
		logging.Info("  GOMEMLIMIT:      %s (source: %s)", memory.FormatBytes(result.GoMemLimit), result.Source)
		if result.ContainerLimit > 0 {
			logging.Info("  Container limit: %s (ratio %.2f)", memory.FormatBytes(result.ContainerLimit), result.Ratio)
		}
	} else {
		logging.Info("  GOMEMLIMIT:      not configured")
	}
	logging.Info("  Preload budget:  %s", memory.FormatBytes(budget))
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogDecoderInit logs decode service setup
func LogDecoderInit(workerCount int, vipsAvailable bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DECODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Workers: %d", workerCount)
	if vipsAvailable {
		logging.Info("  [OK] libvips available for large images")
	} else {
		logging.Warn("  libvips unavailable, all images decoded in Go")
	}
}

// LogSequenceLoaded logs the scanned sequence
func LogSequenceLoaded(dir string, count int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SEQUENCE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %d images in %s (%v)", count, dir, duration)
	if count == 0 {
		logging.Warn("  Nothing to show; the viewer will display an empty sequence")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Viewer:          http://localhost:%s/api/frame", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
           __          __          _
    ____  / /_  ____  / /_____   _(_)__ _      __
   / __ \/ __ \/ __ \/ __/ __ \ | / / _ \ | /| / /
  / /_/ / / / / /_/ / /_/ /_/ / |/ /  __/ |/ |/ /
 / .___/_/ /_/\____/\__/\____/|___/\___/|__/|__/
/_/
------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkMediaDirectory requires dir to exist; it is never created.
func checkMediaDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	logging.Debug("    [OK] Media directory exists")
	return nil
}

func ensureDirectory(path string) error {
	logging.Debug("  Checking directory: %s", path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
