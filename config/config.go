package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ViewerConfig contains all of the viewer backend settings
type ViewerConfig struct {
	ListenAddrIP   string
	ListenAddrPort string
	SocketPath     string // single-instance notification socket

	Engine          string // "pdfium" (default, pure Go) or "fitz" (MuPDF, CGo)
	RenderDPI       int
	ThumbnailWidth  int
	JanitorInterval int // minutes between eviction sweeps, 0 disables
	JanitorWindow   int // pages kept on each side of the focus page
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// Setup loads configuration and returns ViewerConfig and Logger
func Setup() (ViewerConfig, *slog.Logger) {
	viewerConfig := ViewerConfig{}

	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("caly.env")

	logger := setupLogging()
	Logger = logger

	// Server configuration
	viewerConfig.ListenAddrPort = getEnv("SERVER_PORT", "8090")
	viewerConfig.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Single-instance socket
	viewerConfig.SocketPath = getEnv("INSTANCE_SOCKET", filepath.Join(os.TempDir(), "caly.sock"))

	// Rendering configuration
	viewerConfig.Engine = getEnv("PDF_ENGINE", "pdfium")
	viewerConfig.RenderDPI = getEnvInt("RENDER_DPI", 150)
	viewerConfig.ThumbnailWidth = getEnvInt("THUMBNAIL_WIDTH", 256)
	logger.Info("Render configuration loaded",
		"engine", viewerConfig.Engine,
		"dpi", viewerConfig.RenderDPI,
		"thumbnailWidth", viewerConfig.ThumbnailWidth)

	// Janitor configuration
	viewerConfig.JanitorInterval = getEnvInt("JANITOR_INTERVAL", 1)
	viewerConfig.JanitorWindow = getEnvInt("JANITOR_WINDOW", 20)
	if !getEnvBool("JANITOR_ENABLED", true) {
		viewerConfig.JanitorInterval = 0
	}

	return viewerConfig, logger
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "debug")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "caly.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
