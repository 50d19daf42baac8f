package config

import (
	"testing"
)

func TestGetEnvIntDefault(t *testing.T) {
	if got := getEnvInt("CALY_TEST_UNSET_INT", 42); got != 42 {
		t.Errorf("Expected default 42, got %d", got)
	}
}

func TestGetEnvIntParses(t *testing.T) {
	t.Setenv("CALY_TEST_INT", "7")
	if got := getEnvInt("CALY_TEST_INT", 42); got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
}

func TestGetEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("CALY_TEST_INT", "not-a-number")
	if got := getEnvInt("CALY_TEST_INT", 42); got != 42 {
		t.Errorf("Expected fallback 42 for invalid value, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("CALY_TEST_BOOL", "false")
	if got := getEnvBool("CALY_TEST_BOOL", true); got {
		t.Error("Expected false, got true")
	}
	if got := getEnvBool("CALY_TEST_BOOL_UNSET", true); !got {
		t.Error("Expected default true, got false")
	}
}

func TestSetupLoadsRenderDefaults(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")
	viewerConfig, logger := Setup()
	if logger == nil {
		t.Fatal("Expected a logger from Setup")
	}
	if viewerConfig.Engine != "pdfium" {
		t.Errorf("Expected default engine pdfium, got %q", viewerConfig.Engine)
	}
	if viewerConfig.RenderDPI != 150 {
		t.Errorf("Expected default DPI 150, got %d", viewerConfig.RenderDPI)
	}
	if viewerConfig.ThumbnailWidth != 256 {
		t.Errorf("Expected default thumbnail width 256, got %d", viewerConfig.ThumbnailWidth)
	}
}

func TestSetupJanitorDisable(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("JANITOR_ENABLED", "false")
	viewerConfig, _ := Setup()
	if viewerConfig.JanitorInterval != 0 {
		t.Errorf("Expected janitor disabled (interval 0), got %d", viewerConfig.JanitorInterval)
	}
}
