package util

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetColors(false)
	t.Cleanup(func() {
		SetOutput(nil)
		SetColors(true)
		SetLogLevel(LevelInfo)
	})
	return &buf
}

func TestLogLevels(t *testing.T) {
	buf := captureLogs(t)
	SetLogLevel(LevelInfo)

	DebugLog("hidden %d", 1)
	InfoLog("loaded %d rows", 953)
	WarnLog("skipped artist %q", "Unknown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered:\n%s", out)
	}
	if !strings.Contains(out, "[INFO]  loaded 953 rows") {
		t.Errorf("missing info line:\n%s", out)
	}
	if !strings.Contains(out, `[WARN]  skipped artist "Unknown"`) {
		t.Errorf("missing warn line:\n%s", out)
	}
}

func TestQuietAndVerbose(t *testing.T) {
	buf := captureLogs(t)

	SetQuiet(true)
	if !IsQuiet() {
		t.Error("expected quiet mode")
	}
	InfoLog("not shown")
	ErrorLog("shown")
	if strings.Contains(buf.String(), "not shown") || !strings.Contains(buf.String(), "[ERROR] shown") {
		t.Errorf("quiet mode should only show errors:\n%s", buf.String())
	}

	SetVerbose(true)
	if IsQuiet() {
		t.Error("verbose should leave quiet mode")
	}
	DebugLog("details")
	if !strings.Contains(buf.String(), "[DEBUG] details") {
		t.Errorf("verbose mode should show debug lines:\n%s", buf.String())
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount = %q", got)
	}
	if got := FormatDuration(1234567 * time.Microsecond); got != "1.23s" {
		t.Errorf("FormatDuration = %q", got)
	}
	if got := FormatDuration(1500 * time.Microsecond); got != "2ms" {
		t.Errorf("FormatDuration = %q", got)
	}
}
