package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sigexport.log")

	logger, err := New(Options{LogFile: path, RunID: "run-1"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("copying attachment")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"copying attachment"`) {
		t.Errorf("log file missing entry: %s", out)
	}
	if !strings.Contains(out, `"run":"run-1"`) {
		t.Errorf("log file missing run field: %s", out)
	}
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	quiet, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled without verbose")
	}

	verbose, err := New(Options{Verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug disabled with verbose")
	}
}
