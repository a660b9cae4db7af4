package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"info":    zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNew_WritesCategoryToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stdbench.log")

	loggers, err := New(Config{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	loggers.Get(CategoryBuild).Debug("compressing", zap.String("encoding", "block_simdbp"))
	_ = loggers.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"logger":"build"`) {
		t.Errorf("log line missing category: %s", out)
	}
	if !strings.Contains(out, `"encoding":"block_simdbp"`) {
		t.Errorf("log line missing field: %s", out)
	}
}

func TestLoggers_DisabledCategory(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	loggers := FromLogger(zap.New(core), map[string]bool{"tactile": false, "run": true})

	loggers.Get(CategoryTactile).Info("hidden")
	loggers.Get(CategoryRun).Info("shown")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.LoggerName != "run" || entry.Message != "shown" {
		t.Errorf("unexpected entry %q from %q", entry.Message, entry.LoggerName)
	}
}

func TestLoggers_Base(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	loggers := FromLogger(zap.New(core), map[string]bool{"store": false})

	if loggers.Enabled(CategoryStore) || !loggers.Enabled(CategoryBuild) {
		t.Fatal("unexpected category state")
	}
	Named(loggers.Base(CategoryStore), CategoryStore).Info("hidden")
	Named(loggers.Base(CategoryBuild), CategoryBuild).Info("shown")

	if logs.Len() != 1 || logs.All()[0].LoggerName != "build" {
		t.Fatalf("expected one build entry, got %v", logs.All())
	}
}

func TestLoggers_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	loggers := FromLogger(zap.New(core), nil).With(zap.String("invocation", "abc"))

	loggers.Get(CategoryBoot).Info("start")

	if got := logs.FilterField(zap.String("invocation", "abc")).Len(); got != 1 {
		t.Errorf("expected invocation field on 1 entry, got %d", got)
	}
}

func TestNamedAndOrNopTolerateNil(t *testing.T) {
	Named(nil, CategoryStore).Info("discarded")
	OrNop(nil).Info("discarded")
	Nop().Get(CategoryBoot).Info("discarded")
}
