package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := Nop()
	logger.Debug("debug", "k", 1)
	logger.Info("info")
	logger.Warn("warn", "k", "v")
	logger.Error("error", "err", nil)
}

func TestFromZapForwardsKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Debug("stage started", "stage", "samples")
	logger.Info("run finished", "attachments", 3)
	logger.Warn("image skipped")
	logger.Error("stage failed", "stage", "reactions", "error", "boom")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[0].ContextMap()["stage"] != "samples" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].ContextMap()["attachments"] != int64(3) {
		t.Fatalf("expected attachments=3, got %v", entries[1].ContextMap())
	}
	if entries[3].Level != zapcore.ErrorLevel || entries[3].Message != "stage failed" {
		t.Fatalf("unexpected error entry: %+v", entries[3])
	}
}

func TestFromZapNil(t *testing.T) {
	FromZap(nil).Info("dropped")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level error")
	}
}

func TestNewZapRejectsUnknownFormat(t *testing.T) {
	if _, err := NewZap("info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
	logger, err := NewZap("debug", "console")
	if err != nil {
		t.Fatalf("console logger: %v", err)
	}
	logger.Debug("ok")
	_ = logger.Sync()
}
