package logging_test

import (
	"errors"
	"testing"

	"github.com/raysh454/sitelens/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_FieldsAndWith(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	l := logging.NewZapLogger(zap.New(core))

	child := l.With(logging.Field{Key: "component", Value: "probe"})
	child.Warn("probe failed", logging.Field{Key: "error", Value: errors.New("boom")}, logging.Field{Key: "probe", Value: "whois"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "probe" {
		t.Errorf("component field = %v", ctx["component"])
	}
	if ctx["probe"] != "whois" {
		t.Errorf("probe field = %v", ctx["probe"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error field = %v", ctx["error"])
	}
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	t.Parallel()
	l := logging.NewNopLogger()
	l.Debug("x")
	l.Info("x")
	l.With(logging.Field{Key: "a", Value: 1}).Error("x")
}
