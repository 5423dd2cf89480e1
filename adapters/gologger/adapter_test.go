package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestResolvePrefersProvider(t *testing.T) {
	logger := &recordingLogger{}
	provider := &recordingProvider{logger: logger}

	resolvedProvider, resolvedLogger := Resolve("assets", provider, nil)
	if resolvedProvider == nil {
		t.Fatalf("expected provider to survive resolution")
	}
	if resolvedLogger == nil {
		t.Fatalf("expected logger from provider")
	}
	resolvedLogger.Info("hello")
	if logger.infos != 1 {
		t.Fatalf("expected provider logger to receive output, got %d", logger.infos)
	}
}

func TestResolveFallsBackToNop(t *testing.T) {
	_, logger := Resolve("assets", nil, nil)
	if logger == nil {
		t.Fatalf("expected nop logger fallback")
	}
	logger.Info("dropped")
}

func TestJobBridges(t *testing.T) {
	if ToJobProvider(nil) != nil {
		t.Fatalf("expected nil bridge for nil provider")
	}
	if ToJobLogger(nil) != nil {
		t.Fatalf("expected nil bridge for nil logger")
	}

	logger := &recordingLogger{}
	provider := &recordingProvider{logger: logger}
	_, _, jobProvider, jobLogger := ResolveForJob("assets", provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job bridges for resolved pair")
	}
	jobLogger.Info("bridged")
	if logger.infos != 1 {
		t.Fatalf("expected bridged output to reach the glog logger")
	}
}

type recordingProvider struct {
	logger glog.Logger
}

func (p *recordingProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type recordingLogger struct {
	infos int
}

func (l *recordingLogger) Trace(string, ...any) {}
func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  { l.infos++ }
func (l *recordingLogger) Warn(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Fatal(string, ...any) {}
func (l *recordingLogger) WithContext(context.Context) glog.Logger {
	return l
}
