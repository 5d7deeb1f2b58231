package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", LogInfo, func(l *log.Logger) { l.Info("scene built") }, true},
		{"debug at info", LogInfo, func(l *log.Logger) { l.Debug("cache miss") }, false},
		{"debug at debug", LogDebug, func(l *log.Logger) { l.Debug("cache miss") }, true},
		{"info at warn", LogWarn, func(l *log.Logger) { l.Info("scene built") }, false},
		{"warn at warn", LogWarn, func(l *log.Logger) { l.Warn("frame dropped") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("loaded model", "layers", 8)

	line := buf.String()
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(line) {
		t.Errorf("line %q should start with a centisecond timestamp", line)
	}
	if !strings.Contains(line, "layers=8") {
		t.Errorf("line %q missing key/value", line)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogDebug))
	time.Sleep(5 * time.Millisecond)
	prog.done("Built scene for LeNet-5", "cached", true)

	if !regexp.MustCompile(`Built scene for LeNet-5 \(\d+ms\).*cached=true`).MatchString(buf.String()) {
		t.Errorf("progress output = %q", buf.String())
	}

	buf.Reset()
	newProgress(newLogger(&buf, LogInfo)).done("quiet")
	if buf.Len() != 0 {
		t.Error("progress.done() should be silent at info level")
	}
}
