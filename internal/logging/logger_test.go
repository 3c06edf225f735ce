package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{" WARNING ", zapcore.WarnLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("default logger should be silent")
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { _ = SetLevel("info") })

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug) error = %v", err)
	}
	if Level() != zapcore.DebugLevel {
		t.Errorf("Level() = %v, want debug", Level())
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel(loud) should fail")
	}
	if Level() != zapcore.DebugLevel {
		t.Errorf("Level() after a bad name = %v, want debug kept", Level())
	}
}

func TestInitializeUsesSharedLevel(t *testing.T) {
	t.Cleanup(func() {
		_ = SetLevel("info")
		SetLogger(nil)
	})

	if err := Initialize("error"); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be disabled at error level")
	}
	_ = SetLevel("warn")
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("SetLevel should apply to the running logger")
	}
}

func TestLogDatagramOnlyAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogDatagram("received", "eth0", 1, []byte("hello"))
	if logs.Len() != 0 {
		t.Errorf("got %d entries at info level, want 0", logs.Len())
	}

	core, logs = observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	LogDatagram("received", "eth0", 1, []byte("hello"))
	if logs.Len() != 1 {
		t.Fatalf("got %d entries at debug level, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["ascii"] != "hello" {
		t.Errorf("ascii = %v, want hello", fields["ascii"])
	}
}

func TestDumpsAreCapped(t *testing.T) {
	data := []byte(strings.Repeat("a", 300))
	if got := asciiDump(data); len(got) != maxDumpBytes {
		t.Errorf("len(asciiDump) = %d, want %d", len(got), maxDumpBytes)
	}
	if got := hexDump(data); !strings.HasSuffix(got, "...") {
		t.Errorf("hexDump of oversized data should end with ..., got %q", got[len(got)-5:])
	}
	if got := asciiDump([]byte{0x01, 'a', 0x7f}); got != ".a." {
		t.Errorf("asciiDump = %q, want %q", got, ".a.")
	}
}
