package log

import (
	"testing"

	"go.uber.org/zap"
)

func TestComponentLevels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		enabled   bool
		wantDebug bool
	}{
		{"channel on without general debug", false, true, true},
		{"channel off without general debug", false, false, false},
		{"channel off with general debug", true, false, false},
		{"channel on with general debug", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Init(tt.debug); err != nil {
				t.Fatalf("Init(%v): %v", tt.debug, err)
			}

			l := Component(ChannelIO, tt.enabled)
			if got := l.Desugar().Core().Enabled(zap.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if !l.Desugar().Core().Enabled(zap.InfoLevel) {
				t.Error("info must always be enabled")
			}
		})
	}
}

func TestInitGeneralLevel(t *testing.T) {
	if err := Init(false); err != nil {
		t.Fatal(err)
	}
	if GetZapLogger().Core().Enabled(zap.DebugLevel) {
		t.Error("debug enabled on the package logger without -debug")
	}

	if err := Init(true); err != nil {
		t.Fatal(err)
	}
	if !GetZapLogger().Core().Enabled(zap.DebugLevel) {
		t.Error("debug disabled on the package logger with -debug")
	}
}
