package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"log/slog"
)

func TestSlogLogger_LogsJSONWithoutTraceContext(t *testing.T) {
	buf := new(bytes.Buffer)
	l := NewWithWriter(buf, slog.LevelDebug)

	l.Info(context.Background(), "test message", "k", "v")

	output := buf.String()
	if !strings.Contains(output, "\"msg\":\"test message\"") {
		t.Fatalf("expected message in output: %s", output)
	}
	if strings.Contains(output, "trace_id") {
		t.Fatalf("did not expect trace_id without segment: %s", output)
	}
}

func TestSlogLogger_LogsWithTraceIDWhenSegmentExists(t *testing.T) {
	buf := new(bytes.Buffer)
	l := NewWithWriter(buf, slog.LevelDebug)

	ctx, seg := xray.BeginSegment(context.Background(), "test-segment")
	defer seg.Close(nil)

	l.Info(ctx, "trace message")

	output := buf.String()
	if !strings.Contains(output, "trace_id") {
		t.Fatalf("expected trace_id in output: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSlogLogger_RespectsLevel(t *testing.T) {
	buf := new(bytes.Buffer)
	l := NewWithWriter(buf, slog.LevelWarn)

	l.Debug(context.Background(), "hidden")
	l.Warn(context.Background(), "visible")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Fatalf("debug line leaked below level: %s", output)
	}
	if !strings.Contains(output, "visible") {
		t.Fatalf("expected warn line in output: %s", output)
	}
}
