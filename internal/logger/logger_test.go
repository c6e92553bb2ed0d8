package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %s", log.GetLevel())
	}
}

func TestNewWithOptions(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithOptions(Options{Level: "warn", JSON: true, Out: buf})
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("Expected info entry to be filtered, got: %s", output)
	}
	if !strings.Contains(output, `"message":"kept"`) {
		t.Errorf("Expected JSON warn entry, got: %s", output)
	}
}

func TestNewWithOptions_BadLevel(t *testing.T) {
	log, err := NewWithOptions(Options{Level: "loud", Out: &bytes.Buffer{}})
	if err == nil {
		t.Error("Expected error for unknown level")
	}
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected fallback to info, got %s", log.GetLevel())
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"user_id": "123",
		"action":  "test",
	})
	log.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, `"user_id":"123"`) {
		t.Errorf("Expected output to contain user_id field, got: %s", output)
	}
	if !strings.Contains(output, `"action":"test"`) {
		t.Errorf("Expected output to contain action field, got: %s", output)
	}
}

func TestWithUser(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithUser(WithContext(context.Background(), NewWithWriter(buf)), "u-42")

	log := FromContext(ctx)
	log.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"user_id":"u-42"`) {
		t.Errorf("Expected user_id in output, got: %s", buf.String())
	}
}
