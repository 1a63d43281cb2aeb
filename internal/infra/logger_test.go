package infra

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerProductionIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("milestone_id", "m1").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked in production: %s", out)
	}
	if !strings.Contains(out, `"milestone_id":"m1"`) || !strings.Contains(out, `"service":"fundhub"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestNewLoggerDevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("development", &buf)
	logger.Debug().Msg("trace")
	if !strings.Contains(buf.String(), "trace") {
		t.Fatalf("debug line missing in development: %q", buf.String())
	}
}
