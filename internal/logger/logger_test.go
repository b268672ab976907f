package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatFromEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"staging", false},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Writer: &buf, Environment: tt.environment}).Info("hello")

			var decoded map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &decoded) == nil
			assert.Equal(t, tt.wantJSON, isJSON, buf.String())
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Writer: &buf, Environment: "development", Format: "json"}).Info("invite created", "invite_id", "inv-1")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "invite created", decoded["msg"])
	assert.Equal(t, "inv-1", decoded["invite_id"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Debug("debug line")
	log.Info("info line")
	log.Warn("warn line")
	log.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json"})

	log.WithPlayer("p-1").WithIsland("isl-1").WithError(errors.New("boom")).Info("scoped")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "p-1", decoded["player_id"])
	assert.Equal(t, "isl-1", decoded["island_id"])
	assert.Equal(t, "boom", decoded["error"])
}

func TestLogger_WithErrorNil(t *testing.T) {
	log := New(Config{Writer: &bytes.Buffer{}})
	assert.Same(t, log, log.WithError(nil))
}

func TestPrettyHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)

	r := slog.NewRecord(time.Date(2024, 6, 1, 14, 3, 9, 0, time.UTC), slog.LevelInfo, "invite created", 0)
	r.AddAttrs(slog.String("invitee", "bob"), slog.Int("count", 2), slog.String("name", "Alice's Island"))
	require.NoError(t, h.Handle(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, "14:03:09")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "invite created")
	assert.Contains(t, out, "invitee=bob")
	assert.Contains(t, out, "count=2")
	assert.Contains(t, out, `name="Alice's Island"`)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_LevelLabels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
		{slog.LevelError + 4, "ERR"},
	}
	for _, tt := range tests {
		label, _ := levelLabel(tt.level)
		assert.Equal(t, tt.want, label)
	}
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.With("component", "hooks").
		WithGroup("event").
		Info("vetoed", "reason", "invite", slog.Group("actor", slog.String("id", "p-1")))

	out := buf.String()
	assert.Contains(t, out, "component=hooks")
	assert.Contains(t, out, "event.reason=invite")
	assert.Contains(t, out, "event.actor.id=p-1")
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
	ctx := context.Background()

	assert.False(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))

	defaults := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, defaults.Enabled(ctx, slog.LevelDebug))
	assert.True(t, defaults.Enabled(ctx, slog.LevelInfo))
}

func TestPrettyHandler_Source(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	log.Info("with source")
	assert.Contains(t, buf.String(), "logger_test.go:")
}
