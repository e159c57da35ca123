package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		anyErr  bool
	}{
		{name: "default", cfg: NewDefaultConfig()},
		{name: "json debug", cfg: Config{Level: "debug", Format: FormatJSON}},
		{name: "empty level means info", cfg: Config{Format: FormatJSON}},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, wantErr: types.ErrInvalidLogFormat},
		{name: "bad level", cfg: Config{Level: "loud", Format: FormatJSON}, anyErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: FormatJSON}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("projected", zap.Int("iterations", 3))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "projected", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["iterations"])
	assert.Contains(t, entry, "ts")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: FormatConsole}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("projection failed")
	require.NoError(t, log.Sync())

	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "projection failed")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Format: "xml"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, types.ErrInvalidLogFormat)
}
