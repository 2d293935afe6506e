package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "park.log")
	log, closer, err := New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1}, "app")
	require.NoError(t, err)

	log.WithField("zone_id", "z1").Info("zone assigned")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"zone assigned"`)
	assert.Contains(t, string(data), `"service":"app"`)
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"}, "app")
	assert.Error(t, err)
}
