package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  address: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, 0, cfg.Booking.GraceMinutes)
	assert.False(t, cfg.Booking.GraceStrict)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "RES", cfg.Booking.ReservationPrefix)
	assert.Equal(t, 60, cfg.Worker.SweepIntervalSeconds)
}

func TestParse_Booking(t *testing.T) {
	data := []byte(`
booking:
  grace_minutes: 90
  grace_strict: true
  timezone: Europe/Madrid
storage:
  driver: memory
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Booking.GraceMinutes)
	assert.True(t, cfg.Booking.GraceStrict)
	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
}

func TestParse_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "negative grace", data: "booking:\n  grace_minutes: -5\n"},
		{name: "unknown timezone", data: "booking:\n  timezone: Mars/Olympus\n"},
		{name: "unknown driver", data: "storage:\n  driver: mongo\n"},
		{name: "zero sweep interval", data: "worker:\n  sweep_interval_seconds: 0\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("GRACE_MINUTES", "45")
	t.Setenv("DATABASE_URL", "postgres://park@localhost/park")

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Booking.GraceMinutes)
	assert.Equal(t, "postgres://park@localhost/park", cfg.Database.DSN())
}

func TestParse_InvalidEnvGrace(t *testing.T) {
	t.Setenv("GRACE_MINUTES", "soon")

	_, err := Parse([]byte("{}"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("booking:\n  grace_minutes: 30\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Booking.GraceMinutes)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
