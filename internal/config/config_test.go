package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOTEL_TEST_SECRET", "s3cret")
	path := writeFile(t, dir, "config.yaml", `
storage:
  driver: json
  path: `+filepath.Join(dir, "data", "hotel.json")+`
auth:
  jwt_secret: ${HOTEL_TEST_SECRET}
  admin_password_hash: bcrypt-hash
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "admin", cfg.Auth.AdminUser)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout())
	assert.Equal(t, "@daily", cfg.Backup.Schedule)
	assert.Equal(t, 10, cfg.RateLimit.Burst)

	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown driver",
			body:    "storage:\n  driver: mongo\nauth:\n  jwt_secret: x\n  admin_password_hash: y\n",
			wantErr: `unknown storage driver "mongo"`,
		},
		{
			name:    "redis without address",
			body:    "storage:\n  driver: redis\nauth:\n  jwt_secret: x\n  admin_password_hash: y\n",
			wantErr: `storage driver "redis" requires redis.address`,
		},
		{
			name:    "missing secret",
			body:    "storage:\n  driver: sqlite\n  path: " + filepath.Join(dir, "h.db") + "\n",
			wantErr: "auth.jwt_secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config.yaml", tt.body)
			_, err := Load(path)
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRoomsSeed(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "rooms.yaml", `
rooms:
  - number: "101"
    type: Single
    price: 150
  - number: "201"
    type: Suite
    price: 420.5
    in_service: false
`)
	seed, err := LoadRoomsSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Rooms, 2)
	assert.Nil(t, seed.Rooms[0].InService)
	require.NotNil(t, seed.Rooms[1].InService)
	assert.False(t, *seed.Rooms[1].InService)

	dup := writeFile(t, dir, "dup.yaml", "rooms:\n  - number: \"1\"\n  - number: \"1\"\n")
	_, err = LoadRoomsSeed(dup)
	assert.EqualError(t, err, "duplicate room number: 1")

	blank := writeFile(t, dir, "blank.yaml", "rooms:\n  - type: Single\n")
	_, err = LoadRoomsSeed(blank)
	assert.EqualError(t, err, "room #1: number is required")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	body := func(burst string) string {
		return "storage:\n  driver: json\n  path: " + filepath.Join(dir, "h.json") +
			"\nauth:\n  jwt_secret: x\n  admin_password_hash: y\nrate_limit:\n  burst: " + burst + "\n"
	}
	path := writeFile(t, dir, "config.yaml", body("5"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan *Config, 1)
	require.NoError(t, Watch(ctx, path, 10*time.Millisecond, func(c *Config) { updates <- c }))

	writeFile(t, dir, "config.yaml", body("42"))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case cfg := <-updates:
		assert.Equal(t, 42, cfg.RateLimit.Burst)
	case <-time.After(2 * time.Second):
		t.Fatal("config change not picked up")
	}
}
