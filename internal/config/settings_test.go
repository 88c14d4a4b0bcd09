package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-laget/internal/config"
)

func TestLoadSettings_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutputFile, s.Output)
	assert.Equal(t, config.DefaultListenAddr, s.Listen)
	assert.Nil(t, s.CalDAV)
}

func TestLoadSettings_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: user@example.com\n"), 0o600))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", s.Email)
	assert.Equal(t, config.DefaultOutputFile, s.Output, "missing fields fall back to defaults")
}

func TestLoadSettings_FullFile(t *testing.T) {
	content := `email: user@example.com
output: /tmp/laget.ics
include_practice: true
refresh: "0 */6 * * *"
listen: "0.0.0.0:8080"
caldav:
  url: https://dav.example.com
  username: dav-user
  password: dav-pass
  calendar: Familjen
local_store: /tmp/laget.db
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/laget.ics", s.Output)
	assert.True(t, s.IncludePractice)
	assert.Equal(t, "0 */6 * * *", s.Refresh)
	assert.Equal(t, "0.0.0.0:8080", s.Listen)
	require.NotNil(t, s.CalDAV)
	assert.Equal(t, "https://dav.example.com", s.CalDAV.URL)
	assert.Equal(t, "Familjen", s.CalDAV.Calendar)
	assert.Equal(t, "/tmp/laget.db", s.LocalStore)
}

func TestLoadSettings_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: [unclosed"), 0o600))

	_, err := config.LoadSettings(path)
	assert.Error(t, err)
}

func TestSaveSettings_RoundTripWithRestrictivePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := &config.Settings{
		Email:      "user@example.com",
		Output:     "/tmp/laget.ics",
		LocalStore: "/tmp/laget.db",
	}
	require.NoError(t, config.SaveSettings(path, original))

	// The file may contain credentials and must stay user-only.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, original.Email, loaded.Email)
	assert.Equal(t, original.Output, loaded.Output)
	assert.Equal(t, original.LocalStore, loaded.LocalStore)
}

func TestResolveCredentials_Precedence(t *testing.T) {
	s := &config.Settings{Email: "file@example.com", Password: "file-pass"}

	// Flags beat everything.
	t.Setenv(config.EnvEmail, "env@example.com")
	t.Setenv(config.EnvPassword, "env-pass")
	email, password, err := s.ResolveCredentials("flag@example.com", "flag-pass")
	require.NoError(t, err)
	assert.Equal(t, "flag@example.com", email)
	assert.Equal(t, "flag-pass", password)

	// Environment beats the settings file.
	email, password, err = s.ResolveCredentials("", "")
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", email)
	assert.Equal(t, "env-pass", password)

	// The settings file is the last non-interactive source.
	t.Setenv(config.EnvEmail, "")
	t.Setenv(config.EnvPassword, "")
	email, password, err = s.ResolveCredentials("", "")
	require.NoError(t, err)
	assert.Equal(t, "file@example.com", email)
	assert.Equal(t, "file-pass", password)
}

func TestResolveCredentials_MissingEmail(t *testing.T) {
	t.Setenv(config.EnvEmail, "")
	t.Setenv(config.EnvPassword, "")
	s := &config.Settings{}

	_, _, err := s.ResolveCredentials("", "")
	assert.Error(t, err)
}
