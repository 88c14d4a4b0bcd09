package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// CalDAVSettings holds the connection parameters for the remote calendar backend.
type CalDAVSettings struct {
	// URL is the CalDAV server endpoint (principal discovery root).
	URL string `yaml:"url"`
	// Username and Password are HTTP Basic Auth credentials.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Calendar selects the target calendar by display name. Empty = first found.
	Calendar string `yaml:"calendar"`
}

// Settings is the persisted application configuration.
type Settings struct {
	// Email and Password are the laget.se credentials. Password may be left
	// empty in the file and supplied via environment or the OS keyring.
	Email    string `yaml:"email"`
	Password string `yaml:"password,omitempty"`

	// Output is the path of the generated iCalendar file.
	Output string `yaml:"output"`

	// IncludePractice keeps practice events (Träning) in the export.
	IncludePractice bool `yaml:"include_practice"`

	// Refresh is a cron expression for periodic re-sync. Empty disables the
	// scheduler and the process runs a single pass.
	Refresh string `yaml:"refresh,omitempty"`

	// Listen is the bind address of the calendar feed server (daemon mode).
	Listen string `yaml:"listen"`

	// CalDAV, if non-nil, enables synchronization to a CalDAV server.
	CalDAV *CalDAVSettings `yaml:"caldav,omitempty"`

	// LocalStore, if non-empty, enables synchronization into a local SQLite
	// event store at the given path.
	LocalStore string `yaml:"local_store,omitempty"`
}

// DefaultSettings returns the in-memory defaults used on first run.
func DefaultSettings() *Settings {
	return &Settings{
		Output: DefaultOutputFile,
		Listen: DefaultListenAddr,
	}
}

// Normalize fills in missing values so partially-filled files behave correctly.
func (s *Settings) Normalize() {
	if s.Output == "" {
		s.Output = DefaultOutputFile
	}
	if s.Listen == "" {
		s.Listen = DefaultListenAddr
	}
}

// DefaultSettingsPath returns the platform config file location
// (e.g. ~/.config/go-laget/config.yaml on Linux).
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, ConfigDirName, ConfigFileName), nil
}

// LoadSettings reads the YAML settings file. A missing file is not an error:
// defaults are returned so the caller can proceed with env/keyring credentials.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrConfigLoad + ": empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("%s: %w", ErrConfigLoad, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigLoad, err)
	}
	s.Normalize()
	return &s, nil
}

// SaveSettings writes the settings atomically (temp file + rename) with 0600
// permissions, since the file may contain credentials.
func SaveSettings(path string, s *Settings) error {
	if path == "" || s == nil {
		return errors.New(ErrConfigLoad + ": nothing to save")
	}
	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".go-laget-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ResolveCredentials determines the portal credentials with the precedence:
// explicit arguments (CLI flags), environment variables, the settings file,
// and finally the OS keyring for the password. A .env file in the working
// directory is honored for local development.
func (s *Settings) ResolveCredentials(flagEmail, flagPassword string) (string, string, error) {
	// .env is optional; ignore load errors.
	_ = godotenv.Load()

	email := flagEmail
	if email == "" {
		email = os.Getenv(EnvEmail)
	}
	if email == "" {
		email = s.Email
	}

	password := flagPassword
	if password == "" {
		password = os.Getenv(EnvPassword)
	}
	if password == "" {
		password = s.Password
	}
	if password == "" && email != "" {
		p, err := keyring.Get(KeyringService, email)
		if err != nil {
			slog.Debug(MsgKeyringMiss,
				LogKeyComponent, CompSettings,
				LogKeyUser, email,
			)
		} else {
			password = p
		}
	}

	if email == "" || password == "" {
		return "", "", errors.New(ErrCredsMissing)
	}
	return email, password, nil
}
