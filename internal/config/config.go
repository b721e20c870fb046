// Package config loads user settings from
// $XDG_CONFIG_HOME/go-extract/config.yaml and EXTRACT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys, as written in config.yaml and accepted by "config set".
const (
	KeyOutputDir      = "output-dir"
	KeyBackend        = "backend"
	KeyModel          = "model"
	KeySegmentSeconds = "segment-seconds"
	KeyPacing         = "pacing"
	KeyMaxRetries     = "max-retries"
	KeyTikaURL        = "tika-url"
	KeyOCRLanguages   = "ocr-languages"
	KeyHistory        = "history"
)

// Keys lists every supported key in display order.
var Keys = []string{
	KeyOutputDir, KeyBackend, KeyModel, KeySegmentSeconds, KeyPacing,
	KeyMaxRetries, KeyTikaURL, KeyOCRLanguages, KeyHistory,
}

// EnvPrefix prefixes environment overrides: output-dir is EXTRACT_OUTPUT_DIR.
const EnvPrefix = "EXTRACT"

// Speech backends.
const (
	BackendSarvam = "sarvam"
	BackendOpenAI = "openai"
)

// HistoryOff disables the extraction history.
const HistoryOff = "off"

// Defaults.
const (
	DefaultOutputDir      = "extracts"
	DefaultBackend        = BackendSarvam
	DefaultSegmentSeconds = 30.0
	DefaultPacing         = time.Second
	DefaultMaxRetries     = 2
	DefaultOCRLanguages   = "eng+ben+hin+tam+tel+kan+mal"
)

// ErrInvalidValue indicates a config value that fails validation.
var ErrInvalidValue = errors.New("invalid config value")

// ErrUnknownKey indicates a key that is not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the effective settings. Credentials are not part of it:
// they are read from the environment only.
type Config struct {
	OutputDir      string
	Backend        string
	Model          string // Empty means the backend's default.
	SegmentSeconds float64
	Pacing         time.Duration
	MaxRetries     int
	TikaURL        string // Empty disables the Tika OCR fallback.
	OCRLanguages   string
	HistoryPath    string // HistoryOff disables history.
}

// HistoryEnabled reports whether extractions are recorded.
func (c Config) HistoryEnabled() bool {
	return c.HistoryPath != "" && c.HistoryPath != HistoryOff
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-extract.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-extract"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-extract"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// newViper returns an instance with defaults and environment overrides.
func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyOutputDir, DefaultOutputDir)
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeySegmentSeconds, DefaultSegmentSeconds)
	v.SetDefault(KeyPacing, DefaultPacing)
	v.SetDefault(KeyMaxRetries, DefaultMaxRetries)
	v.SetDefault(KeyTikaURL, "")
	v.SetDefault(KeyOCRLanguages, DefaultOCRLanguages)
	v.SetDefault(KeyHistory, filepath.Join(configDir, "history.db"))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// load reads the config file into an instance carrying defaults and env.
// A missing file is not an error.
func load() (*viper.Viper, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	v := newViper(filepath.Dir(p))
	v.SetConfigFile(p)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// Load returns the effective configuration.
// Precedence: environment, then config file, then defaults.
func Load() (Config, error) {
	v, err := load()
	if err != nil {
		return Config{}, err
	}

	for _, key := range Keys {
		if err := Validate(key, v.GetString(key)); err != nil {
			return Config{}, err
		}
	}

	return Config{
		OutputDir:      ExpandPath(v.GetString(KeyOutputDir)),
		Backend:        strings.ToLower(v.GetString(KeyBackend)),
		Model:          v.GetString(KeyModel),
		SegmentSeconds: v.GetFloat64(KeySegmentSeconds),
		Pacing:         v.GetDuration(KeyPacing),
		MaxRetries:     v.GetInt(KeyMaxRetries),
		TikaURL:        v.GetString(KeyTikaURL),
		OCRLanguages:   v.GetString(KeyOCRLanguages),
		HistoryPath:    ExpandPath(v.GetString(KeyHistory)),
	}, nil
}

// Validate checks a raw value for key.
func Validate(key, value string) error {
	invalid := func(reason string) error {
		return fmt.Errorf("%w: %s=%q: %s", ErrInvalidValue, key, value, reason)
	}

	switch key {
	case KeyOutputDir, KeyHistory, KeyOCRLanguages:
		if strings.TrimSpace(value) == "" {
			return invalid("cannot be empty")
		}
	case KeyBackend:
		if !slices.Contains([]string{BackendSarvam, BackendOpenAI}, strings.ToLower(value)) {
			return invalid("must be sarvam or openai")
		}
	case KeySegmentSeconds:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return invalid("must be a positive number of seconds")
		}
	case KeyPacing:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return invalid("must be a duration such as 1s or 500ms")
		}
	case KeyMaxRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalid("must be a non-negative integer")
		}
	case KeyModel, KeyTikaURL:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// Save writes a single key to the config file, keeping the others.
// Defaults and environment values are not persisted.
func Save(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(p)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	v.Set(key, value)
	if err := v.WriteConfigAs(p); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get returns the effective value of key.
func Get(key string) (string, error) {
	if !slices.Contains(Keys, key) {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v, err := load()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// List returns the effective value of every key.
func List() (map[string]string, error) {
	v, err := load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(Keys))
	for _, key := range Keys {
		out[key] = v.GetString(key)
	}
	return out, nil
}

// ValidOutputDir checks if a directory path is valid for use as output-dir,
// creating it when missing.
func ValidOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0o750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	f, err := os.CreateTemp(d, ".go-extract-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
