// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/devdose-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete devdose configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	API        APIConfig        `toml:"api" json:"api"`
	Typewriter TypewriterConfig `toml:"typewriter" json:"typewriter"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
	UI         UIConfig         `toml:"ui" json:"ui"`
	Log        LogConfig        `toml:"log" json:"log"`
}

// APIConfig selects and configures the text-generation backend.
type APIConfig struct {
	// Backend is one of "http", "genai" or "openai".
	Backend string `toml:"backend" json:"backend" env:"DEVDOSE_BACKEND"`

	// Endpoint, when set, is POSTed to verbatim by the http backend.
	// Otherwise the URL is built from BaseURL, Model and APIKey.
	Endpoint string `toml:"endpoint" json:"endpoint" env:"DEVDOSE_ENDPOINT"`

	APIKey  string `toml:"api_key" json:"api_key" env:"DEVDOSE_API_KEY"`
	Model   string `toml:"model" json:"model" env:"DEVDOSE_MODEL"`
	BaseURL string `toml:"base_url" json:"base_url" env:"DEVDOSE_BASE_URL"`

	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" env:"DEVDOSE_TIMEOUT_SECS"`

	// MaxRetries counts extra attempts after a 5xx or 429. Zero sends a
	// single request.
	MaxRetries int `toml:"max_retries" json:"max_retries" env:"DEVDOSE_MAX_RETRIES"`

	// RequestsPerMinute throttles outgoing requests; 0 disables the limit.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute" env:"DEVDOSE_REQUESTS_PER_MINUTE"`
}

// TypewriterConfig controls the reveal animation.
type TypewriterConfig struct {
	IntervalMs int `toml:"interval_ms" json:"interval_ms" env:"DEVDOSE_TYPING_INTERVAL_MS"`
}

// StorageConfig controls where chat history lives.
type StorageConfig struct {
	// Backend is "file" (one JSON document per key) or "sqlite".
	Backend string `toml:"backend" json:"backend" env:"DEVDOSE_STORAGE_BACKEND"`

	// Dir defaults to <config dir>/data.
	Dir string `toml:"dir" json:"dir" env:"DEVDOSE_STORAGE_DIR"`

	HistoryKey string `toml:"history_key" json:"history_key" env:"DEVDOSE_HISTORY_KEY"`

	// QuotaBytes caps a single stored value; 0 disables the cap.
	QuotaBytes int64 `toml:"quota_bytes" json:"quota_bytes" env:"DEVDOSE_QUOTA_BYTES"`

	// Watch reloads history written by another devdose process.
	Watch bool `toml:"watch" json:"watch" env:"DEVDOSE_STORAGE_WATCH"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	CopyFeedbackMs int `toml:"copy_feedback_ms" json:"copy_feedback_ms"`

	// ProseRenderer is "clean" (emoji cleanup only) or "glamour".
	ProseRenderer string `toml:"prose_renderer" json:"prose_renderer" env:"DEVDOSE_PROSE_RENDERER"`

	// CodeStyle names a chroma style; empty picks one from the terminal background.
	CodeStyle string `toml:"code_style" json:"code_style" env:"DEVDOSE_CODE_STYLE"`

	// ShowErrors surfaces request failures in the status bar.
	ShowErrors bool `toml:"show_errors" json:"show_errors" env:"DEVDOSE_SHOW_ERRORS"`

	SidebarOpen  bool `toml:"sidebar_open" json:"sidebar_open"`
	SidebarWidth int  `toml:"sidebar_width" json:"sidebar_width"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level string `toml:"level" json:"level" env:"DEVDOSE_LOG_LEVEL"`

	// File defaults to <config dir>/devdose.log.
	File       string `toml:"file" json:"file" env:"DEVDOSE_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Backend names.
const (
	BackendHTTP   = "http"
	BackendGenAI  = "genai"
	BackendOpenAI = "openai"
)

// Storage backend names.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			Backend:     BackendHTTP,
			Model:       "gemini-2.0-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			TimeoutSecs: 60,
		},
		Typewriter: TypewriterConfig{
			IntervalMs: 30,
		},
		Storage: StorageConfig{
			Backend:    StorageFile,
			HistoryKey: "chatSessions",
			QuotaBytes: 5 * 1024 * 1024,
			Watch:      true,
		},
		UI: UIConfig{
			CopyFeedbackMs: 2000,
			ProseRenderer:  "clean",
			SidebarOpen:    true,
			SidebarWidth:   32,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// TypingInterval returns the delay between revealed characters.
func (c *Config) TypingInterval() time.Duration {
	return time.Duration(c.Typewriter.IntervalMs) * time.Millisecond
}

// CopyFeedback returns how long the "Copied!" label stays up.
func (c *Config) CopyFeedback() time.Duration {
	return time.Duration(c.UI.CopyFeedbackMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the devdose configuration directory. DEVDOSE_HOME
// overrides the default of ~/.devdose.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DEVDOSE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".devdose"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir resolves the storage directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// LogPath resolves the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "devdose.log"), nil
}

// ensureSecurePermissions tightens the config file to 0600. It may hold an
// API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads .env from the working directory and then from the config
// directory. Variables already present in the environment win.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
		}
	}
}

// Load reads the config file (TOML first, then JSON), applies .env and
// environment overrides, and validates the result.
//
// A broken config file is not fatal: defaults are used and the decode error
// is returned alongside them.
func Load() (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	var loadErr error

	if path, ok := existingConfigFile(); ok {
		if err := loadFile(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s: %w", path, err)
			cfg = Default()
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func existingConfigFile() (string, bool) {
	for _, locate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := locate()
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func loadFile(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return LoadJSON(cfg, path)
	}
	return LoadTOML(cfg, path)
}

func finish(cfg *Config) error {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return err
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file on top of cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults replaces blanked-out values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.API.Backend == "" {
		cfg.API.Backend = defaults.API.Backend
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	if cfg.Typewriter.IntervalMs == 0 {
		cfg.Typewriter.IntervalMs = defaults.Typewriter.IntervalMs
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.HistoryKey == "" {
		cfg.Storage.HistoryKey = defaults.Storage.HistoryKey
	}

	if cfg.UI.ProseRenderer == "" {
		cfg.UI.ProseRenderer = defaults.UI.ProseRenderer
	}
	if cfg.UI.SidebarWidth == 0 {
		cfg.UI.SidebarWidth = defaults.UI.SidebarWidth
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# devdose configuration file\n")
	b.WriteString("# Environment variables (DEVDOSE_*) and .env files override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid field found by Validate.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks ranges and enumerations. It returns ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch c.API.Backend {
	case BackendHTTP, BackendGenAI, BackendOpenAI:
	default:
		add("api.backend", "must be one of http, genai, openai (got %q)", c.API.Backend)
	}
	if c.API.Endpoint != "" {
		if err := validateHTTPURL(c.API.Endpoint); err != nil {
			add("api.endpoint", "%v", err)
		}
	}
	if c.API.BaseURL != "" {
		if err := validateHTTPURL(c.API.BaseURL); err != nil {
			add("api.base_url", "%v", err)
		}
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		add("api.timeout_secs", "must be between 1 and 600 (got %d)", c.API.TimeoutSecs)
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > 10 {
		add("api.max_retries", "must be between 0 and 10 (got %d)", c.API.MaxRetries)
	}
	if c.API.RequestsPerMinute < 0 {
		add("api.requests_per_minute", "must not be negative (got %d)", c.API.RequestsPerMinute)
	}

	if c.Typewriter.IntervalMs < 1 || c.Typewriter.IntervalMs > 10000 {
		add("typewriter.interval_ms", "must be between 1 and 10000 (got %d)", c.Typewriter.IntervalMs)
	}

	switch c.Storage.Backend {
	case StorageFile, StorageSQLite:
	default:
		add("storage.backend", "must be file or sqlite (got %q)", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.HistoryKey) == "" {
		add("storage.history_key", "must not be empty")
	} else if strings.ContainsAny(c.Storage.HistoryKey, `/\`) {
		add("storage.history_key", "must not contain path separators")
	}
	if c.Storage.QuotaBytes < 0 {
		add("storage.quota_bytes", "must not be negative (got %d)", c.Storage.QuotaBytes)
	}

	if c.UI.CopyFeedbackMs < 0 {
		add("ui.copy_feedback_ms", "must not be negative (got %d)", c.UI.CopyFeedbackMs)
	}
	switch c.UI.ProseRenderer {
	case "clean", "glamour":
	default:
		add("ui.prose_renderer", "must be clean or glamour (got %q)", c.UI.ProseRenderer)
	}
	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 80 {
		add("ui.sidebar_width", "must be between 16 and 80 (got %d)", c.UI.SidebarWidth)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "unknown level %q", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 1 {
		add("log.max_size_mb", "must be at least 1 (got %d)", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		add("log.max_backups", "must not be negative (got %d)", c.Log.MaxBackups)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DEVDOSE_* variables declared in the struct tags.
// GEMINI_API_KEY fills the key when DEVDOSE_API_KEY is not set.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("environment override: %w", err)
	}
	if c.API.APIKey == "" {
		c.API.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns the value at a dotted key such as "api.model".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value given as text to a dotted key.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		name := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, name)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName turns snake_case or kebab-case into a Go field name.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// Keys lists every settable dotted key.
func Keys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		sectionName := strings.Split(section.Tag.Get("toml"), ",")[0]
		if section.Type.Kind() != reflect.Struct {
			keys = append(keys, sectionName)
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			name := strings.Split(section.Type.Field(j).Tag.Get("toml"), ",")[0]
			keys = append(keys, sectionName+"."+name)
		}
	}
	return keys
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.APIKey != "" {
		safe.API.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// Load failures fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the singleton between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
