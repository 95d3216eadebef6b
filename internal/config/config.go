package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/search"
)

// ProjectConfigName is the per-directory config file.
const ProjectConfigName = ".lexdebate.yaml"

// Config represents the complete lexdebate configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Corpus     CorpusConfig     `yaml:"corpus" json:"corpus"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Debate     DebateConfig     `yaml:"debate" json:"debate"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// SearchConfig configures ranking.
type SearchConfig struct {
	Weights           search.Weights       `yaml:"weights" json:"weights"`
	CaseTypeBonus     float64              `yaml:"case_type_bonus" json:"case_type_bonus"`
	JurisdictionBonus float64              `yaml:"jurisdiction_bonus" json:"jurisdiction_bonus"`
	BM25              search.LexicalConfig `yaml:"bm25" json:"bm25"`
	DefaultK          int                  `yaml:"default_k" json:"default_k"`
	MaxK              int                  `yaml:"max_k" json:"max_k"`
}

// EmbeddingsConfig selects the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env" json:"api_key_env"`
	Timeout    string `yaml:"timeout" json:"timeout"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
}

// CorpusConfig locates the case corpus. An empty path uses the built-in sample.
type CorpusConfig struct {
	Path     string `yaml:"path" json:"path"`
	Watch    bool   `yaml:"watch" json:"watch"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// ServerConfig configures the HTTP server and session store.
type ServerConfig struct {
	Addr         string `yaml:"addr" json:"addr"`
	Mode         string `yaml:"mode" json:"mode"`
	SessionTTL   string `yaml:"session_ttl" json:"session_ttl"`
	MaxSessions  int    `yaml:"max_sessions" json:"max_sessions"`
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`
}

// DebateConfig configures argument generation.
type DebateConfig struct {
	CallTimeout string `yaml:"call_timeout" json:"call_timeout"`
	Workers     int    `yaml:"workers" json:"workers"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64 `yaml:"seed" json:"seed"`
}

// TelemetryConfig configures the search history store.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DBPath  string `yaml:"db_path" json:"db_path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	rc := search.DefaultConfig()
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Weights:           rc.Weights,
			CaseTypeBonus:     rc.CaseTypeBonus,
			JurisdictionBonus: rc.JurisdictionBonus,
			BM25:              rc.Lexical,
			DefaultK:          3,
			MaxK:              50,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "text-embedding-3-small",
			Dimensions: 256,
			APIKeyEnv:  "OPENAI_API_KEY",
			Timeout:    "30s",
			MaxRetries: 2,
			CacheSize:  1000,
			BatchSize:  64,
		},
		Corpus: CorpusConfig{
			Debounce: "500ms",
		},
		Server: ServerConfig{
			Addr:        ":8000",
			Mode:        "release",
			SessionTTL:  "1h",
			MaxSessions: 1000,
		},
		Debate: DebateConfig{
			CallTimeout: "120s",
			Workers:     5,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			DBPath:  filepath.Join(dataDir(), "telemetry.db"),
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// dataDir is ~/.lexdebate, or a temp directory when home is unknown.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".lexdebate")
	}
	return filepath.Join(home, ".lexdebate")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/lexdebate/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/lexdebate/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lexdebate", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "lexdebate", "config.yaml")
	}
	return filepath.Join(home, ".config", "lexdebate", "config.yaml")
}

// Load loads configuration for the given directory, in order of
// increasing precedence:
//  1. Defaults
//  2. User config (~/.config/lexdebate/config.yaml)
//  3. Project config (.lexdebate.yaml in dir)
//  4. Environment variables (LEXDEBATE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadYAML(GetUserConfigPath(), true); err != nil {
		return nil, err
	}
	if err := cfg.loadProject(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults overlaid with a single explicit file, then env.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path, false); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadProject loads .lexdebate.yaml, falling back to .lexdebate.yml.
func (c *Config) loadProject(dir string) error {
	path := filepath.Join(dir, ProjectConfigName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = strings.TrimSuffix(path, ".yaml") + ".yml"
	}
	return c.loadYAML(path, true)
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current value. A missing file is an error unless optional is set.
func (c *Config) loadYAML(path string, optional bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && optional {
		return nil
	}
	if err != nil {
		return fileError("failed to read config file", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return lexerr.ConfigError("failed to parse config file", err).
			WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies LEXDEBATE_* variables. Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	floats := []struct {
		env string
		dst *float64
	}{
		{"LEXDEBATE_WEIGHT_LEXICAL", &c.Search.Weights.Lexical},
		{"LEXDEBATE_WEIGHT_SEMANTIC", &c.Search.Weights.Semantic},
		{"LEXDEBATE_WEIGHT_METADATA", &c.Search.Weights.Metadata},
	}
	for _, f := range floats {
		if v := os.Getenv(f.env); v != "" {
			if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w >= 0 {
				*f.dst = w
			}
		}
	}

	if v := os.Getenv("LEXDEBATE_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("LEXDEBATE_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("LEXDEBATE_EMBED_DIMENSIONS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			c.Embeddings.Dimensions = d
		}
	}
	if v := os.Getenv("LEXDEBATE_EMBED_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("LEXDEBATE_CORPUS"); v != "" {
		c.Corpus.Path = v
	}
	if v := os.Getenv("LEXDEBATE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LEXDEBATE_LLM_TIMEOUT"); v != "" {
		// Bare numbers are seconds.
		if _, err := strconv.Atoi(v); err == nil {
			v += "s"
		}
		c.Debate.CallTimeout = v
	}
	if v := os.Getenv("LEXDEBATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LEXDEBATE_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Search.Weights.Validate(); err != nil {
		return lexerr.ConfigError("invalid search.weights", err)
	}
	if c.Search.CaseTypeBonus < 0 || c.Search.JurisdictionBonus < 0 {
		return lexerr.ConfigError("metadata bonuses must be non-negative", nil)
	}
	if c.Search.BM25.K1 < 0 || c.Search.BM25.B < 0 || c.Search.BM25.B > 1 {
		return lexerr.ConfigError(fmt.Sprintf("bm25 requires k1 >= 0 and 0 <= b <= 1, got k1=%v b=%v", c.Search.BM25.K1, c.Search.BM25.B), nil)
	}
	if c.Search.DefaultK <= 0 {
		return lexerr.ConfigError(fmt.Sprintf("search.default_k must be positive, got %d", c.Search.DefaultK), nil)
	}
	if c.Search.MaxK < c.Search.DefaultK {
		return lexerr.ConfigError(fmt.Sprintf("search.max_k (%d) must be >= default_k (%d)", c.Search.MaxK, c.Search.DefaultK), nil)
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case "static", "openai":
	default:
		return lexerr.ConfigError(fmt.Sprintf("embeddings.provider must be 'static' or 'openai', got %q", c.Embeddings.Provider), nil)
	}
	if c.Embeddings.Dimensions < 0 {
		return lexerr.ConfigError("embeddings.dimensions must be non-negative", nil)
	}

	durations := []struct{ name, value string }{
		{"embeddings.timeout", c.Embeddings.Timeout},
		{"corpus.debounce", c.Corpus.Debounce},
		{"server.session_ttl", c.Server.SessionTTL},
		{"debate.call_timeout", c.Debate.CallTimeout},
	}
	for _, d := range durations {
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return lexerr.ConfigError(fmt.Sprintf("%s must be a positive duration, got %q", d.name, d.value), err)
		}
	}

	switch strings.ToLower(c.Server.Mode) {
	case "release", "debug", "test":
	default:
		return lexerr.ConfigError(fmt.Sprintf("server.mode must be 'release', 'debug' or 'test', got %q", c.Server.Mode), nil)
	}
	if c.Server.MaxSessions <= 0 {
		return lexerr.ConfigError("server.max_sessions must be positive", nil)
	}
	if c.Debate.Workers <= 0 {
		return lexerr.ConfigError("debate.workers must be positive", nil)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return lexerr.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level), nil)
	}

	return nil
}

// RetrieverConfig maps the search section to the retriever's config.
func (s SearchConfig) RetrieverConfig() search.Config {
	return search.Config{
		Weights:           s.Weights,
		CaseTypeBonus:     s.CaseTypeBonus,
		JurisdictionBonus: s.JurisdictionBonus,
		Lexical:           s.BM25,
	}
}

// APIKey reads the embeddings API key from the configured variable.
func (e EmbeddingsConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// TimeoutDuration parses Timeout. Validate guarantees it parses.
func (e EmbeddingsConfig) TimeoutDuration() time.Duration {
	return mustDuration(e.Timeout)
}

// DebounceDuration parses Debounce.
func (c CorpusConfig) DebounceDuration() time.Duration {
	return mustDuration(c.Debounce)
}

// SessionTTLDuration parses SessionTTL.
func (s ServerConfig) SessionTTLDuration() time.Duration {
	return mustDuration(s.SessionTTL)
}

// CallTimeoutDuration parses CallTimeout.
func (d DebateConfig) CallTimeoutDuration() time.Duration {
	return mustDuration(d.CallTimeout)
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fileError("failed to write config file", path, err)
	}
	return nil
}

// fileError classifies a config file access error as permission or not found.
func fileError(msg, path string, err error) error {
	code := lexerr.ErrCodeConfigNotFound
	if errors.Is(err, fs.ErrPermission) {
		code = lexerr.ErrCodeConfigPermission
	}
	return lexerr.New(code, msg, err).WithDetail("path", path)
}

// YAML renders the configuration.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}
