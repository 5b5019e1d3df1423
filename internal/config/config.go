package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the pdfsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Ingest    IngestConfig    `yaml:"ingest"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds credential settings. At least one of APIKeys or JWTSecret is required.
type AuthConfig struct {
	APIKeys   []string `yaml:"api_keys"`
	JWTSecret string   `yaml:"jwt_secret"`
	JWTIssuer string   `yaml:"jwt_issuer"`
	JWTTTLSec int      `yaml:"jwt_ttl_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds search engine / counter store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds index schema and query shaping settings.
type SearchConfig struct {
	IndexName        string  `yaml:"index_name"`
	KeyPrefix        string  `yaml:"key_prefix"`
	VectorDim        int     `yaml:"vector_dim"`
	VectorAlgorithm  string  `yaml:"vector_algorithm"` // hnsw, flat
	HNSWM            int     `yaml:"hnsw_m"`
	HNSWEFConstruct  int     `yaml:"hnsw_ef_construction"`
	DefaultK         int     `yaml:"default_k"`
	MaxK             int     `yaml:"max_k"`
	VectorCandidates int     `yaml:"vector_candidates"`
	Fusion           string  `yaml:"fusion"` // weighted, rrf
	VectorWeight     float64 `yaml:"vector_weight"`
	TimeoutSec       int     `yaml:"timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, placeholder
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	Cache               bool   `yaml:"cache"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// RateLimitConfig holds token bucket settings.
type RateLimitConfig struct {
	Driver     string  `yaml:"driver"` // redis, memory
	RefillRate float64 `yaml:"refill_rate"`
	Capacity   float64 `yaml:"capacity"`
	IdleTTLSec int     `yaml:"idle_ttl_sec"`
	TimeoutMS  int     `yaml:"timeout_ms"`
}

// IngestConfig holds bulk ingestion settings.
type IngestConfig struct {
	BatchSize         int `yaml:"batch_size"`
	Workers           int `yaml:"workers"`
	MaxRetries        int `yaml:"max_retries"`
	RetryBaseDelayMS  int `yaml:"retry_base_delay_ms"`
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// CORSConfig holds browser origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Embedding providers.
const (
	ProviderOpenAI      = "openai"
	ProviderPlaceholder = "placeholder"
)

// LoadDotEnv preloads variables from .env files when present. Existing
// environment variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if fileExists(f) {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	c.Search.applyDefaults()
	c.Embedding.applyDefaults(c.Search.VectorDim)
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = "pdf-search"
	}
	if c.Auth.JWTTTLSec <= 0 {
		c.Auth.JWTTTLSec = 3600
	}
	c.RateLimit.applyDefaults()
	c.Ingest.applyDefaults()
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
}

func (s *SearchConfig) applyDefaults() {
	if s.IndexName == "" {
		s.IndexName = "pdf_search"
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "pdfsearch:"
	}
	if s.VectorDim <= 0 {
		s.VectorDim = 384
	}
	if s.VectorAlgorithm == "" {
		s.VectorAlgorithm = "hnsw"
	}
	if s.HNSWM <= 0 {
		s.HNSWM = 16
	}
	if s.HNSWEFConstruct <= 0 {
		s.HNSWEFConstruct = 200
	}
	if s.DefaultK <= 0 {
		s.DefaultK = 10
	}
	if s.MaxK <= 0 {
		s.MaxK = 100
	}
	if s.VectorCandidates <= 0 {
		s.VectorCandidates = 50
	}
	if s.Fusion == "" {
		s.Fusion = "weighted"
	}
	if s.VectorWeight == 0 {
		s.VectorWeight = 0.5
	}
	if s.TimeoutSec <= 0 {
		s.TimeoutSec = 30
	}
}

func (e *EmbeddingConfig) applyDefaults(vectorDim int) {
	if e.Provider == "" {
		e.Provider = ProviderPlaceholder
	}
	if e.Dimensions <= 0 {
		e.Dimensions = vectorDim
	}
	if e.CacheTTLSec <= 0 {
		e.CacheTTLSec = 86400
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 10
	}
}

func (r *RateLimitConfig) applyDefaults() {
	if r.Driver == "" {
		r.Driver = "redis"
	}
	if r.RefillRate <= 0 {
		r.RefillRate = 10
	}
	if r.Capacity <= 0 {
		r.Capacity = 20
	}
	if r.IdleTTLSec <= 0 {
		r.IdleTTLSec = 60
	}
	if r.TimeoutMS <= 0 {
		r.TimeoutMS = 250
	}
}

func (i *IngestConfig) applyDefaults() {
	if i.BatchSize <= 0 {
		i.BatchSize = 256
	}
	if i.Workers <= 0 {
		i.Workers = max(runtime.NumCPU()/2, 1)
	}
	if i.MaxRetries <= 0 {
		i.MaxRetries = 3
	}
	if i.RetryBaseDelayMS <= 0 {
		i.RetryBaseDelayMS = 200
	}
	if i.RequestTimeoutSec <= 0 {
		i.RequestTimeoutSec = 120
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	switch c.Search.Fusion {
	case "weighted", "rrf":
	default:
		return fmt.Errorf("search.fusion must be \"weighted\" or \"rrf\", got %q", c.Search.Fusion)
	}
	switch c.Search.VectorAlgorithm {
	case "hnsw", "flat":
	default:
		return fmt.Errorf("search.vector_algorithm must be \"hnsw\" or \"flat\", got %q", c.Search.VectorAlgorithm)
	}
	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 {
		return fmt.Errorf("search.vector_weight must be in [0,1], got %v", c.Search.VectorWeight)
	}
	switch c.Embedding.Provider {
	case ProviderPlaceholder:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return errors.New("embedding.model is required for the openai provider")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"placeholder\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions != c.Search.VectorDim {
		return fmt.Errorf("embedding.dimensions (%d) must match search.vector_dim (%d)",
			c.Embedding.Dimensions, c.Search.VectorDim)
	}
	if !c.Auth.hasCredentials() {
		return errors.New("auth.api_keys or auth.jwt_secret is required")
	}
	switch c.RateLimit.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("rate_limit.driver must be \"redis\" or \"memory\", got %q", c.RateLimit.Driver)
	}
	if c.RateLimit.Capacity < 1 {
		return fmt.Errorf("rate_limit.capacity must be at least 1, got %v", c.RateLimit.Capacity)
	}
	return nil
}

func (a *AuthConfig) hasCredentials() bool {
	if a.JWTSecret != "" {
		return true
	}
	for _, k := range a.APIKeys {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}

// Duration helpers.

func (d DatabaseConfig) ReadyTimeout() time.Duration {
	return time.Duration(d.ReadinessTimeout) * time.Second
}
func (h HTTPConfig) ReadTimeout() time.Duration     { return time.Duration(h.ReadTimeoutSec) * time.Second }
func (h HTTPConfig) WriteTimeout() time.Duration    { return time.Duration(h.WriteTimeoutSec) * time.Second }
func (h HTTPConfig) ShutdownTimeout() time.Duration { return time.Duration(h.ShutdownSec) * time.Second }
func (s SearchConfig) Timeout() time.Duration       { return time.Duration(s.TimeoutSec) * time.Second }
func (e EmbeddingConfig) Timeout() time.Duration    { return time.Duration(e.TimeoutSec) * time.Second }
func (e EmbeddingConfig) CacheTTL() time.Duration   { return time.Duration(e.CacheTTLSec) * time.Second }
func (a AuthConfig) JWTTTL() time.Duration          { return time.Duration(a.JWTTTLSec) * time.Second }
func (r RateLimitConfig) IdleTTL() time.Duration    { return time.Duration(r.IdleTTLSec) * time.Second }
func (r RateLimitConfig) Timeout() time.Duration    { return time.Duration(r.TimeoutMS) * time.Millisecond }
func (i IngestConfig) RetryBaseDelay() time.Duration {
	return time.Duration(i.RetryBaseDelayMS) * time.Millisecond
}
func (i IngestConfig) RequestTimeout() time.Duration {
	return time.Duration(i.RequestTimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
