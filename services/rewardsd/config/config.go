package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen     = ":50061"
	defaultHTTPListen = ":8061"
	defaultPrograms   = "services/rewardsd/programs.toml"
	defaultSampling   = 1.0
)

// Config captures the runtime settings for the rewards daemon.
type Config struct {
	Environment     string          `yaml:"environment"`
	ListenAddress   string          `yaml:"listen"`
	HTTPAddress     string          `yaml:"http_listen"`
	ProgramsPath    string          `yaml:"programs"`
	ClaimsPerMinute int             `yaml:"claims_per_minute"`
	Storage         StorageConfig   `yaml:"storage"`
	Receipts        ReceiptsConfig  `yaml:"receipts"`
	TLS             TLSConfig       `yaml:"tls"`
	Auth            AuthConfig      `yaml:"auth"`
	Log             LogConfig       `yaml:"log"`
	Telemetry       TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig selects the key-value backend holding engine state.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// ReceiptsConfig enables the SQL claim receipt log. An empty driver disables it.
type ReceiptsConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// TLSConfig describes the TLS material for the gRPC server.
type TLSConfig struct {
	CertPath      string `yaml:"cert"`
	KeyPath       string `yaml:"key"`
	ClientCAPath  string `yaml:"client_ca"`
	AllowInsecure bool   `yaml:"allow_insecure"`
}

// AuthConfig lists the authenticators accepted by the service.
type AuthConfig struct {
	APITokens []string       `yaml:"api_tokens"`
	JWT       JWTConfig      `yaml:"jwt"`
	MTLS      MTLSAuthConfig `yaml:"mtls"`
}

// JWTConfig configures HMAC bearer tokens carrying the caller address.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// MTLSAuthConfig enumerates the allowed client certificate identities.
type MTLSAuthConfig struct {
	AllowedCommonNames []string `yaml:"allowed_common_names"`
}

// LogConfig controls log level and optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TelemetryConfig points the OTLP/HTTP exporters at a collector. Without an
// endpoint spans and metrics stay in process.
type TelemetryConfig struct {
	Endpoint       string            `yaml:"endpoint"`
	Insecure       bool              `yaml:"insecure"`
	Headers        map[string]string `yaml:"headers"`
	SampleRatio    float64           `yaml:"sample_ratio"`
	DisableTraces  bool              `yaml:"disable_traces"`
	DisableMetrics bool              `yaml:"disable_metrics"`
}

// Load reads the YAML configuration from disk, applies REWARDSD_* environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{ListenAddress: defaultListen}
	if path == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"REWARDSD_ENV":           &cfg.Environment,
		"REWARDSD_OTLP_ENDPOINT": &cfg.Telemetry.Endpoint,
		"REWARDSD_LISTEN":        &cfg.ListenAddress,
		"REWARDSD_HTTP_LISTEN":   &cfg.HTTPAddress,
		"REWARDSD_PROGRAMS":      &cfg.ProgramsPath,
		"REWARDSD_STORAGE_PATH":  &cfg.Storage.Path,
		"REWARDSD_RECEIPTS_DSN":  &cfg.Receipts.DSN,
		"REWARDSD_JWT_SECRET":    &cfg.Auth.JWT.Secret,
		"REWARDSD_LOG_LEVEL":     &cfg.Log.Level,
	}
	for key, target := range strs {
		if value, ok := lookup(key); ok {
			*target = value
		}
	}
	if value, ok := lookup("REWARDSD_API_TOKENS"); ok {
		cfg.Auth.APITokens = strings.Split(value, ",")
	}
	if value, ok := lookup("REWARDSD_CLAIMS_PER_MINUTE"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("REWARDSD_CLAIMS_PER_MINUTE: %w", err)
		}
		cfg.ClaimsPerMinute = parsed
	}
	if value, ok := lookup("REWARDSD_OTLP_INSECURE"); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("REWARDSD_OTLP_INSECURE: %w", err)
		}
		cfg.Telemetry.Insecure = parsed
	}
	if value, ok := lookup("REWARDSD_OTLP_HEADERS"); ok {
		cfg.Telemetry.Headers = parseHeaders(value)
	}
	return nil
}

// parseHeaders reads a comma-separated key=value list. Malformed pairs are
// skipped.
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListen
	}
	cfg.HTTPAddress = strings.TrimSpace(cfg.HTTPAddress)
	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = defaultHTTPListen
	}
	cfg.ProgramsPath = strings.TrimSpace(cfg.ProgramsPath)
	if cfg.ProgramsPath == "" {
		cfg.ProgramsPath = defaultPrograms
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "leveldb"
	}
	cfg.Storage.Path = strings.TrimSpace(cfg.Storage.Path)
	cfg.Receipts.Driver = strings.ToLower(strings.TrimSpace(cfg.Receipts.Driver))
	cfg.Receipts.DSN = strings.TrimSpace(cfg.Receipts.DSN)
	cfg.TLS.normalize()
	cfg.Auth.normalize()
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.Telemetry.Endpoint = strings.TrimSpace(cfg.Telemetry.Endpoint)
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = defaultSampling
	}
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	switch cfg.Storage.Driver {
	case "memory":
	case "leveldb", "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage: path required for %s", cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage: unsupported driver %q", cfg.Storage.Driver)
	}
	switch cfg.Receipts.Driver {
	case "":
	case "sqlite", "postgres":
		if cfg.Receipts.DSN == "" {
			return fmt.Errorf("receipts: dsn required for %s", cfg.Receipts.Driver)
		}
	default:
		return fmt.Errorf("receipts: unsupported driver %q", cfg.Receipts.Driver)
	}
	if cfg.ClaimsPerMinute < 0 {
		return fmt.Errorf("claims_per_minute must not be negative")
	}
	if ratio := cfg.Telemetry.SampleRatio; ratio < 0 || ratio > 1 {
		return fmt.Errorf("telemetry: sample_ratio must be within (0, 1], got %v", ratio)
	}
	if err := cfg.TLS.validate(); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if err := cfg.Auth.validate(cfg.TLS); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func (cfg *TLSConfig) normalize() {
	if cfg == nil {
		return
	}
	cfg.CertPath = strings.TrimSpace(cfg.CertPath)
	cfg.KeyPath = strings.TrimSpace(cfg.KeyPath)
	cfg.ClientCAPath = strings.TrimSpace(cfg.ClientCAPath)
}

func (cfg TLSConfig) validate() error {
	hasCert := cfg.CertPath != ""
	hasKey := cfg.KeyPath != ""
	if hasCert != hasKey {
		return fmt.Errorf("cert and key must either both be provided or both be empty")
	}
	if !cfg.AllowInsecure && !hasCert {
		return fmt.Errorf("cert and key are required unless allow_insecure=true")
	}
	if cfg.ClientCAPath != "" && !hasCert {
		return fmt.Errorf("client_ca requires a server certificate and key")
	}
	return nil
}

// Enabled reports whether any exporter should be started.
func (cfg TelemetryConfig) Enabled() bool {
	return cfg.Endpoint != "" && (!cfg.DisableTraces || !cfg.DisableMetrics)
}

// MTLSEnabled reports whether mutual TLS verification is configured.
func (cfg TLSConfig) MTLSEnabled() bool {
	return strings.TrimSpace(cfg.ClientCAPath) != ""
}

func (cfg *AuthConfig) normalize() {
	if cfg == nil {
		return
	}
	tokens := make([]string, 0, len(cfg.APITokens))
	for _, token := range cfg.APITokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	cfg.APITokens = tokens

	names := make([]string, 0, len(cfg.MTLS.AllowedCommonNames))
	for _, name := range cfg.MTLS.AllowedCommonNames {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	cfg.MTLS.AllowedCommonNames = names
	cfg.JWT.Secret = strings.TrimSpace(cfg.JWT.Secret)
	cfg.JWT.Issuer = strings.TrimSpace(cfg.JWT.Issuer)
}

func (cfg AuthConfig) validate(tls TLSConfig) error {
	hasTokens := len(cfg.APITokens) > 0
	hasMTLS := len(cfg.MTLS.AllowedCommonNames) > 0
	hasJWT := cfg.JWT.Secret != ""
	if !hasTokens && !hasMTLS && !hasJWT {
		return fmt.Errorf("at least one api token, jwt secret or mTLS common name must be configured")
	}
	if hasJWT && len(cfg.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 bytes")
	}
	if hasMTLS && strings.TrimSpace(tls.ClientCAPath) == "" {
		return fmt.Errorf("mtls.allowed_common_names requires tls.client_ca to be configured")
	}
	return nil
}
