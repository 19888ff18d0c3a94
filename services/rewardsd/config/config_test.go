package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: " :6000 "
storage:
  driver: memory
tls:
  allow_insecure: true
auth:
  api_tokens:
    - " token-one "
    - " "
    - "token-two"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddress != ":6000" {
		t.Fatalf("unexpected listen address: %q", cfg.ListenAddress)
	}
	if cfg.HTTPAddress != defaultHTTPListen || cfg.ProgramsPath != defaultPrograms {
		t.Fatalf("expected defaults, got http=%q programs=%q", cfg.HTTPAddress, cfg.ProgramsPath)
	}
	if len(cfg.Auth.APITokens) != 2 {
		t.Fatalf("expected 2 trimmed api tokens, got %d", len(cfg.Auth.APITokens))
	}
}

func TestLoadConfigRequiresAuthenticators(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
tls:
  allow_insecure: true
auth: {}
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error when no authenticators are configured")
	}
}

func TestLoadConfigRejectsShortJWTSecret(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
tls:
  allow_insecure: true
auth:
  jwt:
    secret: "short"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "jwt.secret") {
		t.Fatalf("expected jwt secret error, got %v", err)
	}
}

func TestLoadConfigValidatesStorage(t *testing.T) {
	cases := map[string]string{
		"missing path":   "storage:\n  driver: leveldb\n",
		"unknown driver": "storage:\n  driver: redis\n  path: /tmp/x\n",
		"receipts dsn":   "storage:\n  driver: memory\nreceipts:\n  driver: postgres\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, body+"tls:\n  allow_insecure: true\nauth:\n  api_tokens: [\"t\"]\n")
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
tls:
  allow_insecure: true
auth:
  api_tokens: ["t"]
claim_speed: 5
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Config{}
	env := map[string]string{
		"REWARDSD_LISTEN":            ":7000",
		"REWARDSD_JWT_SECRET":        strings.Repeat("k", 32),
		"REWARDSD_API_TOKENS":        "a, b",
		"REWARDSD_CLAIMS_PER_MINUTE": "30",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	cfg.normalize()
	if cfg.ListenAddress != ":7000" || cfg.ClaimsPerMinute != 30 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Auth.APITokens) != 2 || cfg.Auth.APITokens[1] != "b" {
		t.Fatalf("unexpected tokens %v", cfg.Auth.APITokens)
	}

	env["REWARDSD_CLAIMS_PER_MINUTE"] = "many"
	if err := cfg.applyEnv(lookup); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigTelemetry(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
tls:
  allow_insecure: true
auth:
  api_tokens: ["t"]
telemetry:
  endpoint: " otel-collector:4318 "
  headers:
    x-tenant: rewards
  disable_metrics: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	tel := cfg.Telemetry
	if tel.Endpoint != "otel-collector:4318" || tel.SampleRatio != defaultSampling {
		t.Fatalf("unexpected telemetry %+v", tel)
	}
	if !tel.Enabled() || tel.Headers["x-tenant"] != "rewards" {
		t.Fatalf("telemetry should be enabled with headers: %+v", tel)
	}
	if (TelemetryConfig{DisableTraces: true, DisableMetrics: true, Endpoint: "x"}).Enabled() {
		t.Fatal("both exporters disabled should report disabled")
	}

	bad := writeConfig(t, "storage:\n  driver: memory\ntls:\n  allow_insecure: true\nauth:\n  api_tokens: [\"t\"]\ntelemetry:\n  sample_ratio: 1.5\n")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "sample_ratio") {
		t.Fatalf("expected sample_ratio error, got %v", err)
	}
}

func TestApplyEnvTelemetryOverrides(t *testing.T) {
	cfg := Config{}
	env := map[string]string{
		"REWARDSD_ENV":           "staging",
		"REWARDSD_OTLP_ENDPOINT": "collector:4318",
		"REWARDSD_OTLP_INSECURE": "true",
		"REWARDSD_OTLP_HEADERS":  "authorization=Bearer abc, x-tenant = rewards ,broken,=nokey",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Environment != "staging" || cfg.Telemetry.Endpoint != "collector:4318" || !cfg.Telemetry.Insecure {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	want := map[string]string{"authorization": "Bearer abc", "x-tenant": "rewards"}
	if len(cfg.Telemetry.Headers) != len(want) {
		t.Fatalf("unexpected headers %v", cfg.Telemetry.Headers)
	}
	for k, v := range want {
		if cfg.Telemetry.Headers[k] != v {
			t.Fatalf("header %s = %q, want %q", k, cfg.Telemetry.Headers[k], v)
		}
	}

	env["REWARDSD_OTLP_INSECURE"] = "sometimes"
	if err := cfg.applyEnv(lookup); err == nil {
		t.Fatal("expected parse error")
	}
}
