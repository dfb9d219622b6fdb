package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/config"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
  allowed_origins:
    - "https://classroom.example.edu"
segmentation:
  enabled: true
  silence_threshold_ms: 10000
  min_segment_chars: 15
  tick_interval_ms: 200
timer:
  grace_delay_ms: 2000
generation:
  question_count: 5
  option_count: 4
  timeout_seconds: 45
  providers:
    - name: gemini
      api_key: test-key
      model: gemini-2.0-flash
    - name: ollama
      base_url: "http://localhost:11434"
      model: llama3.2
storage:
  postgres_dsn: "postgres://localhost/pollgen"
  embedding_dimensions: 768
embeddings:
  name: ollama
  base_url: "http://localhost:11434"
  model: nomic-embed-text
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if got := cfg.Segmentation.SilenceThreshold(); got != 10*time.Second {
		t.Errorf("SilenceThreshold = %v", got)
	}
	if got := cfg.Segmentation.TickInterval(); got != 200*time.Millisecond {
		t.Errorf("TickInterval = %v", got)
	}
	if got := cfg.Timer.GraceDelay(); got != 2*time.Second {
		t.Errorf("GraceDelay = %v", got)
	}
	if got := cfg.Generation.Timeout(); got != 45*time.Second {
		t.Errorf("Timeout = %v", got)
	}
	if len(cfg.Generation.Providers) != 2 || cfg.Generation.Providers[0].Name != "gemini" {
		t.Errorf("Providers = %+v", cfg.Generation.Providers)
	}
	if cfg.Embeddings.Model != "nomic-embed-text" {
		t.Errorf("Embeddings.Model = %q", cfg.Embeddings.Model)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
  listen_adress: ":8081"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
		if err != nil {
			t.Fatalf("LoadFromReader: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "valid config passes",
			mutate: func(*config.Config) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "tls without key",
			mutate:  func(c *config.Config) { c.Server.TLS = &config.TLSConfig{CertFile: "cert.pem"} },
			wantErr: "key_file",
		},
		{
			name:    "negative silence threshold",
			mutate:  func(c *config.Config) { c.Segmentation.SilenceThresholdMs = -1 },
			wantErr: "silence_threshold_ms",
		},
		{
			name:    "unknown generation provider",
			mutate:  func(c *config.Config) { c.Generation.Providers[0].Name = "skynet" },
			wantErr: "skynet",
		},
		{
			name:    "provider without model",
			mutate:  func(c *config.Config) { c.Generation.Providers[1].Model = "" },
			wantErr: "model",
		},
		{
			name:    "unknown embeddings provider",
			mutate:  func(c *config.Config) { c.Embeddings.Name = "gemini" },
			wantErr: "embeddings.name",
		},
		{
			name: "embeddings without storage",
			mutate: func(c *config.Config) {
				c.Storage.PostgresDSN = ""
			},
			wantErr: "postgres_dsn",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := config.Validate(cfg)

			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	cfg.Server.LogLevel = "loud"
	cfg.Timer.GraceDelayMs = -5

	verr := config.Validate(cfg)
	if verr == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"log_level", "grace_delay_ms"} {
		if !strings.Contains(verr.Error(), want) {
			t.Errorf("error %q does not mention %q", verr, want)
		}
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := config.Load("../../configs/example.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if !cfg.Segmentation.Enabled {
		t.Error("example config ships with segmentation disabled")
	}
	if len(cfg.Generation.Providers) == 0 {
		t.Error("example config has no generation providers")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/pollgen.yaml"); err == nil {
		t.Error("missing file accepted")
	}
}
