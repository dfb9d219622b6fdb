package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidGenerationProviders lists the recognised question-generation backend
// names. [Validate] rejects entries outside this set.
var ValidGenerationProviders = []string{"gemini", "ollama", "groq", "openai", "mistral", "deepseek"}

// ValidEmbeddingProviders lists the recognised embedding backend names.
var ValidEmbeddingProviders = []string{"openai", "ollama"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown fields are rejected so typos fail loudly at startup. Useful in
// tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found; conditions that are
// legal but probably unintended only log a warning.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	if cfg.Segmentation.SilenceThresholdMs < 0 {
		errs = append(errs, errors.New("segmentation.silence_threshold_ms must not be negative"))
	}
	if cfg.Segmentation.SilenceThresholdMs > 0 && cfg.Segmentation.SilenceThresholdMs < 1000 {
		slog.Warn("segmentation.silence_threshold_ms is under a second; natural speech pauses will close segments",
			"threshold_ms", cfg.Segmentation.SilenceThresholdMs)
	}
	if cfg.Timer.GraceDelayMs < 0 {
		errs = append(errs, errors.New("timer.grace_delay_ms must not be negative"))
	}
	if cfg.Generation.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("generation.timeout_seconds must not be negative"))
	}

	if len(cfg.Generation.Providers) == 0 {
		slog.Warn("generation.providers is empty; questions cannot be generated")
	}
	for i, p := range cfg.Generation.Providers {
		prefix := fmt.Sprintf("generation.providers[%d]", i)
		if !slices.Contains(ValidGenerationProviders, p.Name) {
			errs = append(errs, fmt.Errorf("%s.name %q is unknown; valid values: %v", prefix, p.Name, ValidGenerationProviders))
		}
		if p.Model == "" {
			errs = append(errs, fmt.Errorf("%s.model must not be empty", prefix))
		}
	}

	if cfg.Embeddings.Name != "" && !slices.Contains(ValidEmbeddingProviders, cfg.Embeddings.Name) {
		errs = append(errs, fmt.Errorf("embeddings.name %q is unknown; valid values: %v", cfg.Embeddings.Name, ValidEmbeddingProviders))
	}

	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; transcripts and questions will not survive a restart")
	}
	if cfg.Embeddings.Name != "" && cfg.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("embeddings requires storage.postgres_dsn for the semantic index"))
	}
	if cfg.Storage.EmbeddingDimensions < 0 {
		errs = append(errs, errors.New("storage.embedding_dimensions must not be negative"))
	}

	return errors.Join(errs...)
}
