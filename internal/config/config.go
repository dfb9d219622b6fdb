// Package config provides the configuration schema and loader for the poll
// generation server.
package config

import "time"

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Timer        TimerConfig        `yaml:"timer"`
	Generation   GenerationConfig   `yaml:"generation"`
	Storage      StorageConfig      `yaml:"storage"`
	Embeddings   ProviderEntry      `yaml:"embeddings"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// AllowedOrigins lists origins accepted for websocket upgrades. Empty
	// means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// SegmentationConfig tunes silence-based transcript segmentation.
type SegmentationConfig struct {
	// Enabled turns automatic segmentation on for new rooms.
	Enabled bool `yaml:"enabled"`

	// SilenceThresholdMs is the continuous-silence duration that closes a
	// segment. Zero means the built-in default (10000).
	SilenceThresholdMs int `yaml:"silence_threshold_ms"`

	// MinSegmentChars is the minimum normalised segment length dispatched
	// for question generation. Zero means the built-in default (15).
	MinSegmentChars int `yaml:"min_segment_chars"`

	// TickIntervalMs is the engine evaluation cadence. Zero means the
	// built-in default (200).
	TickIntervalMs int `yaml:"tick_interval_ms"`
}

// SilenceThreshold returns the configured threshold as a duration.
func (c SegmentationConfig) SilenceThreshold() time.Duration {
	return time.Duration(c.SilenceThresholdMs) * time.Millisecond
}

// TickInterval returns the configured tick cadence as a duration.
func (c SegmentationConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// TimerConfig tunes the countdown timer.
type TimerConfig struct {
	// GraceDelayMs is the completion-to-generation delay. Zero means the
	// built-in default (2000).
	GraceDelayMs int `yaml:"grace_delay_ms"`
}

// GraceDelay returns the configured grace delay as a duration.
func (c TimerConfig) GraceDelay() time.Duration {
	return time.Duration(c.GraceDelayMs) * time.Millisecond
}

// GenerationConfig tunes question generation.
type GenerationConfig struct {
	// QuestionCount is the number of questions requested per generation.
	// Zero means the provider default (5).
	QuestionCount int `yaml:"question_count"`

	// OptionCount is the number of answer options per question. Zero means
	// the provider default (4).
	OptionCount int `yaml:"option_count"`

	// Difficulty is an optional free-form difficulty hint.
	Difficulty string `yaml:"difficulty"`

	// TimeoutSeconds bounds a single generation dispatch, across all
	// fallback providers. Zero means the built-in default (45).
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Providers is the fallback chain in try order. The first entry is the
	// primary backend.
	Providers []ProviderEntry `yaml:"providers"`
}

// Timeout returns the configured generation timeout as a duration.
func (c GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProviderEntry is the common configuration block shared by generation and
// embedding providers.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "gemini", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API, if any.
	// Empty falls back to the provider's environment variable.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gemini-2.0-flash", "llama3.2").
	Model string `yaml:"model"`
}

// StorageConfig configures the transcript archive.
type StorageConfig struct {
	// PostgresDSN is the archive database connection string. Empty
	// disables archiving: sessions run fully in memory and nothing
	// survives a restart.
	PostgresDSN string `yaml:"postgres_dsn"`

	// EmbeddingDimensions must match the configured embeddings model.
	// Zero means 1536.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`
}
