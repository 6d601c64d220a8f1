package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses Ollama's HTTP API for embeddings.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings: no network, no external
	// process, used for BM25-only operation or as an explicit fallback.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder creates an embedder based on provider type.
// The CJDOCS_EMBEDDER environment variable can override the provider:
//   - "ollama": Use OllamaEmbedder
//   - "static": Use StaticEmbedder768
//
// Query embedding caching is enabled by default (saves repeated round-trips
// for identical queries). Set CJDOCS_EMBED_CACHE=false to disable it.
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	var embedder Embedder
	var err error

	envProvider := os.Getenv("CJDOCS_EMBEDDER")
	if envProvider != "" {
		switch strings.ToLower(envProvider) {
		case "ollama":
			embedder, err = newOllamaWithFallback(ctx, model)
		case "static":
			embedder, err = NewStaticEmbedder768(), nil
		}
	}

	if embedder == nil && err == nil {
		switch provider {
		case ProviderOllama:
			embedder, err = newOllamaWithFallback(ctx, model)

		case ProviderStatic:
			embedder, err = NewStaticEmbedder768(), nil

		default:
			embedder, err = NewStaticEmbedder768(), nil
		}
	}

	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}

	return embedder, nil
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("CJDOCS_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// newOllamaWithFallback creates an Ollama embedder. Returns an error rather
// than silently falling back to the static embedder: callers that want
// BM25-only operation should pass ProviderStatic explicitly, since a silent
// fallback would mean the index was built with a different embedding
// dimension than the caller expected.
func newOllamaWithFallback(ctx context.Context, model string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" && isOllamaModelName(model) {
		cfg.Model = model
	}

	if host := os.Getenv("CJDOCS_OLLAMA_HOST"); host != "" {
		cfg.Host = host
	}
	if modelOverride := os.Getenv("CJDOCS_OLLAMA_MODEL"); modelOverride != "" {
		cfg.Model = modelOverride
	}
	if timeoutStr := os.Getenv("CJDOCS_OLLAMA_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	// Thermal management settings help prevent timeout failures during long
	// indexing runs under sustained GPU load. Config-file settings are
	// applied first; environment variables take precedence.
	if globalThermalConfig.InterBatchDelay > 0 {
		delay := globalThermalConfig.InterBatchDelay
		if delay > MaxInterBatchDelay {
			delay = MaxInterBatchDelay
		}
		cfg.InterBatchDelay = delay
	}
	if globalThermalConfig.TimeoutProgression >= 1.0 {
		progression := globalThermalConfig.TimeoutProgression
		if progression > MaxTimeoutProgression {
			progression = MaxTimeoutProgression
		}
		cfg.TimeoutProgression = progression
	}
	if globalThermalConfig.RetryTimeoutMultiplier >= 1.0 {
		mult := globalThermalConfig.RetryTimeoutMultiplier
		if mult > MaxRetryTimeoutMultiplier {
			mult = MaxRetryTimeoutMultiplier
		}
		cfg.RetryTimeoutMultiplier = mult
	}

	if delayStr := os.Getenv("CJDOCS_INTER_BATCH_DELAY"); delayStr != "" {
		if delay, err := time.ParseDuration(delayStr); err == nil && delay >= 0 {
			if delay > MaxInterBatchDelay {
				delay = MaxInterBatchDelay
			}
			cfg.InterBatchDelay = delay
		}
	}
	if progressionStr := os.Getenv("CJDOCS_TIMEOUT_PROGRESSION"); progressionStr != "" {
		if progression, err := parseFloat64(progressionStr); err == nil && progression >= 1.0 {
			if progression > MaxTimeoutProgression {
				progression = MaxTimeoutProgression
			}
			cfg.TimeoutProgression = progression
		}
	}
	if retryMultStr := os.Getenv("CJDOCS_RETRY_TIMEOUT_MULTIPLIER"); retryMultStr != "" {
		if mult, err := parseFloat64(retryMultStr); err == nil && mult >= 1.0 {
			if mult > MaxRetryTimeoutMultiplier {
				mult = MaxRetryTimeoutMultiplier
			}
			cfg.RetryTimeoutMultiplier = mult
		}
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ollama unavailable: %w\n\nTo fix:\n  1. Start Ollama: ollama serve\n  2. Or use BM25-only: cjdocs index --backend=static", err)
	}
	return embedder, nil
}

// ThermalConfig holds thermal management settings loaded from config.yaml.
type ThermalConfig struct {
	InterBatchDelay        time.Duration // Pause between batches for GPU cooling
	TimeoutProgression     float64       // Timeout multiplier for later batches (1.0-3.0)
	RetryTimeoutMultiplier float64       // Timeout multiplier per retry (1.0-2.0)
}

// globalThermalConfig holds config file settings set via SetThermalConfig.
// Env vars take precedence over these values.
var globalThermalConfig ThermalConfig

// SetThermalConfig sets thermal management config from the user's config.yaml.
// Call this before NewEmbedder() to ensure config file settings are used.
func SetThermalConfig(cfg ThermalConfig) {
	globalThermalConfig = cfg
	if cfg.InterBatchDelay > 0 || cfg.TimeoutProgression != 0 || cfg.RetryTimeoutMultiplier != 0 {
		slog.Debug("thermal_config_set",
			slog.Duration("inter_batch_delay", cfg.InterBatchDelay),
			slog.Float64("timeout_progression", cfg.TimeoutProgression),
			slog.Float64("retry_timeout_multiplier", cfg.RetryTimeoutMultiplier))
	}
}

// NewDefaultEmbedder creates a static embedder (768 dimensions).
//
// Deprecated: ignores user configuration. Use
// NewEmbedder(ctx, ParseProvider(cfg.Embeddings.Provider), cfg.Embeddings.Model)
// instead.
func NewDefaultEmbedder(ctx context.Context) (Embedder, error) {
	return NewEmbedder(ctx, ProviderStatic, "")
}

// ParseProvider converts a string to ProviderType.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "ollama":
		return ProviderOllama
	case "static":
		return ProviderStatic
	default:
		return ProviderStatic
	}
}

// String returns the string representation of ProviderType
func (p ProviderType) String() string {
	return string(p)
}

// isOllamaModelName checks if a model name looks like an Ollama model.
// Ollama models have a ":" tag (e.g., "qwen3-embedding:8b").
func isOllamaModelName(model string) bool {
	return strings.Contains(model, ":")
}

// ValidProviders returns all valid provider names
func ValidProviders() []string {
	return []string{
		string(ProviderOllama),
		string(ProviderStatic),
	}
}

// IsValidProvider checks if a provider name is valid
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo contains information about an embedder
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.inner
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}

	return info
}

// MustNewEmbedder creates an embedder and panics on failure.
// Use only in tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}

// parseFloat64 parses a string to float64, used for thermal config parsing
func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
