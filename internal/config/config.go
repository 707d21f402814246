// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads repolift settings from defaults, an optional YAML
// file, an optional .env file and environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/index"
	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/llm"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = ".repolift.yaml"

// DefaultEnvFile is the dotenv file read before environment overrides.
const DefaultEnvFile = ".env"

// Environment variables that override file settings.
const (
	EnvAPIKey            = "OPENROUTER_API_KEY"
	EnvAPIBase           = "OPENROUTER_API_BASE"
	EnvModel             = "REPOLIFT_MODEL"
	EnvEmbeddingProvider = "REPOLIFT_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "REPOLIFT_EMBEDDING_MODEL"
	EnvLogLevel          = "REPOLIFT_LOG_LEVEL"
	EnvOllamaHost        = "OLLAMA_HOST"
)

// ErrMissingAPIKey is returned by RequireAPIKey.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is not set")

// Config is the complete repolift configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	TopK      int             `yaml:"top_k" validate:"gte=1,lte=50"`
	LogLevel  string          `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// LLMConfig configures the language model.
type LLMConfig struct {
	Provider       string        `yaml:"provider" validate:"oneof=openrouter openai openai-compatible ollama local mock"`
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model" validate:"required"`
	Temperature    float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	MaxAttempts    int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	HealthTimeout  time.Duration `yaml:"health_timeout" validate:"gt=0"`
}

// EmbeddingConfig configures the embedder behind the retrieval index.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=hash openai ollama local huggingface hf"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	APIKey    string `yaml:"api_key"`
	Dimension int    `yaml:"dimension" validate:"gte=0"`
	CacheSize int    `yaml:"cache_size" validate:"gte=0"`
}

// IngestionConfig configures cloning and splitting.
type IngestionConfig struct {
	Files        []string `yaml:"files" validate:"min=1,dive,required"`
	ChunkSize    int      `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int      `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	MaxFileSize  int64    `yaml:"max_file_size" validate:"gte=0"`
	CloneDepth   int      `yaml:"clone_depth" validate:"gte=0"`
	AllowedHost  string   `yaml:"allowed_host"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ing := ingestion.DefaultConfig()
	return &Config{
		LLM: LLMConfig{
			Provider:       "openrouter",
			BaseURL:        llm.DefaultBaseURL,
			Model:          llm.DefaultModel,
			RequestTimeout: generate.DefaultRequestTimeout,
			MaxAttempts:    generate.DefaultMaxAttempts,
			HealthTimeout:  llm.DefaultHealthTimeout,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Dimension: index.DefaultHashDimension,
			CacheSize: index.DefaultEmbedderCacheSize,
		},
		Ingestion: IngestionConfig{
			Files:        ing.Files,
			ChunkSize:    ing.ChunkSize,
			ChunkOverlap: ing.ChunkOverlap,
			MaxFileSize:  ing.MaxFileSize,
			CloneDepth:   1,
			AllowedHost:  ingestion.DefaultRepoHost,
		},
		TopK:     index.DefaultTopK,
		LogLevel: "info",
	}
}

// Load reads configuration from path (DefaultPath when empty) and
// DefaultEnvFile. A missing default file is not an error; a missing
// explicit path is.
func Load(path string) (*Config, error) {
	return LoadFiles(path, DefaultEnvFile)
}

// LoadFiles is Load with an explicit dotenv file.
func LoadFiles(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg.applyProviderDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvEmbeddingProvider); v != "" {
		c.Embedding.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvOllamaHost); v != "" {
		if isOllama(c.Embedding.Provider) && c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = v
		}
		if isOllama(c.LLM.Provider) {
			c.LLM.BaseURL = v
		}
	}
}

// applyProviderDefaults points an ollama provider left on the OpenRouter
// base URL at the local ollama server.
func (c *Config) applyProviderDefaults() {
	c.LLM.BaseURL = c.llmBaseURL()
}

func (c *Config) llmBaseURL() string {
	if isOllama(c.LLM.Provider) && (c.LLM.BaseURL == "" || c.LLM.BaseURL == llm.DefaultBaseURL) {
		return llm.DefaultOllamaURL
	}
	return c.LLM.BaseURL
}

func isOllama(provider string) bool {
	return provider == "ollama" || provider == "local"
}

// Validate checks every field constraint and reports all violations.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// RequireAPIKey reports ErrMissingAPIKey when the model provider needs a
// key and none is configured.
func (c *Config) RequireAPIKey() error {
	switch c.LLM.Provider {
	case "ollama", "local", "mock":
		return nil
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// SlogLevel converts LogLevel for slog.HandlerOptions.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ProviderConfig returns the model provider settings.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Type:         c.LLM.Provider,
		BaseURL:      c.llmBaseURL(),
		APIKey:       c.LLM.APIKey,
		DefaultModel: c.LLM.Model,
		Timeout:      c.LLM.RequestTimeout,
	}
}

// EmbedderConfig returns the embedder settings. The openai embedder
// falls back to the model API key and base URL.
func (c *Config) EmbedderConfig() index.EmbedderConfig {
	e := index.EmbedderConfig{
		Provider:  c.Embedding.Provider,
		Model:     c.Embedding.Model,
		BaseURL:   c.Embedding.BaseURL,
		APIKey:    c.Embedding.APIKey,
		Dimension: c.Embedding.Dimension,
		CacheSize: c.Embedding.CacheSize,
	}
	if e.Provider == "openai" {
		if e.APIKey == "" {
			e.APIKey = c.LLM.APIKey
		}
		if e.BaseURL == "" {
			e.BaseURL = c.LLM.BaseURL
		}
	}
	return e
}

// IngestionConfig returns the ingestor settings.
func (c *Config) IngestionConfig() ingestion.Config {
	return ingestion.Config{
		Files:        append([]string(nil), c.Ingestion.Files...),
		ChunkSize:    c.Ingestion.ChunkSize,
		ChunkOverlap: c.Ingestion.ChunkOverlap,
		MaxFileSize:  c.Ingestion.MaxFileSize,
	}
}

// GeneratorConfig returns the generator settings.
func (c *Config) GeneratorConfig() generate.Config {
	return generate.Config{
		Model:          c.LLM.Model,
		Temperature:    c.LLM.Temperature,
		RequestTimeout: c.LLM.RequestTimeout,
		MaxAttempts:    c.LLM.MaxAttempts,
		TopK:           c.TopK,
	}
}
