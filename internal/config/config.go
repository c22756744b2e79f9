// Package config provides configuration loading and structs for the docanalyzer server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Limits   LimitsConfig   `yaml:"limits"`
	PageText PageTextConfig `yaml:"pagetext"`
	OCR      OCRConfig      `yaml:"ocr"`
	Entities EntityConfig   `yaml:"entities"`
	Summary  SummaryConfig  `yaml:"summary"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LimitsConfig bounds the work done on untrusted input.
type LimitsConfig struct {
	MaxDocumentBytes     int64 `yaml:"max_document_bytes"`
	MaxPages             int   `yaml:"max_pages"`
	MaxResponseTextChars int   `yaml:"max_response_text_chars"`
}

// PageTextConfig tunes the native-text sufficiency heuristic and OCR confidence policy.
type PageTextConfig struct {
	MinPrintableRatio      float64 `yaml:"min_printable_ratio"`
	MinChars               int     `yaml:"min_chars"`
	MinCharsPerSquareInch  float64 `yaml:"min_chars_per_square_inch"`
	DefaultOCRConfidence   float64 `yaml:"default_ocr_confidence"`
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`
}

// OCRConfig selects the optical recognition engine.
type OCRConfig struct {
	Engine    string   `yaml:"engine"`
	Languages []string `yaml:"languages"`
}

// EntityConfig selects and configures the entity recognition backend.
type EntityConfig struct {
	Backend       string        `yaml:"backend"`
	MaxInputChars int           `yaml:"max_input_chars"`
	ONNX          ONNXNERConfig `yaml:"onnx"`
}

// ONNXNERConfig holds settings for a token-classification model run through ONNX Runtime.
type ONNXNERConfig struct {
	ModelPath  string   `yaml:"model_path"`
	VocabPath  string   `yaml:"vocab_path"`
	Labels     []string `yaml:"labels"`
	MaxTokens  int      `yaml:"max_tokens"`
	Lowercase  bool     `yaml:"lowercase"`
	OutputName string   `yaml:"output_name"`
}

// SummaryConfig selects the summarization backend and its length bounds.
type SummaryConfig struct {
	Backend       string `yaml:"backend"`
	MaxLength     int    `yaml:"max_length"`
	ContextWindow int    `yaml:"context_window"`
	Reduce        *bool  `yaml:"reduce"`
}

// ReduceOrDefault returns whether partial summaries are re-summarized; defaults to true when unset.
func (s *SummaryConfig) ReduceOrDefault() bool {
	if s.Reduce != nil {
		return *s.Reduce
	}
	return true
}

// LLMConfig configures the hosted model provider shared by the llm backends.
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PipelineConfig holds concurrency and per-stage timeout settings.
type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	PageWorkers    int           `yaml:"page_workers"`
	EntityTimeout  time.Duration `yaml:"entity_timeout"`
	MathTimeout    time.Duration `yaml:"math_timeout"`
	SummaryTimeout time.Duration `yaml:"summary_timeout"`
	ScratchDir     string        `yaml:"scratch_dir"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to false when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return false
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Entities.ONNX.ModelPath = expandPath(cfg.Entities.ONNX.ModelPath, configDir)
	cfg.Entities.ONNX.VocabPath = expandPath(cfg.Entities.ONNX.VocabPath, configDir)
	if cfg.Pipeline.ScratchDir != "" {
		cfg.Pipeline.ScratchDir = expandPath(cfg.Pipeline.ScratchDir, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
