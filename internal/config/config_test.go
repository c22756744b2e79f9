package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
limits:
  max_document_bytes: 1024
pipeline:
  summary_timeout: 45s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Limits.MaxDocumentBytes != 1024 {
		t.Errorf("max_document_bytes: got %d", cfg.Limits.MaxDocumentBytes)
	}
	if cfg.Pipeline.SummaryTimeout != 45*time.Second {
		t.Errorf("summary_timeout: got %v", cfg.Pipeline.SummaryTimeout)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
entities:
  backend: onnx
  onnx:
    model_path: "./models/ner.onnx"
    vocab_path: "./models/vocab.txt"
watch:
  directories: ["./inbox"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "models", "ner.onnx"); cfg.Entities.ONNX.ModelPath != want {
		t.Errorf("model_path: got %q, want %q", cfg.Entities.ONNX.ModelPath, want)
	}
	if want := filepath.Join(dir, "models", "vocab.txt"); cfg.Entities.ONNX.VocabPath != want {
		t.Errorf("vocab_path: got %q, want %q", cfg.Entities.ONNX.VocabPath, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories: got %v", cfg.Watch.Directories)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Entities.Backend != "pattern" {
		t.Errorf("entities backend: %q", cfg.Entities.Backend)
	}
	if cfg.Summary.Backend != "extractive" || cfg.Summary.MaxLength != 400 {
		t.Errorf("summary defaults: %+v", cfg.Summary)
	}
	if !cfg.Summary.ReduceOrDefault() {
		t.Error("reduce should default to true")
	}
	if cfg.Limits.MaxDocumentBytes != 50<<20 {
		t.Errorf("max bytes: %d", cfg.Limits.MaxDocumentBytes)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("default model: %q", cfg.LLM.Model)
	}
	if cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive should default to false")
	}
}

func TestApplyDefaults_providerModel(t *testing.T) {
	cfg := Config{LLM: LLMConfig{Provider: "anthropic"}}
	ApplyDefaults(&cfg)
	if cfg.LLM.Model != "claude-3-5-haiku-latest" {
		t.Errorf("anthropic default model: %q", cfg.LLM.Model)
	}
}

func TestSave_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: 9999}}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9999 || loaded.Server.Host != "0.0.0.0" {
		t.Errorf("round trip: %+v", loaded.Server)
	}
}
