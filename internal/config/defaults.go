package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}

	if cfg.Limits.MaxDocumentBytes == 0 {
		cfg.Limits.MaxDocumentBytes = 50 << 20
	}
	if cfg.Limits.MaxPages == 0 {
		cfg.Limits.MaxPages = 500
	}
	if cfg.Limits.MaxResponseTextChars == 0 {
		cfg.Limits.MaxResponseTextChars = 1_000_000
	}

	if cfg.PageText.MinPrintableRatio == 0 {
		cfg.PageText.MinPrintableRatio = 0.9
	}
	if cfg.PageText.MinChars == 0 {
		cfg.PageText.MinChars = 16
	}
	if cfg.PageText.MinCharsPerSquareInch == 0 {
		cfg.PageText.MinCharsPerSquareInch = 0.25
	}
	if cfg.PageText.DefaultOCRConfidence == 0 {
		cfg.PageText.DefaultOCRConfidence = 0.25
	}
	if cfg.PageText.LowConfidenceThreshold == 0 {
		cfg.PageText.LowConfidenceThreshold = 0.5
	}

	if cfg.OCR.Engine == "" {
		cfg.OCR.Engine = "tesseract"
	}
	if len(cfg.OCR.Languages) == 0 {
		cfg.OCR.Languages = []string{"eng"}
	}

	if cfg.Entities.Backend == "" {
		cfg.Entities.Backend = "pattern"
	}
	if cfg.Entities.MaxInputChars == 0 {
		cfg.Entities.MaxInputChars = 100_000
	}
	if cfg.Entities.ONNX.MaxTokens == 0 {
		cfg.Entities.ONNX.MaxTokens = 256
	}
	if cfg.Entities.ONNX.OutputName == "" {
		cfg.Entities.ONNX.OutputName = "logits"
	}
	if len(cfg.Entities.ONNX.Labels) == 0 {
		cfg.Entities.ONNX.Labels = []string{"O", "B-PER", "I-PER", "B-ORG", "I-ORG", "B-LOC", "I-LOC", "B-MISC", "I-MISC"}
	}

	if cfg.Summary.Backend == "" {
		cfg.Summary.Backend = "extractive"
	}
	if cfg.Summary.MaxLength == 0 {
		cfg.Summary.MaxLength = 400
	}
	if cfg.Summary.ContextWindow == 0 {
		cfg.Summary.ContextWindow = 4000
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.PageWorkers == 0 {
		cfg.Pipeline.PageWorkers = 8
	}
	if cfg.Pipeline.EntityTimeout == 0 {
		cfg.Pipeline.EntityTimeout = 2 * time.Minute
	}
	if cfg.Pipeline.MathTimeout == 0 {
		cfg.Pipeline.MathTimeout = 30 * time.Second
	}
	if cfg.Pipeline.SummaryTimeout == 0 {
		cfg.Pipeline.SummaryTimeout = 3 * time.Minute
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".xlsx", ".pptx", ".txt", ".md"}
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}
