package factory

import (
	"fmt"
	"strings"

	"intelliprep-notes-be/pkg/llm"
	"intelliprep-notes-be/pkg/llm/gemini"
	"intelliprep-notes-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured provider. A gemini provider without an
// API key is still returned; every call then reports llm.ErrMissingCredential.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch strings.ToLower(providerType) {
	case "", "gemini":
		return gemini.NewGeminiProvider(apiKey, "", modelName), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
