package models

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Provider 标识模型提供方。
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderGrok       Provider = "grok"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

const (
	grokBaseURL       = "https://api.x.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// New 根据提供方创建 model.LLM。
func New(ctx context.Context, provider Provider, modelName, apiKey string) (model.LLM, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIModel(modelName, apiKey)
	case ProviderGrok:
		return NewGrokModel(modelName, apiKey)
	case ProviderOpenRouter:
		return NewOpenRouterModel(modelName, apiKey)
	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("API key is required")
		}
		llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// NewOpenAIModel 创建 OpenAI 官方模型。
func NewOpenAIModel(modelName, apiKey string, opts ...option.RequestOption) (model.LLM, error) {
	return newOpenAICompatible(modelName, apiKey, "", "openai-go", opts...)
}

// NewGrokModel 创建 x.ai Grok 模型（例如 "grok-beta"、"grok-2-1212"）。
func NewGrokModel(modelName, apiKey string, opts ...option.RequestOption) (model.LLM, error) {
	return newOpenAICompatible(modelName, apiKey, grokBaseURL, "grok-go", opts...)
}

// NewOpenRouterModel 创建 OpenRouter 模型，模型名按 "vendor/model" 书写。
func NewOpenRouterModel(modelName, apiKey string, opts ...option.RequestOption) (model.LLM, error) {
	return newOpenAICompatible(modelName, apiKey, openRouterBaseURL, "openrouter-go", opts...)
}
