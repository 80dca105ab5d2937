package service

import (
	"context"
	"fmt"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

// AIService generates answers from a system prompt and a message history.
type AIService interface {
	Chat(ctx context.Context, system string, messages []types.Message) (*types.Message, error)
	ChatStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) error
}

func NewAIService(cfg config.LLMConfig) (AIService, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIService(cfg), nil
	case "gemini":
		return NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", types.ErrInvalidParameter, cfg.Provider)
	}
}
