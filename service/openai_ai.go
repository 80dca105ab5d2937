package service

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

type OpenAIService struct {
	client          *openai.Client
	model           string
	temperature     float32
	maxOutputTokens int
}

func NewOpenAIService(cfg config.LLMConfig) *OpenAIService {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBase != "" {
		clientCfg.BaseURL = cfg.OpenAIBase
	}
	return &OpenAIService{
		client:          openai.NewClientWithConfig(clientCfg),
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
}

func (s *OpenAIService) buildMessages(system string, messages []types.Message) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return openaiMessages
}

func (s *OpenAIService) Chat(ctx context.Context, system string, messages []types.Message) (*types.Message, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages:    s.buildMessages(system, messages),
			Model:       s.model,
			Temperature: s.temperature,
			MaxTokens:   s.maxOutputTokens,
		},
	)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response generated")
	}
	return &types.Message{
		Role:    types.RoleAssistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (s *OpenAIService) ChatStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) error {
	stream, err := s.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{
			Messages:    s.buildMessages(system, messages),
			Model:       s.model,
			Temperature: s.temperature,
			MaxTokens:   s.maxOutputTokens,
		},
	)
	if err != nil {
		return wrapOpenAIError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		handler(resp.Choices[0].Delta.Content)
	}
}
