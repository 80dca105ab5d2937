package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/legalpt/legal-rag-be/types"
)

// GeminiService generates answers through the Gemini API. Multiple API
// keys can be configured; on a request failure the next key takes over.
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("%w: no gemini api keys provided", types.ErrInvalidParameter)
	}
	service := &GeminiService{
		apiKeys:    apiKeys,
		currentKey: 0,
		modelName:  modelName,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return fmt.Errorf("%w: create gemini client: %v", types.ErrUpstreamUnavailable, err)
	}
	s.client = client
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

func (s *GeminiService) buildModel(system string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	return model
}

func (s *GeminiService) Chat(ctx context.Context, system string, messages []types.Message) (*types.Message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: empty message history", types.ErrInvalidParameter)
	}

	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}
	prompt := messages[len(messages)-1].Content

	chat := s.buildModel(system).StartChat()
	chat.History = history
	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		if err := s.rotateAPIKey(); err != nil {
			return nil, err
		}
		chat = s.buildModel(system).StartChat()
		chat.History = history
		resp, err = chat.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
		}
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response generated")
	}

	content := ""
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	return &types.Message{Role: types.RoleAssistant, Content: content}, nil
}

func (s *GeminiService) ChatStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: empty message history", types.ErrInvalidParameter)
	}
	prompt := messages[len(messages)-1].Content

	iter := s.buildModel(system).GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			if err := s.rotateAPIKey(); err != nil {
				return err
			}
			iter = s.buildModel(system).GenerateContentStream(ctx, genai.Text(prompt))
			resp, err = iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
			}
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					handler(string(text))
				}
			}
		}
	}
}
