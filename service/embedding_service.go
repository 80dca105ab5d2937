package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/types"
)

// EmbeddingService maps texts to fixed-length vectors. EmbedBatch output is
// positionally aligned with its input. Implementations are pass-throughs to
// the provider SDK; retries and batching stay with the provider.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// NewEmbeddingService selects the provider from configuration.
func NewEmbeddingService(ctx context.Context, cfg config.EmbeddingConfig) (EmbeddingService, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIEmbeddingService(cfg), nil
	case "gemini":
		return NewGeminiEmbeddingService(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", types.ErrInvalidParameter, cfg.Provider)
	}
}

// prepareTextForEmbedding normalizes whitespace and clips the text to the
// provider limit, same as the ingestion side does before chunk storage.
func prepareTextForEmbedding(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxLen > 0 && len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}

type OpenAIEmbeddingService struct {
	client      *openai.Client
	model       string
	dimensions  int
	maxInputLen int
}

func NewOpenAIEmbeddingService(cfg config.EmbeddingConfig) *OpenAIEmbeddingService {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBase != "" {
		clientCfg.BaseURL = cfg.OpenAIBase
	}
	return &OpenAIEmbeddingService{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		maxInputLen: cfg.MaxInputLen,
	}
}

func (s *OpenAIEmbeddingService) Dimension() int { return s.dimensions }

func (s *OpenAIEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *OpenAIEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = prepareTextForEmbedding(t, s.maxInputLen)
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      input,
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	})
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch, sent %d got %d",
			types.ErrUpstreamUnavailable, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if len(v) != s.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				types.ErrInvalidParameter, i, len(v), s.dimensions)
		}
	}
	return vectors, nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
		return fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
}

type GeminiEmbeddingService struct {
	model       *genai.EmbeddingModel
	dimensions  int
	maxInputLen int
}

func NewGeminiEmbeddingService(ctx context.Context, cfg config.EmbeddingConfig) (*GeminiEmbeddingService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbeddingService{
		model:       client.EmbeddingModel(cfg.Model),
		dimensions:  cfg.Dimensions,
		maxInputLen: cfg.MaxInputLen,
	}, nil
}

func (s *GeminiEmbeddingService) Dimension() int { return s.dimensions }

func (s *GeminiEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := s.model.EmbedContent(ctx, genai.Text(prepareTextForEmbedding(text, s.maxInputLen)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) != s.dimensions {
		return nil, fmt.Errorf("%w: unexpected embedding dimensionality", types.ErrInvalidParameter)
	}
	return res.Embedding.Values, nil
}

func (s *GeminiEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batch := s.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(prepareTextForEmbedding(t, s.maxInputLen)))
	}
	res, err := s.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch, sent %d got %d",
			types.ErrUpstreamUnavailable, len(texts), len(res.Embeddings))
	}
	vectors := make([][]float32, len(texts))
	for i, e := range res.Embeddings {
		if len(e.Values) != s.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				types.ErrInvalidParameter, i, len(e.Values), s.dimensions)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}
