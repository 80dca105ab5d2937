package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/types"
)

type stubAI struct {
	reply       string
	err         error
	lastSystem  string
	lastMessage string
	calls       int
}

func (a *stubAI) Chat(ctx context.Context, system string, messages []types.Message) (*types.Message, error) {
	a.calls++
	a.lastSystem = system
	if len(messages) > 0 {
		a.lastMessage = messages[len(messages)-1].Content
	}
	if a.err != nil {
		return nil, a.err
	}
	return &types.Message{Role: types.RoleAssistant, Content: a.reply}, nil
}

func (a *stubAI) ChatStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) error {
	a.calls++
	a.lastSystem = system
	if a.err != nil {
		return a.err
	}
	for _, word := range strings.Fields(a.reply) {
		handler(word + " ")
	}
	return nil
}

func newTestAnswerService(t *testing.T, store *database.MemoryStore, embedder EmbeddingService, ai AIService) *AnswerService {
	t.Helper()
	ragCfg := config.RAGConfig{TopK: 3, MaxContextChars: 8000, SnippetChars: 1000}
	retrieval := NewRetrievalService(store, embedder, nil, ragCfg)
	return NewAnswerService(store, retrieval, ai, ragCfg)
}

func TestAnswerQueryEmptyStore(t *testing.T) {
	store := database.NewMemoryStore()
	ai := &stubAI{reply: "não deveria ser chamado"}
	svc := newTestAnswerService(t, store, &stubEmbedder{dimension: 4}, ai)

	resp, err := svc.AnswerQuery(context.Background(), &types.QueryRequest{
		Query: "qual o prazo de denúncia do contrato?",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, ai.calls)
}

func TestAnswerQueryGeneratesFromSources(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	ai := &stubAI{reply: "Nos termos da Lei do Arrendamento, o contrato celebra-se por escrito."}
	svc := newTestAnswerService(t, store, embedder, ai)

	resp, err := svc.AnswerQuery(context.Background(), &types.QueryRequest{
		Query: "como se celebra o contrato de arrendamento?",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Answer)
	assert.Contains(t, *resp.Answer, "Arrendamento")
	assert.NotEmpty(t, resp.Sources)
	assert.Equal(t, SearchTypeVector, resp.SearchType)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)

	assert.Contains(t, ai.lastSystem, "assistente jurídico")
	assert.Contains(t, ai.lastMessage, "Contextos Legais Relevantes")
	assert.Contains(t, ai.lastMessage, "Pergunta do Utilizador")

	records := store.Queries()
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ChunkIDs)
}

func TestAnswerQuerySkipsGenerationWhenDisabled(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	ai := &stubAI{reply: "resposta"}
	svc := newTestAnswerService(t, store, embedder, ai)

	noLLM := false
	resp, err := svc.AnswerQuery(context.Background(), &types.QueryRequest{
		Query:  "taxas de certidões",
		UseLLM: &noLLM,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Answer)
	assert.NotEmpty(t, resp.Sources)
	assert.Zero(t, ai.calls)
}

func TestAnswerQueryDegradesToSourcesOnGenerationFailure(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	ai := &stubAI{err: types.ErrUpstreamUnavailable}
	svc := newTestAnswerService(t, store, embedder, ai)

	resp, err := svc.AnswerQuery(context.Background(), &types.QueryRequest{
		Query: "período normal de trabalho",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Answer)
	assert.NotEmpty(t, resp.Sources)
}

func TestAnswerQueryClipsSnippets(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	ctx := context.Background()

	longText := strings.Repeat("texto longo sobre arrendamento. ", 100)
	id, err := store.UpsertDocument(ctx, &types.Document{
		Title: "Lei extensa", URL: "https://dre.pt/extensa", DocumentType: types.DocumentTypeLei,
	})
	require.NoError(t, err)
	vec, err := embedder.Embed(ctx, longText)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceChunks(ctx, id, []types.DocumentChunk{
		{Text: longText, Embedding: vec},
	}))

	ragCfg := config.RAGConfig{TopK: 3, MaxContextChars: 8000, SnippetChars: 50}
	retrieval := NewRetrievalService(store, embedder, nil, ragCfg)
	svc := NewAnswerService(store, retrieval, &stubAI{reply: "ok"}, ragCfg)

	resp, err := svc.AnswerQuery(ctx, &types.QueryRequest{Query: "arrendamento"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Sources)
	assert.LessOrEqual(t, len(resp.Sources[0].Text), 50+len("..."))
}

func TestAnswerQueryStream(t *testing.T) {
	store := database.NewMemoryStore()
	embedder := &stubEmbedder{dimension: 4}
	seedCorpus(t, store, embedder)
	ai := &stubAI{reply: "resposta em pedaços"}
	svc := newTestAnswerService(t, store, embedder, ai)

	var sources []types.SourceItem
	var streamed strings.Builder
	err := svc.AnswerQueryStream(context.Background(),
		&types.QueryRequest{Query: "contrato de arrendamento"},
		func(s []types.SourceItem) { sources = s },
		func(delta string) { streamed.WriteString(delta) })
	require.NoError(t, err)
	assert.NotEmpty(t, sources)
	assert.Contains(t, streamed.String(), "resposta")
}

func TestAnalyzeContractNotFound(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestAnswerService(t, store, &stubEmbedder{dimension: 4}, &stubAI{reply: "x"})

	_, err := svc.AnalyzeContract(context.Background(), &types.AnalyzeContractRequest{
		DocumentID: "inexistente",
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAnalyzeContractParsesSections(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	id, err := store.UpsertDocument(ctx, &types.Document{
		Title:        "Contrato de prestação de serviços",
		Text:         "As partes acordam nos termos do Decreto-Lei n.º 446/85 e da Lei n.º 24/96.",
		DocumentType: types.DocumentTypeContract,
	})
	require.NoError(t, err)

	ai := &stubAI{reply: strings.Join([]string{
		"Resumo: contrato de prestação de serviços.",
		"Legislação portuguesa aplicável:",
		"- Decreto-Lei n.º 446/85",
		"Possíveis problemas:",
		"- Falta cláusula de rescisão",
		"Sugestões:",
		"- Acrescentar prazo de vigência",
	}, "\n")}
	svc := newTestAnswerService(t, store, &stubEmbedder{dimension: 4}, ai)

	analysis, err := svc.AnalyzeContract(ctx, &types.AnalyzeContractRequest{DocumentID: id})
	require.NoError(t, err)
	assert.Equal(t, "comprehensive", analysis.AnalysisType)
	assert.Equal(t, "completed", analysis.Status)
	assert.Contains(t, analysis.IdentifiedLaws, "Decreto-Lei n.º 446/85")
	assert.Contains(t, analysis.PotentialIssues, "Falta cláusula de rescisão")
	assert.Contains(t, analysis.Suggestions, "Acrescentar prazo de vigência")
}

func TestAnalyzeContractFallsBackToRegexLaws(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	id, err := store.UpsertDocument(ctx, &types.Document{
		Title:        "Contrato de arrendamento",
		Text:         "Celebrado ao abrigo da Lei n.º 6/2006 e do Decreto-Lei n.º 321-B/90.",
		DocumentType: types.DocumentTypeContract,
	})
	require.NoError(t, err)

	ai := &stubAI{reply: "Análise sem listas estruturadas."}
	svc := newTestAnswerService(t, store, &stubEmbedder{dimension: 4}, ai)

	analysis, err := svc.AnalyzeContract(ctx, &types.AnalyzeContractRequest{
		DocumentID: id, AnalysisType: "summary",
	})
	require.NoError(t, err)
	assert.Equal(t, "summary", analysis.AnalysisType)
	assert.Contains(t, analysis.IdentifiedLaws, "Lei n.º 6/2006")
}

func TestExtractLawReferencesDeduplicates(t *testing.T) {
	laws := extractLawReferences("A Lei n.º 23/2024 altera a Lei n.º 23/2024 e a Portaria n.º 5/2020.")
	assert.Equal(t, []string{"Lei n.º 23/2024", "Portaria n.º 5/2020"}, laws)
}
