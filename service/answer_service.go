package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/legalpt/legal-rag-be/config"
	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/types"
)

const legalSystemPrompt = `Você é um assistente jurídico especializado em legislação portuguesa.
Sua função é fornecer respostas precisas e úteis sobre leis portuguesas com base nos documentos fornecidos.

Diretrizes:
1. Responda sempre em português de Portugal
2. Cite os documentos legais específicos (número e data) ao fazer referências
3. Seja preciso e objetivo, mas também claro e acessível
4. Se não tiver certeza ou se a informação não estiver disponível nos contextos fornecidos, indique isso claramente
5. Organize a resposta de forma estruturada quando apropriado
6. Evite dar conselhos jurídicos pessoais - forneça apenas informações sobre a legislação`

var contractAnalysisPrompts = map[string]string{
	"comprehensive": `Analise este contrato e forneça:
1. Resumo do contrato (tipo, partes, objeto principal)
2. Cláusulas principais identificadas
3. Legislação portuguesa aplicável
4. Possíveis problemas ou cláusulas questionáveis
5. Sugestões de melhorias
6. Conformidade com a lei portuguesa`,

	"summary": `Forneça um resumo conciso deste contrato incluindo:
1. Tipo de contrato
2. Partes envolvidas
3. Objeto principal
4. Principais obrigações
5. Prazo/vigência`,

	"compliance": `Verifique a conformidade deste contrato com a legislação portuguesa:
1. Identifique as leis aplicáveis
2. Verifique cláusulas obrigatórias ausentes
3. Identifique cláusulas potencialmente inválidas
4. Sugira correções necessárias`,
}

var lawReferenceRe = regexp.MustCompile(`(?i)(?:Lei|Decreto-Lei|Decreto|Portaria)\s*n\.?º?\s*\d+(?:/\d+)?`)

const contractTextLimit = 4000

// AnswerService runs the full question pipeline: retrieve, assemble
// context, generate. Generation failures degrade to a sources-only
// response instead of failing the request.
type AnswerService struct {
	store           database.DocumentStore
	retrieval       *RetrievalService
	ai              AIService
	maxContextChars int
	snippetChars    int
}

func NewAnswerService(store database.DocumentStore, retrieval *RetrievalService, ai AIService, cfg config.RAGConfig) *AnswerService {
	return &AnswerService{
		store:           store,
		retrieval:       retrieval,
		ai:              ai,
		maxContextChars: cfg.MaxContextChars,
		snippetChars:    cfg.SnippetChars,
	}
}

func (s *AnswerService) AnswerQuery(ctx context.Context, req *types.QueryRequest) (*types.QueryResponse, error) {
	start := time.Now()

	hits, err := s.retrieval.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	sources := s.buildSources(hits)

	useLLM := req.UseLLM == nil || *req.UseLLM
	var answer *string
	if useLLM && len(sources) > 0 {
		msg, err := s.ai.Chat(ctx, legalSystemPrompt, []types.Message{
			{Role: types.RoleUser, Content: s.buildPrompt(req.Query, sources)},
		})
		if err != nil {
			// Sources still have value on their own.
			log.Printf("%v: %v", types.ErrGenerationUnavailable, err)
		} else {
			answer = &msg.Content
		}
	}

	s.logQuery(ctx, req, answer, hits)

	searchType := req.SearchType
	if searchType == "" {
		searchType = SearchTypeVector
	}
	return &types.QueryResponse{
		Query:          req.Query,
		Language:       req.Language,
		Answer:         answer,
		Sources:        sources,
		SearchType:     searchType,
		ProcessingTime: time.Since(start).Seconds(),
		Timestamp:      time.Now(),
	}, nil
}

// AnswerQueryStream retrieves sources first, hands them to onSources, then
// streams the generated answer token by token.
func (s *AnswerService) AnswerQueryStream(ctx context.Context, req *types.QueryRequest, onSources func([]types.SourceItem), handler types.StreamHandler) error {
	hits, err := s.retrieval.Search(ctx, req)
	if err != nil {
		return err
	}
	sources := s.buildSources(hits)
	if onSources != nil {
		onSources(sources)
	}
	if len(sources) == 0 {
		return nil
	}

	err = s.ai.ChatStream(ctx, legalSystemPrompt, []types.Message{
		{Role: types.RoleUser, Content: s.buildPrompt(req.Query, sources)},
	}, handler)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrGenerationUnavailable, err)
	}
	s.logQuery(ctx, req, nil, hits)
	return nil
}

func (s *AnswerService) buildSources(hits []types.ScoredChunk) []types.SourceItem {
	sources := make([]types.SourceItem, 0, len(hits))
	for _, hit := range hits {
		text := hit.Chunk.Text
		if s.snippetChars > 0 && len(text) > s.snippetChars {
			text = text[:s.snippetChars] + "..."
		}
		sources = append(sources, types.SourceItem{
			DocumentID:      hit.Chunk.DocumentID,
			Title:           hit.Document.Title,
			Text:            text,
			DocumentType:    hit.Document.DocumentType,
			DocumentNumber:  hit.Document.DocumentNumber,
			PublicationDate: hit.Document.PublicationDate,
			URL:             hit.Document.URL,
			Score:           hit.Score,
		})
	}
	return sources
}

// buildPrompt assembles the numbered context block. Sources past the
// context budget are dropped rather than truncated mid-entry.
func (s *AnswerService) buildPrompt(query string, sources []types.SourceItem) string {
	var contexts []string
	total := 0
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = "Sem título"
		}
		docType := src.DocumentType
		if docType == "" {
			docType = "Desconhecido"
		}
		date := src.PublicationDate
		if date == "" {
			date = "Sem data"
		}
		entry := fmt.Sprintf("**Documento %d:**\nTítulo: %s\nTipo: %s\nData: %s\nTexto: %s",
			i+1, title, docType, date, src.Text)
		if s.maxContextChars > 0 && total+len(entry) > s.maxContextChars && len(contexts) > 0 {
			break
		}
		contexts = append(contexts, entry)
		total += len(entry)
	}

	return fmt.Sprintf("Contextos Legais Relevantes:\n%s\n\nPergunta do Utilizador: %s\n\nResposta:",
		strings.Join(contexts, "\n\n"), query)
}

func (s *AnswerService) logQuery(ctx context.Context, req *types.QueryRequest, answer *string, hits []types.ScoredChunk) {
	rec := &types.QueryRecord{
		Query:     req.Query,
		Language:  req.Language,
		Timestamp: time.Now(),
	}
	if answer != nil {
		rec.Answer = *answer
	}
	for _, hit := range hits {
		rec.Sources = append(rec.Sources, hit.Document.ID)
		rec.ChunkIDs = append(rec.ChunkIDs, chunkKey(&hit.Chunk))
	}
	if err := s.store.LogQuery(ctx, rec); err != nil {
		log.Printf("failed to log query: %v", err)
	}
}

// AnalyzeContract runs an LLM analysis over a stored contract and parses
// the bullet lists out of the free-text answer.
func (s *AnswerService) AnalyzeContract(ctx context.Context, req *types.AnalyzeContractRequest) (*types.ContractAnalysis, error) {
	doc, err := s.store.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	analysisType := req.AnalysisType
	prompt, ok := contractAnalysisPrompts[analysisType]
	if !ok {
		analysisType = "comprehensive"
		prompt = contractAnalysisPrompts[analysisType]
	}

	text := doc.Text
	if len(text) > contractTextLimit {
		text = text[:contractTextLimit] + "..."
	}
	msg, err := s.ai.Chat(ctx, legalSystemPrompt, []types.Message{
		{Role: types.RoleUser, Content: fmt.Sprintf("%s\n\nContrato:\n%s\n\nAnálise:", prompt, text)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrGenerationUnavailable, err)
	}

	analysis := &types.ContractAnalysis{
		DocumentID:   req.DocumentID,
		AnalysisType: analysisType,
		Analysis:     msg.Content,
		Status:       "completed",
	}
	parseAnalysisSections(msg.Content, analysis)
	if len(analysis.IdentifiedLaws) == 0 {
		analysis.IdentifiedLaws = extractLawReferences(doc.Text)
	}
	return analysis, nil
}

func parseAnalysisSections(text string, analysis *types.ContractAnalysis) {
	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "legislação") || strings.Contains(lower, "leis"):
			section = "laws"
		case strings.Contains(lower, "problema") || strings.Contains(lower, "questão"):
			section = "issues"
		case strings.Contains(lower, "sugest"):
			section = "suggestions"
		case line != "" && strings.HasPrefix(line, "-"):
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			switch section {
			case "laws":
				analysis.IdentifiedLaws = append(analysis.IdentifiedLaws, item)
			case "issues":
				analysis.PotentialIssues = append(analysis.PotentialIssues, item)
			case "suggestions":
				analysis.Suggestions = append(analysis.Suggestions, item)
			}
		}
	}
}

// extractLawReferences pulls diploma citations out of free text, keeping
// first-seen order without duplicates.
func extractLawReferences(text string) []string {
	seen := make(map[string]bool)
	var laws []string
	for _, match := range lawReferenceRe.FindAllString(text, -1) {
		if !seen[match] {
			seen[match] = true
			laws = append(laws, match)
		}
	}
	return laws
}
