package types

// QueryRequest asks a natural-language question against the corpus.
type QueryRequest struct {
	Query      string        `json:"query"`
	Language   string        `json:"language,omitempty"` // "pt" (default) or "en"
	TopK       int           `json:"top_k,omitempty"`
	UseLLM     *bool         `json:"use_llm,omitempty"`
	SearchType string        `json:"search_type,omitempty"` // "vector", "text" or "hybrid"
	Filter     *SearchFilter `json:"filter,omitempty"`
}

// SearchFilter narrows similarity search by document attributes.
type SearchFilter struct {
	DocumentType string `json:"document_type,omitempty"`
	DateFrom     string `json:"date_from,omitempty"` // YYYY-MM-DD, inclusive
	DateTo       string `json:"date_to,omitempty"`
}

// IngestRequest submits one scraped document for ingestion.
type IngestRequest struct {
	Document ScrapedDocument `json:"document"`
	Force    bool            `json:"force,omitempty"` // re-ingest even if the URL exists
}

// BatchIngestRequest submits several documents at once.
type BatchIngestRequest struct {
	Documents []ScrapedDocument `json:"documents"`
	Force     bool              `json:"force,omitempty"`
}

// AnalyzeContractRequest asks for an LLM analysis of a stored contract.
type AnalyzeContractRequest struct {
	DocumentID   string `json:"document_id"`
	AnalysisType string `json:"analysis_type,omitempty"` // comprehensive, summary, compliance
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
