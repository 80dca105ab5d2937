package types

import "time"

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// QueryResponse carries the generated answer with its cited sources.
// Answer is nil when generation was skipped or degraded to sources-only.
type QueryResponse struct {
	Query          string       `json:"query"`
	Language       string       `json:"language,omitempty"`
	Answer         *string      `json:"answer"`
	Sources        []SourceItem `json:"sources"`
	SearchType     string       `json:"search_type"`
	ProcessingTime float64      `json:"processing_time"`
	Timestamp      time.Time    `json:"timestamp"`
}

// SourceItem is one cited chunk with its parent document metadata.
type SourceItem struct {
	DocumentID      string  `json:"document_id"`
	Title           string  `json:"title"`
	Text            string  `json:"text"`
	DocumentType    string  `json:"document_type,omitempty"`
	DocumentNumber  string  `json:"document_number,omitempty"`
	PublicationDate string  `json:"publication_date,omitempty"`
	URL             string  `json:"url,omitempty"`
	Score           float64 `json:"score"`
}

// IngestResult reports the per-document ingestion outcome.
type IngestResult struct {
	URL           string `json:"url"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	DocumentID    string `json:"document_id,omitempty"`
	ChunksCreated int    `json:"chunks_created"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// ContractAnalysis is the structured result of a contract analysis.
type ContractAnalysis struct {
	DocumentID      string   `json:"document_id"`
	AnalysisType    string   `json:"analysis_type"`
	Analysis        string   `json:"analysis"`
	IdentifiedLaws  []string `json:"identified_laws"`
	PotentialIssues []string `json:"potential_issues"`
	Suggestions     []string `json:"suggestions"`
	Status          string   `json:"status"`
}
