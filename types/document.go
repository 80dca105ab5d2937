package types

import "time"

// Document types found in Diário da República.
const (
	DocumentTypeLei         = "lei"
	DocumentTypeDecretoLei  = "decreto_lei"
	DocumentTypeDecreto     = "decreto"
	DocumentTypePortaria    = "portaria"
	DocumentTypeDespacho    = "despacho"
	DocumentTypeResolucao   = "resolucao"
	DocumentTypeRegulamento = "regulamento"
	DocumentTypeAviso       = "aviso"
	DocumentTypeDeliberacao = "deliberacao"
	DocumentTypeContract    = "contract"
	DocumentTypeOther       = "other"
)

const (
	DocumentSourceDiarioRepublica = "diario_republica"
	DocumentSourceUpload          = "upload"
	DocumentSourceManual          = "manual"
	DocumentSourceScraper         = "scraper"
)

// ArticleStructuredTypes are document types chunked by article boundaries
// instead of fixed character windows.
var ArticleStructuredTypes = map[string]bool{
	DocumentTypeLei:         true,
	DocumentTypeDecretoLei:  true,
	DocumentTypeDecreto:     true,
	DocumentTypePortaria:    true,
	DocumentTypeRegulamento: true,
}

// Document represents a stored legal document.
type Document struct {
	ID              string            `bson:"_id,omitempty" json:"id"`
	Title           string            `bson:"title" json:"title"`
	Text            string            `bson:"text" json:"text"`
	Source          string            `bson:"source" json:"source"`
	DocumentType    string            `bson:"document_type" json:"document_type"`
	DocumentNumber  string            `bson:"document_number,omitempty" json:"document_number,omitempty"`
	PublicationDate string            `bson:"publication_date,omitempty" json:"publication_date,omitempty"`
	URL             string            `bson:"url,omitempty" json:"url,omitempty"`
	IssuingBody     string            `bson:"issuing_body,omitempty" json:"issuing_body,omitempty"`
	Description     string            `bson:"description,omitempty" json:"description,omitempty"`
	Metadata        map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt       time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at" json:"updated_at"`
}

// DocumentChunk is one embedded fragment of a document's text.
type DocumentChunk struct {
	ID         string            `bson:"_id,omitempty" json:"id"`
	DocumentID string            `bson:"document_id" json:"document_id"`
	Text       string            `bson:"text" json:"text"`
	ChunkIndex int               `bson:"chunk_index" json:"chunk_index"`
	StartChar  int               `bson:"start_char" json:"start_char"`
	EndChar    int               `bson:"end_char" json:"end_char"`
	Embedding  []float32         `bson:"embedding" json:"-"`
	Metadata   map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time         `bson:"created_at" json:"created_at"`
}

// TextChunk is the raw output of a chunker before embedding.
type TextChunk struct {
	Text      string
	Start     int
	End       int
	Index     int
	ChunkType string   // "character", "articles", "preamble"
	Articles  []string // article numbers covered, when article-chunked
}

// ScoredChunk is a similarity search hit with its parent document attached.
type ScoredChunk struct {
	Chunk    DocumentChunk `json:"chunk"`
	Document Document      `json:"document"`
	Score    float64       `json:"score"`
}

// DocumentRef is the result of a duplicate lookup keyed by source URL.
type DocumentRef struct {
	Exists     bool   `json:"exists"`
	DocumentID string `json:"document_id,omitempty"`
	ChunkCount int64  `json:"chunk_count"`
}

// QueryRecord logs one answered user query. Never mutated after insert.
type QueryRecord struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Query     string    `bson:"query" json:"query"`
	Answer    string    `bson:"answer,omitempty" json:"answer,omitempty"`
	Sources   []string  `bson:"sources,omitempty" json:"sources,omitempty"`
	ChunkIDs  []string  `bson:"chunk_ids,omitempty" json:"chunk_ids,omitempty"`
	Language  string    `bson:"language,omitempty" json:"language,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ScrapedDocument is what the scraper collaborator produces for ingestion.
type ScrapedDocument struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	DocumentType    string `json:"document_type"`
	DocumentNumber  string `json:"document_number,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	IssuingBody     string `json:"issuing_body,omitempty"`
	Description     string `json:"description,omitempty"`
	FullText        string `json:"full_text"`
}

// StoreStats summarizes store contents for the stats endpoint.
type StoreStats struct {
	TotalDocuments int64 `json:"total_documents"`
	TotalChunks    int64 `json:"total_chunks"`
}
