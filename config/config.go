package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string          `mapstructure:"port"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	JWTSecret string          `mapstructure:"JWT_SECRET"`
}

type MongoConfig struct {
	URI                 string `mapstructure:"MONGODB_URI"`
	Database            string `mapstructure:"database"`
	DocumentsCollection string `mapstructure:"documents_collection"`
	VectorsCollection   string `mapstructure:"vectors_collection"`
	QueriesCollection   string `mapstructure:"queries_collection"`
	UsersCollection     string `mapstructure:"users_collection"`
	VectorIndex         string `mapstructure:"vector_index"`
}

type StoreConfig struct {
	// Backend selects the DocumentStore implementation: "mongo" (Atlas
	// vector search), "weaviate" or "memory".
	Backend  string         `mapstructure:"backend"`
	Weaviate WeaviateConfig `mapstructure:"weaviate"`
}

type WeaviateConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

type EmbeddingConfig struct {
	// Provider is "openai" or "gemini".
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	Dimensions   int    `mapstructure:"dimensions"`
	MaxInputLen  int    `mapstructure:"max_input_len"`
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBase   string `mapstructure:"openai_base_url"`
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
}

type LLMConfig struct {
	Provider        string   `mapstructure:"provider"`
	Model           string   `mapstructure:"model"`
	OpenAIAPIKey    string   `mapstructure:"OPENAI_API_KEY"`
	OpenAIBase      string   `mapstructure:"openai_base_url"`
	GeminiAPIKeys   []string `mapstructure:"gemini_api_keys"`
	Temperature     float32  `mapstructure:"temperature"`
	MaxOutputTokens int      `mapstructure:"max_output_tokens"`
	TranslateAPIKey string   `mapstructure:"TRANSLATE_API_KEY"`
}

type RAGConfig struct {
	TopK            int `mapstructure:"top_k"`
	MaxContextChars int `mapstructure:"max_context_chars"`
	SnippetChars    int `mapstructure:"snippet_chars"`
}

type IngestConfig struct {
	ChunkSize        int `mapstructure:"chunk_size"`
	ChunkOverlap     int `mapstructure:"chunk_overlap"`
	MinContentLength int `mapstructure:"min_content_length"`
	Workers          int `mapstructure:"workers"`
}

type ScraperConfig struct {
	BrowseAIAPIKey  string `mapstructure:"BROWSE_AI_API_KEY"`
	RobotID         string `mapstructure:"robot_id"`
	PollSeconds     int    `mapstructure:"poll_seconds"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	RequestDelaySec int    `mapstructure:"request_delay_sec"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Secrets come from the environment, never from the config file.
	v.BindEnv("mongo.MONGODB_URI", "MONGODB_URI")
	v.BindEnv("store.weaviate.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")
	v.BindEnv("embedding.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("embedding.GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.TRANSLATE_API_KEY", "TRANSLATE_API_KEY")
	v.BindEnv("scraper.BROWSE_AI_API_KEY", "BROWSE_AI_API_KEY")
	v.BindEnv("JWT_SECRET")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("mongo.database", "legal_assistant")
	v.SetDefault("mongo.documents_collection", "documents")
	v.SetDefault("mongo.vectors_collection", "vectors")
	v.SetDefault("mongo.queries_collection", "queries")
	v.SetDefault("mongo.users_collection", "users")
	v.SetDefault("mongo.vector_index", "vector_index")
	v.SetDefault("store.backend", "mongo")
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-large")
	v.SetDefault("embedding.dimensions", 3072)
	v.SetDefault("embedding.max_input_len", 8000)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_output_tokens", 2048)
	v.SetDefault("rag.top_k", 5)
	v.SetDefault("rag.max_context_chars", 8000)
	v.SetDefault("rag.snippet_chars", 1000)
	v.SetDefault("ingest.chunk_size", 1000)
	v.SetDefault("ingest.chunk_overlap", 200)
	v.SetDefault("ingest.min_content_length", 100)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("scraper.poll_seconds", 10)
	v.SetDefault("scraper.timeout_seconds", 300)
	v.SetDefault("scraper.request_delay_sec", 1)
}

// Validate rejects configurations that would corrupt the index. A chunk
// overlap at or above the chunk size would loop forever, and a wrong
// dimension count is caught here once instead of per request.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	return nil
}
