package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultChunkSize        = 250
	DefaultChunkOverlap     = 50
	DefaultTopK             = 4
	DefaultPaperWeight      = 0.6
	DefaultTranscriptWeight = 0.4
	DefaultDataDir          = "./data"
	DefaultServerAddr       = ":8080"
)

type Config struct {
	LLM      LLMConfig     `yaml:"llm"`
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	Whisper  LLMConfig     `yaml:"whisper"`
	RAG      RAGConfig     `yaml:"rag"`
	Store    StoreConfig   `yaml:"store"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Arxiv    ArxivConfig   `yaml:"arxiv"`
	YouTube  YouTubeConfig `yaml:"youtube"`
	Server   ServerConfig  `yaml:"server"`
	DataDir  string        `yaml:"data_dir"`
}

// LLMConfig describes one model endpoint. Provider is "openai" (any
// OpenAI-compatible base URL) or "ollama".
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	ChunkStrategy    string  `yaml:"chunk_strategy"`
	TopK             int     `yaml:"top_k"`
	PaperWeight      float64 `yaml:"paper_weight"`
	TranscriptWeight float64 `yaml:"transcript_weight"`
	Fusion           string  `yaml:"fusion"`
	EncryptionKey    string  `yaml:"encryption_key"`
	Compress         bool    `yaml:"compress"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Path     string         `yaml:"path"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"` // e.g. "720h"; zero keeps blobs forever
}

type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	UseSSL          bool   `yaml:"use_ssl"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type ArxivConfig struct {
	BaseURL    string `yaml:"base_url"`
	PDFBaseURL string `yaml:"pdf_base_url"`
	MaxResults int    `yaml:"max_results"`
}

type YouTubeConfig struct {
	APIKey     string `yaml:"api_key"`
	MaxResults int64  `yaml:"max_results"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"`
}

// LoadConfig reads the YAML file at path, expands ${VAR} references from the
// environment, applies defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := newConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newConfig presets the defaults whose zero value is a valid setting, so
// only a missing key picks them up.
func newConfig() *Config {
	return &Config{RAG: RAGConfig{ChunkOverlap: DefaultChunkOverlap}}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := newConfig()
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.ChunkStrategy == "" {
		c.RAG.ChunkStrategy = "fixed"
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.PaperWeight == 0 && c.RAG.TranscriptWeight == 0 {
		c.RAG.PaperWeight = DefaultPaperWeight
		c.RAG.TranscriptWeight = DefaultTranscriptWeight
	}
	if c.RAG.Fusion == "" {
		c.RAG.Fusion = "score"
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = c.DataDir + "/vector_db"
	}
	if c.Store.Database.Driver == "" {
		c.Store.Database.Driver = "pgdriver"
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "paper-rag:"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = c.DataDir + "/paper_csv/papers.db"
	}
	if c.Arxiv.BaseURL == "" {
		c.Arxiv.BaseURL = "https://export.arxiv.org/api/query"
	}
	if c.Arxiv.PDFBaseURL == "" {
		c.Arxiv.PDFBaseURL = "https://arxiv.org/pdf"
	}
	if c.Arxiv.MaxResults == 0 {
		c.Arxiv.MaxResults = 10
	}
	if c.YouTube.MaxResults == 0 {
		c.YouTube.MaxResults = 5
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	for _, l := range []*LLMConfig{&c.LLM, &c.EmbedLLM, &c.Whisper} {
		if l.Provider == "" {
			l.Provider = "openai"
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "text-embedding-3-large"
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "whisper-1"
	}
}

func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	switch c.RAG.ChunkStrategy {
	case "fixed", "recursive":
	default:
		return fmt.Errorf("unsupported rag.chunk_strategy: %s", c.RAG.ChunkStrategy)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.PaperWeight < 0 || c.RAG.TranscriptWeight < 0 {
		return fmt.Errorf("rag weights must not be negative")
	}
	switch c.RAG.Fusion {
	case "score", "rrf":
	default:
		return fmt.Errorf("unsupported rag.fusion: %s", c.RAG.Fusion)
	}
	// chromem-go encrypts with AES-256-GCM
	if c.RAG.EncryptionKey != "" && len(c.RAG.EncryptionKey) != 32 {
		return fmt.Errorf("rag.encryption_key must be 32 bytes, got %d", len(c.RAG.EncryptionKey))
	}
	switch c.Store.Backend {
	case "file", "postgres", "redis", "minio":
	default:
		return fmt.Errorf("unsupported store.backend: %s", c.Store.Backend)
	}
	switch c.Store.Database.Driver {
	case "pgdriver", "pq":
	default:
		return fmt.Errorf("unsupported store.database.driver: %s", c.Store.Database.Driver)
	}
	for name, l := range map[string]LLMConfig{"llm": c.LLM, "embed_llm": c.EmbedLLM, "whisper": c.Whisper} {
		switch l.Provider {
		case "openai", "ollama":
		default:
			return fmt.Errorf("unsupported %s.provider: %s", name, l.Provider)
		}
	}
	return nil
}
