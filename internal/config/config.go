package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"talkrag/internal/domain"
)

// AzureConfig holds the Azure OpenAI connection and model settings. The API
// key itself stays out of the file; APIKeyEnv names the env variable that
// carries it.
type AzureConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIVersion     string `yaml:"api_version"`
	APIKeyEnv      string `yaml:"api_key_env"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// PineconeConfig contains connection details for the Pinecone index.
type PineconeConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	IndexName   string `yaml:"index_name"`
	Namespace   string `yaml:"namespace"`
	Cloud       string `yaml:"cloud"`
	Region      string `yaml:"region"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects the vector store implementation.
type StoreConfig struct {
	Type     string          `yaml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
}

// PipelineConfig tunes chunking, batching and generation.
type PipelineConfig struct {
	VectorDimension int     `yaml:"vector_dimension"`
	ChunkMaxTokens  int     `yaml:"chunk_max_tokens"`
	BatchSize       int     `yaml:"batch_size"`
	TopK            int     `yaml:"top_k"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
}

// CorpusConfig locates the talk corpus and the optional chunk export.
type CorpusConfig struct {
	Path       string `yaml:"path"`
	ExportPath string `yaml:"export_path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Azure    AzureConfig    `yaml:"azure"`
	Store    StoreConfig    `yaml:"store"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Corpus   CorpusConfig   `yaml:"corpus"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/talkrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every required setting before any network call is made.
func (c *AppConfig) Validate() error {
	if c.Azure.Endpoint == "" {
		return &domain.ConfigError{Field: "azure.endpoint", Msg: "required"}
	}
	if c.Azure.EmbeddingModel == "" {
		return &domain.ConfigError{Field: "azure.embedding_model", Msg: "required"}
	}
	if c.Azure.ChatModel == "" {
		return &domain.ConfigError{Field: "azure.chat_model", Msg: "required"}
	}
	if _, err := c.AzureAPIKey(); err != nil {
		return err
	}
	if c.Pipeline.VectorDimension <= 0 {
		return &domain.ConfigError{Field: "pipeline.vector_dimension", Msg: "must be positive"}
	}
	if c.Pipeline.ChunkMaxTokens <= 0 {
		return &domain.ConfigError{Field: "pipeline.chunk_max_tokens", Msg: "must be positive"}
	}
	switch c.Store.Type {
	case "memory":
	case "pinecone", "":
		if c.Store.Pinecone == nil {
			return &domain.ConfigError{Field: "store.pinecone", Msg: "required for pinecone store"}
		}
		if c.Store.Pinecone.IndexName == "" {
			return &domain.ConfigError{Field: "store.pinecone.index_name", Msg: "required"}
		}
		if c.Store.Pinecone.Namespace == "" {
			return &domain.ConfigError{Field: "store.pinecone.namespace", Msg: "required"}
		}
		if _, err := c.PineconeAPIKey(); err != nil {
			return err
		}
	default:
		return &domain.ConfigError{Field: "store.type", Msg: "unknown store " + c.Store.Type}
	}
	return nil
}

// AzureAPIKey resolves the Azure OpenAI key from the configured env var.
func (c *AppConfig) AzureAPIKey() (string, error) {
	key := os.Getenv(c.Azure.APIKeyEnv)
	if key == "" {
		return "", &domain.ConfigError{Field: "azure.api_key_env", Msg: "env " + c.Azure.APIKeyEnv + " is empty"}
	}
	return key, nil
}

// PineconeAPIKey resolves the Pinecone key from the configured env var.
func (c *AppConfig) PineconeAPIKey() (string, error) {
	if c.Store.Pinecone == nil {
		return "", &domain.ConfigError{Field: "store.pinecone", Msg: "missing"}
	}
	key := os.Getenv(c.Store.Pinecone.APIKeyEnv)
	if key == "" {
		return "", &domain.ConfigError{Field: "store.pinecone.api_key_env", Msg: "env " + c.Store.Pinecone.APIKeyEnv + " is empty"}
	}
	return key, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "talkrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Azure: AzureConfig{
			APIVersion:     "2024-12-01-preview",
			APIKeyEnv:      "AZURE_OPENAI_API_KEY",
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o",
		},
		Store: StoreConfig{
			Type: "pinecone",
			Pinecone: &PineconeConfig{
				APIKeyEnv: "PINECONE_API_KEY",
				IndexName: "rag-demo",
				Namespace: "default",
				Cloud:     "aws",
				Region:    "us-east-1",
			},
		},
		Pipeline: PipelineConfig{
			VectorDimension: 1536,
			ChunkMaxTokens:  300,
			BatchSize:       100,
			TopK:            5,
			MaxTokens:       800,
			Temperature:     0.7,
		},
		Corpus: CorpusConfig{
			Path:       "data/general-conference-talks.csv",
			ExportPath: "chunked_conference_talks.csv",
		},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Azure.APIVersion == "" {
		cfg.Azure.APIVersion = "2024-12-01-preview"
	}
	if cfg.Azure.APIKeyEnv == "" {
		cfg.Azure.APIKeyEnv = "AZURE_OPENAI_API_KEY"
	}
	if cfg.Azure.EmbeddingModel == "" {
		cfg.Azure.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Azure.TimeoutSecs == 0 {
		cfg.Azure.TimeoutSecs = 30
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "pinecone"
	}
	if cfg.Store.Type == "pinecone" && cfg.Store.Pinecone != nil {
		if cfg.Store.Pinecone.APIKeyEnv == "" {
			cfg.Store.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.Store.Pinecone.Namespace == "" {
			cfg.Store.Pinecone.Namespace = "default"
		}
		if cfg.Store.Pinecone.Cloud == "" {
			cfg.Store.Pinecone.Cloud = "aws"
		}
		if cfg.Store.Pinecone.Region == "" {
			cfg.Store.Pinecone.Region = "us-east-1"
		}
		if cfg.Store.Pinecone.TimeoutSecs == 0 {
			cfg.Store.Pinecone.TimeoutSecs = 30
		}
	}
	if cfg.Pipeline.VectorDimension == 0 {
		cfg.Pipeline.VectorDimension = 1536
	}
	if cfg.Pipeline.ChunkMaxTokens == 0 {
		cfg.Pipeline.ChunkMaxTokens = 300
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 100
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 5
	}
	if cfg.Pipeline.MaxTokens == 0 {
		cfg.Pipeline.MaxTokens = 800
	}
	if cfg.Pipeline.Temperature == 0 {
		cfg.Pipeline.Temperature = 0.7
	}
}
