package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkrag/internal/domain"
)

func validConfig(t *testing.T) *AppConfig {
	t.Helper()
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-key")
	t.Setenv("PINECONE_API_KEY", "pinecone-key")
	cfg := defaultConfig()
	cfg.Azure.Endpoint = "https://example.cognitiveservices.azure.com/"
	cfg.Azure.ChatModel = "gpt-4o"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingEndpoint(t *testing.T) {
	cfg := validConfig(t)
	cfg.Azure.Endpoint = ""
	err := cfg.Validate()
	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "azure.endpoint", cerr.Field)
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig(t)
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	err := cfg.Validate()
	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestValidate_MemoryStoreNeedsNoPinecone(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store = StoreConfig{Type: "memory"}
	require.NoError(t, cfg.Validate())
}

func TestValidate_BadDimension(t *testing.T) {
	cfg := validConfig(t)
	cfg.Pipeline.VectorDimension = -1
	err := cfg.Validate()
	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "pipeline.vector_dimension", cerr.Field)
}

func TestValidate_UnknownStore(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store.Type = "redis"
	require.Error(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "pinecone", cfg.Store.Type)
	assert.Equal(t, 300, cfg.Pipeline.ChunkMaxTokens)
	assert.Equal(t, 1536, cfg.Pipeline.VectorDimension)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := defaultConfig()
	cfg.Azure.Endpoint = "https://example.azure.com/"
	cfg.Pipeline.TopK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.azure.com/", loaded.Azure.Endpoint)
	assert.Equal(t, 7, loaded.Pipeline.TopK)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("azure:\n  endpoint: https://x.azure.com/\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AZURE_OPENAI_API_KEY", cfg.Azure.APIKeyEnv)
	assert.Equal(t, "2024-12-01-preview", cfg.Azure.APIVersion)
	assert.Equal(t, 100, cfg.Pipeline.BatchSize)
}
