package main

import (
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"talkrag/internal/chunker"
	"talkrag/internal/config"
	"talkrag/internal/domain"
	"talkrag/internal/embedding"
	"talkrag/internal/generation"
	"talkrag/internal/metadata"
	"talkrag/internal/service"
	"talkrag/internal/vectorstore/memory"
	"talkrag/internal/vectorstore/pinecone"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "talkrag",
	Short:         "Retrieval-augmented Q&A over a conference talk corpus",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		log.DefaultLogger = log.Logger{
			Level:  level,
			Writer: &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
		}

		var err error
		if cfgPath == "" {
			var path string
			cfg, path, err = config.LoadDefault()
			if err == nil {
				log.Debug().Str("path", path).Msg("config loaded")
			}
		} else {
			cfg, err = config.Load(cfgPath)
		}
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (defaults to ./config.yaml, then ~/.config/talkrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openaiClient builds the shared Azure OpenAI client. Validate has already
// confirmed the key env is set.
func openaiClient() (openai.Client, error) {
	key, err := cfg.AzureAPIKey()
	if err != nil {
		return openai.Client{}, err
	}
	return openai.NewClient(
		azure.WithEndpoint(cfg.Azure.Endpoint, cfg.Azure.APIVersion),
		azure.WithAPIKey(key),
		option.WithRequestTimeout(time.Duration(cfg.Azure.TimeoutSecs)*time.Second),
	), nil
}

func buildIndex() (domain.Index, error) {
	switch cfg.Store.Type {
	case "memory":
		return memory.New(), nil
	case "pinecone", "":
		key, err := cfg.PineconeAPIKey()
		if err != nil {
			return nil, err
		}
		return pinecone.New(pinecone.Config{
			APIKey:    key,
			IndexName: cfg.Store.Pinecone.IndexName,
			Namespace: cfg.Store.Pinecone.Namespace,
			Cloud:     cfg.Store.Pinecone.Cloud,
			Region:    cfg.Store.Pinecone.Region,
			Timeout:   time.Duration(cfg.Store.Pinecone.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, &domain.ConfigError{Field: "store.type", Msg: "unknown store " + cfg.Store.Type}
	}
}

func buildIngestPipeline() (*service.IngestPipeline, error) {
	api, err := openaiClient()
	if err != nil {
		return nil, err
	}
	index, err := buildIndex()
	if err != nil {
		return nil, err
	}
	ch, err := chunker.NewTokenChunker(chunker.DefaultEncoding, cfg.Pipeline.ChunkMaxTokens)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewClient(api, cfg.Azure.EmbeddingModel, cfg.Pipeline.VectorDimension)
	builder := metadata.NewBuilder(metadata.DefaultSpeakerRule())
	return service.NewIngestPipeline(ch, builder, embedder, index, service.IngestOptions{
		Dimension:     cfg.Pipeline.VectorDimension,
		BatchSize:     cfg.Pipeline.BatchSize,
		ExportPath:    cfg.Corpus.ExportPath,
		RatePerSecond: cfg.Pipeline.RatePerSecond,
	}), nil
}

func buildQueryPipeline() (*service.QueryPipeline, error) {
	api, err := openaiClient()
	if err != nil {
		return nil, err
	}
	index, err := buildIndex()
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewClient(api, cfg.Azure.EmbeddingModel, cfg.Pipeline.VectorDimension)
	generator := generation.NewClient(api, cfg.Azure.ChatModel, cfg.Pipeline.MaxTokens, cfg.Pipeline.Temperature)
	return service.NewQueryPipeline(embedder, index, generator, service.QueryOptions{
		Dimension: cfg.Pipeline.VectorDimension,
		TopK:      cfg.Pipeline.TopK,
	}), nil
}
