package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"talkrag/internal/corpus"
)

var (
	ingestCSV    string
	ingestExport string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk the talk corpus, embed it and upsert it into the vector index",
	Long: `Loads the corpus CSV, splits every talk into token-bounded chunks,
embeds each batch and upserts it into the configured index namespace.
The namespace is cleared first; a failed batch is reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "corpus CSV path (overrides config)")
	ingestCmd.Flags().StringVar(&ingestExport, "export", "", "chunk export CSV path (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestCSV != "" {
		cfg.Corpus.Path = ingestCSV
	}
	if ingestExport != "" {
		cfg.Corpus.ExportPath = ingestExport
	}

	docs, err := corpus.LoadCSV(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", cfg.Corpus.Path)
	}

	pipeline, err := buildIngestPipeline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.Run(ctx, docs)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d documents: %d/%d chunks written in %d batches",
		summary.Documents, summary.ChunksWritten, summary.ChunksTotal, summary.BatchesTotal)
	cmd.Println()
	if summary.BatchesFailed > 0 {
		cmd.Printf("Failed batches: %v", summary.FailedBatches)
		cmd.Println()
	}
	return nil
}
