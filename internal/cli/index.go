package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/indexer"
	"paper-review-rag/internal/models"
)

var indexTranscript bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage persisted vector indexes",
}

var indexRmCmd = &cobra.Command{
	Use:   "rm [arxiv-id|video-name]",
	Short: "Delete a persisted index so the next build re-embeds it",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexRm,
}

func init() {
	indexRmCmd.Flags().BoolVar(&indexTranscript, "transcript", false, "the argument names a video transcript")
	indexCmd.AddCommand(indexRmCmd)
	rootCmd.AddCommand(indexCmd)
}

func indexSourceID(name string, transcript bool) string {
	if transcript {
		return models.TranscriptSourceID(name)
	}
	return models.PaperSourceID(name)
}

func runIndexRm(cmd *cobra.Command, args []string) error {
	svc, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	sourceID := indexSourceID(args[0], indexTranscript)
	err = svc.RemoveIndex(cmd.Context(), sourceID)
	if indexer.IsNotFound(err) {
		return fmt.Errorf("no index persisted for %s", sourceID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", sourceID)
	return nil
}
