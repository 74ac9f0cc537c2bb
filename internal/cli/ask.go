package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/parser"
	"paper-review-rag/internal/session"
)

var (
	askPaper       string
	askTranscripts []string
	askLang        string
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the paper and transcript indexes",
	Long: `Builds (or loads) the paper index and any transcript indexes, then answers
the question with the language model. Transcript files are JSON lines or plain
text; the video name is the name of the directory holding the file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	for _, c := range []*cobra.Command{askCmd, chatCmd} {
		c.Flags().StringVarP(&askPaper, "paper", "p", "", "arXiv id of the paper to index")
		c.Flags().StringSliceVarP(&askTranscripts, "transcript", "t", nil, "transcript file to index (repeatable)")
		c.Flags().StringVarP(&askLang, "lang", "l", "", "answer language, e.g. ko")
		c.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved passages")
	}
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

// videoName is the directory a transcript file lives in, matching the layout
// written by the transcribe command.
func videoName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return dir
}

func prepareSession(ctx context.Context) (*app.Service, error) {
	svc, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if askPaper != "" {
		info, err := svc.BuildPaperIndex(ctx, askPaper)
		if err != nil {
			log.Error().Err(err).Str("arxiv_id", askPaper).Msg("Paper index unavailable")
		} else {
			log.Info().Str("source_id", info.SourceID).Int("chunks", info.Chunks).Msg("Paper index ready")
		}
	}
	for _, path := range askTranscripts {
		name := videoName(path)
		docs, err := parser.ParseFile(path, models.TranscriptSourceID(name), name)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to read transcript")
			continue
		}
		if _, err := svc.BuildTranscriptIndex(ctx, name, docs); err != nil {
			log.Error().Err(err).Str("video", name).Msg("Transcript index unavailable")
		}
	}

	switch stage := svc.Stage(); stage {
	case session.Both:
		log.Info().Msg("Using the paper and transcript retrievers together")
	case session.None:
		log.Warn().Msg("No retriever is available")
	default:
		log.Warn().Stringer("stage", stage).Msg("Only one retriever is available")
	}
	return svc, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := prepareSession(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	return answer(ctx, cmd.OutOrStdout(), svc, strings.Join(args, " "))
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := prepareSession(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), svc)
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, svc *app.Service) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		switch q {
		case "":
		case "exit", "quit":
			return nil
		default:
			// a failed question is reported and the chat goes on
			if err := answer(ctx, out, svc, q); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func answer(ctx context.Context, out io.Writer, svc *app.Service, question string) error {
	a, err := svc.Ask(ctx, question, askLang)
	if errors.Is(err, models.ErrNoRetriever) {
		return fmt.Errorf("no index is available, pass --paper or --transcript: %w", err)
	}
	if err != nil {
		return err
	}
	if askShowContext {
		for i, c := range a.Context {
			fmt.Fprintf(out, "[%d] %s (%.3f)\n%s\n\n", i+1, c.Chunk.SourceID, c.Score, c.Chunk.Content)
		}
	}
	fmt.Fprintf(out, "## Answer\n%s\n", a.Content)
	return nil
}
