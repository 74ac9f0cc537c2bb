package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"paper-review-rag/internal/app"
	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/parser"
	"paper-review-rag/internal/transcriber"
	"paper-review-rag/internal/youtube"
)

var (
	translateLang string
	videosMax     int64
	videosJSON    bool

	transcribeArxivID  string
	transcribeTitle    string
	transcribeLang     string
	transcribeCaptions bool
	transcribeForce    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [arxiv-id]",
	Short: "Translate a paper abstract",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

var videosCmd = &cobra.Command{
	Use:   "videos [query]",
	Short: "Search YouTube for review videos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVideos,
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [video-url|audio-file]",
	Short: "Transcribe a review video",
	Long: `Downloads the audio of a video URL (or takes a local audio file) and sends it
to the speech-to-text API, or with --captions fetches the video's own captions.
The transcript is stored as JSON lines under
<data_dir>/youtube_audio/<arxiv-id>/<title>/ as whisper_script.json or script.json.
An existing transcript is printed instead unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	translateCmd.Flags().StringVarP(&translateLang, "lang", "l", "ko", "target language")

	videosCmd.Flags().Int64VarP(&videosMax, "max", "n", 0, "maximum number of videos (default from config)")
	videosCmd.Flags().BoolVar(&videosJSON, "json", false, "output results as JSON")

	transcribeCmd.Flags().StringVar(&transcribeArxivID, "arxiv-id", "", "paper the video reviews")
	transcribeCmd.Flags().StringVar(&transcribeTitle, "title", "", "video title (default: the video title or audio file name)")
	transcribeCmd.Flags().StringVarP(&transcribeLang, "lang", "l", "", "spoken language hint or caption language, e.g. en")
	transcribeCmd.Flags().BoolVar(&transcribeCaptions, "captions", false, "fetch the platform captions instead of running Whisper")
	transcribeCmd.Flags().BoolVar(&transcribeForce, "force", false, "transcribe again even if a transcript exists")
	_ = transcribeCmd.MarkFlagRequired("arxiv-id")

	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(transcribeCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	paper, err := lookupAbstract(ctx, args[0])
	if err != nil {
		return err
	}
	svc, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	tr, err := svc.Translate(ctx, paper.ArxivID, paper.Summary, translateLang)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "### %s\n\n%s\n", paper.Title, tr.Translated)
	return nil
}

func runVideos(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		return err
	}
	videos, err := client.Search(ctx, strings.Join(args, " "), videosMax)
	if err != nil {
		return err
	}
	if videosJSON {
		helper.PrettyPrint(cmd.OutOrStdout(), videos)
		return nil
	}
	for _, v := range videos {
		fmt.Fprintf(cmd.OutOrStdout(), "## %s\n%s\nPublished %s\n%s\n\n",
			v.Title, youtube.Summary(v), youtube.TimeSince(v.PublishedAt), v.URL)
	}
	return nil
}

func isVideoURL(arg string) bool {
	return strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source := args[0]
	if transcribeCaptions && !isVideoURL(source) {
		return fmt.Errorf("--captions needs a video URL, got %s", source)
	}

	title := transcribeTitle
	var (
		media *youtube.Media
		video *ytdl.Video
	)
	if isVideoURL(source) {
		media = youtube.NewMedia(nil)
		v, err := media.Lookup(ctx, source)
		if err != nil {
			return err
		}
		video = v
		if title == "" {
			title = video.Title
		}
	} else if title == "" {
		title = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	if existing, ok := transcriber.ExistingScript(cfg.DataDir, transcribeArxivID, title); ok && !transcribeForce {
		docs, err := parser.LoadJSONL(existing, models.TranscriptSourceID(title))
		if err != nil {
			return err
		}
		log.Info().Str("path", existing).Msg("Transcript exists, use --force to redo it")
		fmt.Fprintln(cmd.OutOrStdout(), parser.JoinContent(docs))
		return nil
	}

	var (
		docs []models.Document
		out  string
		err  error
	)
	switch {
	case transcribeCaptions:
		docs, err = media.Captions(ctx, video, transcribeLang, title)
		out = transcriber.CaptionPath(cfg.DataDir, transcribeArxivID, title)
	default:
		audio := source
		if video != nil {
			audio, err = media.DownloadAudio(ctx, video, transcriber.VideoDir(cfg.DataDir, transcribeArxivID, title))
			if err != nil {
				return err
			}
		}
		docs, err = whisper(ctx, audio, title)
		out = transcriber.ScriptPath(cfg.DataDir, transcribeArxivID, title)
	}
	if err != nil {
		return err
	}

	if err := helper.CreateFolder(filepath.Dir(out)); err != nil {
		return err
	}
	if err := parser.SaveJSONL(out, docs); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	log.Info().Str("path", out).Msg("Saved transcript")
	fmt.Fprintln(cmd.OutOrStdout(), parser.JoinContent(docs))
	return nil
}

func whisper(ctx context.Context, audio, title string) ([]models.Document, error) {
	tr, err := transcriber.New(&cfg.Whisper)
	if err != nil {
		return nil, err
	}
	return tr.Transcribe(ctx, audio, transcribeLang, models.TranscriptSourceID(title), title)
}
