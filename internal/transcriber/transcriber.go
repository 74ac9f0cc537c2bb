// Package transcriber turns audio files into transcript documents with the
// OpenAI Whisper API.
package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/models"
)

const (
	whisperScript = "whisper_script.json"
	captionScript = "script.json"
	audioDir      = "youtube_audio"
)

type Transcriber struct {
	client *openai.Client
	model  string
}

func New(llmConfig *config.LLMConfig) (*Transcriber, error) {
	if llmConfig.Provider != "" && llmConfig.Provider != "openai" {
		return nil, fmt.Errorf("unsupported whisper provider: %s", llmConfig.Provider)
	}
	clientConfig := openai.DefaultConfig(strings.TrimPrefix(llmConfig.Key, "Bearer "))
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}
	model := llmConfig.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{client: openai.NewClientWithConfig(clientConfig), model: model}, nil
}

// Transcribe sends the audio file at path for speech-to-text. language is an
// optional ISO-639-1 hint.
func (t *Transcriber) Transcribe(ctx context.Context, path, language, sourceID, title string) ([]models.Document, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: transcription of %s: %v", models.ErrSourceUnavailable, filepath.Base(path), err)
	}

	meta := map[string]string{"source": path, "title": title}
	if language != "" {
		meta["language"] = language
	}
	doc, err := models.NewDocument(sourceID, title, resp.Text, meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	log.Info().Str("source_id", sourceID).Int("chars", len(resp.Text)).Msg("Transcribed audio")
	return []models.Document{doc}, nil
}

// VideoDir holds the downloaded audio and transcripts of a video reviewing
// arxivID.
func VideoDir(dataDir, arxivID, videoTitle string) string {
	return filepath.Join(dataDir, audioDir, helper.SafeName(arxivID), helper.SafeName(videoTitle))
}

// ScriptPath is where the Whisper transcript of a video is kept.
func ScriptPath(dataDir, arxivID, videoTitle string) string {
	return filepath.Join(VideoDir(dataDir, arxivID, videoTitle), whisperScript)
}

// CaptionPath is where the platform caption transcript of a video is kept.
func CaptionPath(dataDir, arxivID, videoTitle string) string {
	return filepath.Join(VideoDir(dataDir, arxivID, videoTitle), captionScript)
}

// ExistingScript returns the saved transcript of a video, preferring the
// Whisper one over captions.
func ExistingScript(dataDir, arxivID, videoTitle string) (string, bool) {
	for _, p := range []string{ScriptPath(dataDir, arxivID, videoTitle), CaptionPath(dataDir, arxivID, videoTitle)} {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
