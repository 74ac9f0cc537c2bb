package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"

	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/models"
)

const defaultCaptionLang = "en"

// Media fetches what the Data API does not serve: caption transcripts and
// audio streams of a single video.
type Media struct {
	client *ytdl.Client
}

// NewMedia uses httpClient when non-nil.
func NewMedia(httpClient *http.Client) *Media {
	c := &ytdl.Client{}
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return &Media{client: c}
}

// Lookup resolves a video URL or id.
func (m *Media) Lookup(ctx context.Context, videoURL string) (*ytdl.Video, error) {
	video, err := m.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %v", models.ErrSourceUnavailable, videoURL, err)
	}
	return video, nil
}

// Captions returns the platform transcript of video in lang ("en" when
// empty) as one Document. title overrides the video title.
func (m *Media) Captions(ctx context.Context, video *ytdl.Video, lang, title string) ([]models.Document, error) {
	if lang == "" {
		lang = defaultCaptionLang
	}
	if title == "" {
		title = video.Title
	}
	transcript, err := m.client.GetTranscriptCtx(ctx, video, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: captions of %s: %v", models.ErrSourceUnavailable, video.ID, err)
	}
	doc, err := captionDocument(video.ID, title, lang, transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: captions of %s: %v", models.ErrSourceUnavailable, video.ID, err)
	}
	log.Info().Str("video_id", video.ID).Int("segments", len(transcript)).Msg("Fetched captions")
	return []models.Document{doc}, nil
}

func captionDocument(videoID, title, lang string, transcript ytdl.VideoTranscript) (models.Document, error) {
	texts := make([]string, 0, len(transcript))
	for _, seg := range transcript {
		if text := strings.TrimSpace(seg.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return models.NewDocument(models.TranscriptSourceID(title), title, strings.Join(texts, " "), map[string]string{
		"source":   videoID,
		"title":    title,
		"language": lang,
	})
}

// DownloadAudio saves the highest-bitrate audio-only stream of video into
// dir and returns the file path.
func (m *Media) DownloadAudio(ctx context.Context, video *ytdl.Video, dir string) (string, error) {
	format, err := pickAudioFormat(video.Formats)
	if err != nil {
		return "", err
	}
	stream, _, err := m.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("%w: audio of %s: %v", models.ErrSourceUnavailable, video.ID, err)
	}
	defer stream.Close()

	if err := helper.CreateFolder(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, helper.SafeName(video.Title)+audioExt(format.MimeType))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, stream)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: audio of %s: %v", models.ErrSourceUnavailable, video.ID, err)
	}
	log.Info().Str("video_id", video.ID).Str("path", path).Int64("bytes", n).Msg("Downloaded audio")
	return path, nil
}

func pickAudioFormat(formats ytdl.FormatList) (*ytdl.Format, error) {
	var best *ytdl.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no audio-only stream", models.ErrSourceUnavailable)
	}
	return best, nil
}

func audioExt(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".webm"
	default:
		return ".mp3"
	}
}
