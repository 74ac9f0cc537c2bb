// Package youtube finds review videos for a paper through the YouTube Data
// API.
package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/models"
)

const watchURL = "https://www.youtube.com/watch?v="

type Client struct {
	svc        *yt.Service
	maxResults int64
}

// NewClient authenticates with the configured API key. Extra options are
// appended, which lets tests point the client at another endpoint.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{svc: svc, maxResults: maxResults}, nil
}

// Search looks up videos matching query and fetches their statistics.
// maxResults <= 0 uses the configured default.
func (c *Client) Search(ctx context.Context, query string, maxResults int64) ([]models.Video, error) {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	searchResp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(maxResults).
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: youtube search: %v", models.ErrSourceUnavailable, err)
	}

	var ids []string
	for _, item := range searchResp.Items {
		if item.Id != nil && item.Id.Kind == "youtube#video" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videoResp, err := c.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: youtube videos: %v", models.ErrSourceUnavailable, err)
	}

	videos := make([]models.Video, 0, len(videoResp.Items))
	for _, item := range videoResp.Items {
		videos = append(videos, toVideo(item))
	}
	log.Debug().Str("query", query).Int("videos", len(videos)).Msg("YouTube search")
	return videos, nil
}

func toVideo(item *yt.Video) models.Video {
	v := models.Video{ID: item.Id, URL: watchURL + item.Id}
	if s := item.Snippet; s != nil {
		v.Title = s.Title
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			v.PublishedAt = t
		}
		if s.Thumbnails != nil && s.Thumbnails.High != nil {
			v.ThumbnailURL = s.Thumbnails.High.Url
		}
	}
	if st := item.Statistics; st != nil {
		v.ViewCount = st.ViewCount
		v.LikeCount = st.LikeCount
		v.CommentCount = st.CommentCount
	}
	return v
}

// TimeSince renders t relative to now, e.g. "3 months ago".
func TimeSince(t time.Time) string {
	return humanize.Time(t)
}

// ViewCount abbreviates a view count: 999, 12K views, 3M views.
func ViewCount(n uint64) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1000000:
		return fmt.Sprintf("%dK views", n/1000)
	default:
		return fmt.Sprintf("%dM views", n/1000000)
	}
}

// Summary is the one-line description shown under a video.
func Summary(v models.Video) string {
	return fmt.Sprintf("Views: %s | Likes: %s | Comments: %s",
		ViewCount(v.ViewCount), humanize.Comma(int64(v.LikeCount)), humanize.Comma(int64(v.CommentCount)))
}
