package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/models"
)

const searchJSON = `{
  "items": [
    {"id": {"kind": "youtube#video", "videoId": "abc"}},
    {"id": {"kind": "youtube#channel", "channelId": "chan"}},
    {"id": {"kind": "youtube#video", "videoId": "def"}}
  ]
}`

const videosJSON = `{
  "items": [
    {
      "id": "abc",
      "snippet": {
        "title": "Attention Is All You Need explained",
        "publishedAt": "2020-01-02T03:04:05Z",
        "thumbnails": {"high": {"url": "https://i.ytimg.com/abc.jpg"}}
      },
      "statistics": {"viewCount": "123456", "likeCount": "4321", "commentCount": "12"}
    },
    {
      "id": "def",
      "snippet": {"title": "Transformers", "publishedAt": "2021-05-06T07:08:09Z"},
      "statistics": {"viewCount": "999"}
    }
  ]
}`

func TestSearch(t *testing.T) {
	var searchQuery, videoIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			searchQuery = r.URL.RawQuery
			w.Write([]byte(searchJSON))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			videoIDs = strings.Join(r.URL.Query()["id"], ",")
			w.Write([]byte(videosJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := NewClient(ctx, &config.YouTubeConfig{MaxResults: 5},
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	videos, err := c.Search(ctx, "attention is all you need", 0)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Contains(t, searchQuery, "type=video")
	assert.Contains(t, searchQuery, "maxResults=5")
	assert.Equal(t, "abc,def", videoIDs)

	v := videos[0]
	assert.Equal(t, "abc", v.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", v.URL)
	assert.Equal(t, uint64(123456), v.ViewCount)
	assert.Equal(t, uint64(4321), v.LikeCount)
	assert.Equal(t, "https://i.ytimg.com/abc.jpg", v.ThumbnailURL)
	assert.Equal(t, 2020, v.PublishedAt.Year())
	assert.Equal(t, "Views: 123K views | Likes: 4,321 | Comments: 12", Summary(v))

	assert.Empty(t, videos[1].ThumbnailURL)
}

func TestSearchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "quota"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := NewClient(ctx, &config.YouTubeConfig{},
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Search(ctx, "x", 1)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestViewCount(t *testing.T) {
	assert.Equal(t, "999", ViewCount(999))
	assert.Equal(t, "1K views", ViewCount(1000))
	assert.Equal(t, "999K views", ViewCount(999999))
	assert.Equal(t, "3M views", ViewCount(3500000))
}

func TestTimeSince(t *testing.T) {
	assert.Equal(t, "2 hours ago", TimeSince(time.Now().Add(-2*time.Hour)))
}
