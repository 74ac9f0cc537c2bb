// Package arxiv searches the arXiv Atom API and loads paper full text.
package arxiv

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"paper-review-rag/internal/config"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/parser"
)

type Client struct {
	baseURL    string
	pdfBaseURL string
	maxResults int
	httpClient *http.Client
}

// NewClient uses http.DefaultClient settings with a 60s timeout when
// httpClient is nil.
func NewClient(cfg *config.ArxivConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		pdfBaseURL: strings.TrimSuffix(cfg.PDFBaseURL, "/"),
		maxResults: maxResults,
		httpClient: httpClient,
	}
}

type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
	Links     []link   `xml:"link"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// Search returns up to maxResults papers ordered by relevance. maxResults <= 0
// uses the configured default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	papers, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("query", query).Int("results", len(papers)).Msg("arXiv search")
	return papers, nil
}

// Get fetches the metadata of one paper.
func (c *Client) Get(ctx context.Context, arxivID string) (*models.Paper, error) {
	papers, err := c.query(ctx, url.Values{"id_list": {arxivID}})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w: arxiv paper %s not found", models.ErrSourceUnavailable, arxivID)
	}
	return &papers[0], nil
}

// Load downloads the paper PDF and returns one Document per page.
func (c *Client) Load(ctx context.Context, arxivID string) ([]models.Document, error) {
	paper, err := c.Get(ctx, arxivID)
	if err != nil {
		return nil, err
	}
	pdfURL := paper.PDFURL
	if pdfURL == "" {
		pdfURL = c.pdfBaseURL + "/" + arxivID
	}

	data, err := c.fetch(ctx, pdfURL)
	if err != nil {
		return nil, err
	}
	docs, err := parser.ParsePDF(bytes.NewReader(data), int64(len(data)), arxivID, paper.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read pdf for %s: %v", models.ErrSourceUnavailable, arxivID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: pdf for %s has no text", models.ErrSourceUnavailable, arxivID)
	}
	published := paper.Published.Format("2006-01-02")
	for i := range docs {
		docs[i].Metadata["arxiv_id"] = arxivID
		docs[i].Metadata["published"] = published
		docs[i].Metadata["authors"] = strings.Join(paper.Authors, ", ")
	}
	log.Info().Str("arxiv_id", arxivID).Int("pages", len(docs)).Msg("Loaded paper")
	return docs, nil
}

func (c *Client) query(ctx context.Context, params url.Values) ([]models.Paper, error) {
	data, err := c.fetch(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var f feed
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: invalid arxiv response: %v", models.ErrSourceUnavailable, err)
	}

	papers := make([]models.Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		id := SplitIDFromURL(e.ID)
		// arXiv reports bad ids as an entry pointing at its error page
		if id == "" || strings.Contains(e.ID, "/api/errors") {
			continue
		}
		papers = append(papers, e.paper(id))
	}
	return papers, nil
}

func (e entry) paper(id string) models.Paper {
	p := models.Paper{
		ArxivID: id,
		Title:   collapse(e.Title),
		Summary: collapse(e.Summary),
	}
	for _, a := range e.Authors {
		p.Authors = append(p.Authors, a.Name)
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Published = t
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.PDFURL = l.Href
		}
	}
	return p
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: request failed: %d, %s", models.ErrSourceUnavailable, resp.StatusCode, string(body))
	}
	return body, nil
}

// SplitIDFromURL returns the last path element of an arXiv abs or pdf URL.
func SplitIDFromURL(u string) string {
	u = strings.TrimSuffix(strings.TrimSpace(u), "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	return strings.TrimSuffix(u, ".pdf")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
