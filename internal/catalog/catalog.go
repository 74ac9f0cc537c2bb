// Package catalog keeps the list of papers marked as interesting.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver

	"paper-review-rag/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	arxiv_id  TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	summary   TEXT NOT NULL DEFAULT '',
	authors   TEXT NOT NULL DEFAULT '',
	published TEXT NOT NULL DEFAULT '',
	pdf_url   TEXT NOT NULL DEFAULT '',
	added_at  TEXT NOT NULL
)`

// authorSep joins author names in one column; names never contain it.
const authorSep = "\x1f"

type Catalog struct {
	db   *sql.DB
	path string
}

// Open creates the database file and its directory when missing.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) Path() string {
	return c.path
}

// Add stores p unless a paper with the same id is already listed. It reports
// whether a row was inserted.
func (c *Catalog) Add(ctx context.Context, p models.Paper) (bool, error) {
	if p.ArxivID == "" {
		return false, fmt.Errorf("paper has no arxiv id")
	}
	published := ""
	if !p.Published.IsZero() {
		published = p.Published.UTC().Format(time.RFC3339)
	}
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO papers (arxiv_id, title, summary, authors, published, pdf_url, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(arxiv_id) DO NOTHING`,
		p.ArxivID, p.Title, p.Summary, strings.Join(p.Authors, authorSep), published, p.PDFURL,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("adding paper %s: %w", p.ArxivID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		log.Debug().Str("arxiv_id", p.ArxivID).Msg("Paper already in catalog")
	}
	return n > 0, nil
}

// Remove deletes arxivID and reports whether it was listed.
func (c *Catalog) Remove(ctx context.Context, arxivID string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM papers WHERE arxiv_id = ?`, arxivID)
	if err != nil {
		return false, fmt.Errorf("removing paper %s: %w", arxivID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Toggle removes p when listed and adds it otherwise. It returns whether p is
// listed afterwards.
func (c *Catalog) Toggle(ctx context.Context, p models.Paper) (bool, error) {
	removed, err := c.Remove(ctx, p.ArxivID)
	if err != nil || removed {
		return false, err
	}
	return c.Add(ctx, p)
}

func (c *Catalog) Contains(ctx context.Context, arxivID string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM papers WHERE arxiv_id = ?`, arxivID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up paper %s: %w", arxivID, err)
	}
	return true, nil
}

// Get returns sql.ErrNoRows wrapped when arxivID is not listed.
func (c *Catalog) Get(ctx context.Context, arxivID string) (*models.Paper, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT arxiv_id, title, summary, authors, published, pdf_url FROM papers WHERE arxiv_id = ?`, arxivID)
	p, err := scanPaper(row)
	if err != nil {
		return nil, fmt.Errorf("getting paper %s: %w", arxivID, err)
	}
	return p, nil
}

// List returns the papers in the order they were added.
func (c *Catalog) List(ctx context.Context) ([]models.Paper, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT arxiv_id, title, summary, authors, published, pdf_url FROM papers ORDER BY added_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var papers []models.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(s scanner) (*models.Paper, error) {
	var (
		p                  models.Paper
		authors, published string
	)
	if err := s.Scan(&p.ArxivID, &p.Title, &p.Summary, &authors, &published, &p.PDFURL); err != nil {
		return nil, err
	}
	if authors != "" {
		p.Authors = strings.Split(authors, authorSep)
	}
	if published != "" {
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			p.Published = t
		}
	}
	return &p, nil
}
