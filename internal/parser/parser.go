package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"paper-review-rag/internal/models"
)

const (
	MetaPage   = "page"
	MetaSource = "source"
	MetaSheet  = "sheet"
)

// ParseFile loads path as Documents tagged with sourceID. Paged formats
// produce one Document per page, slide or sheet; empty pages are skipped.
func ParseFile(path, sourceID, title string) ([]models.Document, error) {
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var (
		docs []models.Document
		err  error
	)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		docs, err = parsePDFFile(path, sourceID, title)
	case ".docx":
		docs, err = parseDOCX(path, sourceID, title)
	case ".pptx":
		docs, err = parsePPTX(path, sourceID, title)
	case ".xlsx":
		docs, err = parseXLSX(path, sourceID, title)
	case ".xlsm", ".xltx":
		docs, err = parseSpreadsheet(path, sourceID, title)
	case ".txt":
		docs, err = parseText(path, sourceID, title)
	case ".md", ".markdown":
		docs, err = parseMarkdown(path, sourceID, title)
	case ".jsonl", ".json":
		// transcripts are saved as JSON lines under a .json name
		docs, err = LoadJSONL(path, sourceID)
		for i := range docs {
			if docs[i].Title == "" {
				docs[i].Title = title
			}
		}
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("source_id", sourceID).Int("documents", len(docs)).Msg("Parsed file")
	return docs, nil
}

func newDoc(sourceID, title, content string, page int, extra map[string]string) (models.Document, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Document{}, false
	}
	meta := map[string]string{MetaPage: strconv.Itoa(page)}
	for k, v := range extra {
		meta[k] = v
	}
	doc, err := models.NewDocument(sourceID, title, content, meta)
	if err != nil {
		return models.Document{}, false
	}
	return doc, true
}

func parsePDFFile(path, sourceID, title string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ParsePDF(f, stat.Size(), sourceID, title)
}

// ParsePDF extracts the plain text of each page.
func ParsePDF(r io.ReaderAt, size int64, sourceID, title string) ([]models.Document, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if doc, ok := newDoc(sourceID, title, text, i, nil); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func parseDOCX(path, sourceID, title string) ([]models.Document, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := stripXMLTags(r.Editable().GetContent())
	if doc, ok := newDoc(sourceID, title, content, 1, nil); ok {
		return []models.Document{doc}, nil
	}
	return nil, nil
}

func parsePPTX(path, sourceID, title string) ([]models.Document, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, file := range f.File {
		name := file.Name
		if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml"))
		if err != nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		slides = append(slides, slide{num: num, text: extractTextFromXML(string(data))})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var docs []models.Document
	for _, s := range slides {
		if doc, ok := newDoc(sourceID, title, s.text, s.num, nil); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func parseXLSX(path, sourceID, title string) ([]models.Document, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	for i, sheet := range f.Sheets {
		var rows [][]string
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		if doc, ok := newDoc(sourceID, title, sheetText(rows), i+1, map[string]string{MetaSheet: sheet.Name}); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func parseSpreadsheet(path, sourceID, title string) ([]models.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []models.Document
	for i, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		if doc, ok := newDoc(sourceID, title, sheetText(rows), i+1, map[string]string{MetaSheet: name}); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// sheetText renders rows tab separated, one row per line.
func sheetText(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

func parseText(path, sourceID, title string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if doc, ok := newDoc(sourceID, title, string(data), 1, nil); ok {
		return []models.Document{doc}, nil
	}
	return nil, nil
}

func parseMarkdown(path, sourceID, title string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := MarkdownToText(data)
	if err != nil {
		return nil, err
	}
	if doc, ok := newDoc(sourceID, title, text, 1, nil); ok {
		return []models.Document{doc}, nil
	}
	return nil, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// stripXMLTags drops the markup docx leaves in GetContent, turning paragraph
// ends into newlines.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<':
			inTag = true
			if strings.HasPrefix(s[i:], "</w:p>") {
				b.WriteByte('\n')
			}
		case c == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteByte(c)
		}
	}
	return b.String()
}
