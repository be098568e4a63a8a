package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/source"
	"comment-insights-go/internal/types"
)

// Dump is a saved comment collection: the scraper's JSON output or a
// spreadsheet export.
type Dump struct {
	Title     string
	URL       string
	ScrapedAt string
	Comments  []types.Comment
}

// Articles counts the distinct article titles the comments came from.
func (d *Dump) Articles() int {
	return len(articleTitles(d.Comments))
}

type dumpComment struct {
	source.RawComment
	ArticleTitle string `json:"_article_title"`
}

type jsonDump struct {
	Discussion struct {
		Title  string `json:"title"`
		WebURL string `json:"webUrl"`
	} `json:"discussion"`
	SourceURL string        `json:"sourceUrl"`
	ScrapedAt string        `json:"scrapedAt"`
	Comments  []dumpComment `json:"comments"`
}

// Load reads a .json scrape dump or the first sheet of an .xlsx workbook.
func Load(path string) (*Dump, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".xlsx", ".xlsm":
		return loadSheet(path)
	default:
		return nil, fmt.Errorf("unsupported dump format %q", filepath.Ext(path))
	}
}

func loadJSON(path string) (*Dump, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	var raw jsonDump
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}

	d := &Dump{
		Title:     raw.Discussion.Title,
		URL:       raw.SourceURL,
		ScrapedAt: raw.ScrapedAt,
		Comments:  make([]types.Comment, 0, len(raw.Comments)),
	}
	if d.URL == "" {
		d.URL = raw.Discussion.WebURL
	}
	for _, c := range raw.Comments {
		title := c.ArticleTitle
		if title == "" {
			title = d.Title
		}
		d.Comments = append(d.Comments, c.ToComment(title))
	}
	return d, nil
}

type columns struct {
	body, recommends, author, authorID, article int
}

// detectColumns maps header names to fields by keyword.
func detectColumns(header []string) columns {
	c := columns{body: -1, recommends: -1, author: -1, authorID: -1, article: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "recommend") || strings.Contains(l, "like") || strings.Contains(l, "score") || strings.Contains(l, "upvote"):
			if c.recommends == -1 {
				c.recommends = i
			}
		case (strings.Contains(l, "user") || strings.Contains(l, "author")) && strings.Contains(l, "id"):
			if c.authorID == -1 {
				c.authorID = i
			}
		case strings.Contains(l, "author") || strings.Contains(l, "user") || strings.Contains(l, "name"):
			if c.author == -1 {
				c.author = i
			}
		case strings.Contains(l, "article") || strings.Contains(l, "title"):
			if c.article == -1 {
				c.article = i
			}
		case strings.Contains(l, "body") || strings.Contains(l, "comment") || strings.Contains(l, "text"):
			if c.body == -1 {
				c.body = i
			}
		}
	}
	// fallback: first column holds the text
	if c.body == -1 {
		c.body = 0
	}
	return c
}

func cell(r []string, idx int) string {
	if idx >= 0 && idx < len(r) {
		return strings.TrimSpace(r[idx])
	}
	return ""
}

func loadSheet(path string) (*Dump, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	d := &Dump{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	for _, r := range rows[1:] {
		c := types.Comment{
			Body:         cell(r, cols.body),
			AuthorName:   cell(r, cols.author),
			AuthorID:     cell(r, cols.authorID),
			ArticleTitle: cell(r, cols.article),
		}
		// skip rows without text quietly
		if c.Body == "" {
			continue
		}
		if n := cell(r, cols.recommends); n != "" {
			if v, err := strconv.ParseFloat(n, 64); err == nil {
				c.RecommendCount = int(v)
			}
		}
		if c.ArticleTitle == "" {
			c.ArticleTitle = d.Title
		}
		d.Comments = append(d.Comments, c)
	}
	return d, nil
}
