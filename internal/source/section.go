package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/types"
)

// articlePath matches dated article paths such as /world/2024/jan/05/slug.
var articlePath = regexp.MustCompile(`^/.+/\d{4}/[a-z]{3}/\d{2}/.+`)

// SectionArticles collects dated article links from a section front, then
// visits each article to find its discussion key. Articles without a key or
// that fail to load are skipped.
func (g *Guardian) SectionArticles(ctx context.Context, sectionURL string, limit int) ([]Article, error) {
	limit = ClampLimit(limit)
	base, err := url.Parse(sectionURL)
	if err != nil {
		return nil, fmt.Errorf("parse section url: %w", err)
	}
	page, err := g.get(ctx, sectionURL)
	if err != nil {
		return nil, &types.SourceFetchError{Source: sourceName, Key: sectionURL, Err: err}
	}
	links, err := articleLinks(page, base, limit)
	if err != nil {
		return nil, &types.SourceFetchError{Source: sourceName, Key: sectionURL, Err: err}
	}
	g.log.WithFields(logrus.Fields{"section": sectionURL, "links": len(links)}).Info("section links found")

	articles := make([]Article, 0, len(links))
	for _, a := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := g.get(ctx, a.URL)
		if err != nil {
			g.log.WithError(err).WithField("url", a.URL).Debug("article page failed, skipping")
			continue
		}
		a.Key = keyFromPage(body)
		if a.Key == "" {
			g.log.WithField("url", a.URL).Debug("article has no discussion, skipping")
			continue
		}
		if a.Title == "" {
			a.Title = pageTitle(body)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// articleLinks returns distinct same-host article links in document order.
func articleLinks(page []byte, base *url.URL, limit int) ([]Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Article
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		u := base.ResolveReference(ref)
		u.Fragment = ""
		u.RawQuery = ""
		if u.Host != base.Host || !articlePath.MatchString(u.Path) {
			return true
		}
		s := u.String()
		if seen[s] {
			return true
		}
		seen[s] = true
		out = append(out, Article{URL: s, Title: strings.Join(strings.Fields(sel.Text()), " ")})
		return len(out) < limit
	})
	return out, nil
}

// pageTitle reads <title>, dropping the " | site" suffix.
func pageTitle(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "Unknown"
	}
	title, _, _ := strings.Cut(doc.Find("title").First().Text(), "|")
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return "Unknown"
}
