package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/types"
)

const sourceName = "guardian"

// MaxArticles caps keyword and section requests.
const MaxArticles = 20

// ClampLimit bounds an article limit to 1..MaxArticles.
func ClampLimit(limit int) int {
	return max(1, min(limit, MaxArticles))
}

var (
	shortURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"shortUrl"\s*:\s*"https?://(?:www\.)?theguardian\.com(/p/[a-z0-9]+)"`),
		regexp.MustCompile(`data-short-url="(/p/[a-z0-9]+)"`),
		regexp.MustCompile(`"discussionId"\s*:\s*"(/p/[a-z0-9]+)"`),
	}
	keyPattern = regexp.MustCompile(`(/p/[a-z0-9]+)`)
)

// ErrNoDiscussion is returned when an article page carries no discussion key.
var ErrNoDiscussion = errors.New("could not find discussion key")

// Guardian talks to the Guardian discussion and content APIs.
type Guardian struct {
	cfg  config.GuardianConfig
	http *http.Client
	log  *logrus.Entry
}

var _ Source = (*Guardian)(nil)

func NewGuardian(cfg config.GuardianConfig, log *logrus.Entry) *Guardian {
	return &Guardian{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.WithField("component", "source-guardian"),
	}
}

func (g *Guardian) DiscussionKey(ctx context.Context, articleURL string) (string, error) {
	page, err := g.get(ctx, articleURL)
	if err != nil {
		return "", &types.SourceFetchError{Source: sourceName, Key: articleURL, Err: err}
	}
	if key := keyFromPage(page); key != "" {
		return key, nil
	}
	return "", &types.SourceFetchError{Source: sourceName, Key: articleURL, Err: ErrNoDiscussion}
}

func keyFromPage(page []byte) string {
	for _, re := range shortURLPatterns {
		if m := re.FindSubmatch(page); m != nil {
			return string(m[1])
		}
	}
	return ""
}

type discussionPage struct {
	Pages      int `json:"pages"`
	Discussion struct {
		Key                       string       `json:"key"`
		Title                     string       `json:"title"`
		WebURL                    string       `json:"webUrl"`
		CommentCount              int          `json:"commentCount"`
		IsClosedForComments       bool         `json:"isClosedForComments"`
		IsClosedForRecommendation bool         `json:"isClosedForRecommendation"`
		Comments                  []RawComment `json:"comments"`
	} `json:"discussion"`
}

func (g *Guardian) FetchDiscussion(ctx context.Context, key string) (*Discussion, error) {
	log := g.log.WithField("key", key)
	d := &Discussion{Key: key, Comments: []RawComment{}}

	for page, pages := 1, 1; page <= pages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("pageSize", strconv.Itoa(g.cfg.PageSize))
		q.Set("orderBy", "oldest")
		q.Set("displayThreaded", "false")

		var resp discussionPage
		if err := g.getJSON(ctx, g.cfg.DiscussionURL+key+"?"+q.Encode(), &resp); err != nil {
			return nil, &types.SourceFetchError{Source: sourceName, Key: key, Err: err}
		}
		if page == 1 {
			pages = max(resp.Pages, 1)
			if resp.Discussion.Key != "" {
				d.Key = resp.Discussion.Key
			}
			d.Title = resp.Discussion.Title
			d.WebURL = resp.Discussion.WebURL
			d.CommentCount = resp.Discussion.CommentCount
			d.IsClosedForComments = resp.Discussion.IsClosedForComments
			d.IsClosedForRecommendation = resp.Discussion.IsClosedForRecommendation
			log.WithFields(logrus.Fields{"comments": d.CommentCount, "pages": pages}).Info("discussion found")
		}
		d.Comments = append(d.Comments, resp.Discussion.Comments...)
		log.WithFields(logrus.Fields{"page": page, "pages": pages, "fetched": len(resp.Discussion.Comments)}).Debug("discussion page fetched")
	}

	d.ScrapedAt = time.Now().UTC()
	return d, nil
}

type searchResponse struct {
	Response struct {
		Results []struct {
			WebTitle    string `json:"webTitle"`
			WebURL      string `json:"webUrl"`
			SectionName string `json:"sectionName"`
			Fields      struct {
				ShortURL string `json:"shortUrl"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// SearchArticles queries the content API, newest first. Results without a
// discussion key are dropped.
func (g *Guardian) SearchArticles(ctx context.Context, keyword string, limit int) ([]Article, error) {
	if g.cfg.APIKey == "" {
		return nil, &types.ConfigurationError{Setting: "GUARDIAN_API_KEY"}
	}
	limit = ClampLimit(limit)

	q := url.Values{}
	q.Set("q", keyword)
	q.Set("page-size", strconv.Itoa(limit))
	q.Set("show-fields", "shortUrl,headline")
	q.Set("order-by", "newest")
	q.Set("api-key", g.cfg.APIKey)

	var resp searchResponse
	if err := g.getJSON(ctx, g.cfg.ContentURL+"?"+q.Encode(), &resp); err != nil {
		return nil, &types.SourceFetchError{Source: sourceName, Key: keyword, Err: err}
	}

	articles := make([]Article, 0, len(resp.Response.Results))
	for _, r := range resp.Response.Results {
		key := keyPattern.FindString(r.Fields.ShortURL)
		if key == "" {
			continue
		}
		title := r.WebTitle
		if title == "" {
			title = "Unknown"
		}
		articles = append(articles, Article{Title: title, URL: r.WebURL, Key: key, Section: r.SectionName})
	}
	g.log.WithFields(logrus.Fields{"keyword": keyword, "found": len(articles)}).Info("article search done")
	return articles, nil
}

func (g *Guardian) getJSON(ctx context.Context, u string, target any) error {
	body, err := g.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %w", err)
	}
	return nil
}

// get fetches a URL, retrying server errors up to cfg.MaxRetries times.
func (g *Guardian) get(ctx context.Context, u string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "comment-insights-go/1.0")

		resp, err := g.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			serr := &types.StatusError{URL: redact(u), StatusCode: resp.StatusCode, Body: truncate(string(b), 200)}
			if !serr.Retryable() {
				return backoff.Permanent(serr)
			}
			g.log.WithField("http_status", resp.StatusCode).Warn("guardian server error")
			return serr
		}
		body = b
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = g.cfg.Timeout
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, g.cfg.MaxRetries), ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return body, nil
}

// redact drops the api key from URLs that end up in errors and logs.
func redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	if q.Has("api-key") {
		q.Set("api-key", "REDACTED")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
