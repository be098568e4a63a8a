package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/dataset"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/selector"
	"comment-insights-go/internal/source"
	"comment-insights-go/internal/types"
)

const (
	KindArticle = "article"
	KindKeyword = "keyword"
	KindSection = "section"
	KindFile    = "file"
)

// Run is the outcome of one flow, as streamed, stored and exported.
type Run struct {
	ID         string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Kind       string                 `json:"kind" yaml:"kind"`
	Subject    string                 `json:"subject" yaml:"subject"`
	Meta       dataset.Meta           `json:"meta" yaml:"meta"`
	Articles   []source.Article       `json:"articles,omitempty" yaml:"articles,omitempty"`
	Sources    []dataset.ArticleStat  `json:"sources,omitempty" yaml:"sources,omitempty"`
	Questions  *types.QuestionsResult `json:"discussionQuestions,omitempty" yaml:"discussionQuestions,omitempty"`
	Sentiment  *types.SentimentResult `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Insights   types.Insights         `json:"commercialOpportunities" yaml:"commercialOpportunities"`
	Batches    int                    `json:"batches" yaml:"batches"`
	Failed     int                    `json:"failedBatches" yaml:"failedBatches"`
	Empty      bool                   `json:"empty,omitempty" yaml:"empty,omitempty"`
	CreatedAt  time.Time              `json:"createdAt" yaml:"createdAt"`
	DurationMs int64                  `json:"durationMs" yaml:"durationMs"`
}

// RunStore persists finished runs and returns their id.
type RunStore interface {
	Save(ctx context.Context, run *Run) (string, error)
}

// Notifier is told about every finished run.
type Notifier interface {
	Notify(ctx context.Context, run *Run) error
}

// Editorial writes the discussion questions and sentiment sections of an
// article report. Analyzers that also implement it get those sections.
type Editorial interface {
	DiscussionQuestions(ctx context.Context, commentsText string, subject types.Subject) (types.QuestionsResult, error)
	Sentiment(ctx context.Context, commentsText string, subject types.Subject) (types.SentimentResult, error)
}

type Option func(*Processor)

func WithStore(s RunStore) Option { return func(p *Processor) { p.store = s } }

func WithNotifier(n Notifier) Option { return func(p *Processor) { p.notifier = n } }

// Processor runs the end-to-end flows: collect comments, analyze them, and
// report progress through a sink. Every flow ends with exactly one
// terminal event.
type Processor struct {
	cfg       *config.Config
	src       source.Source
	pipe      *pipeline.Orchestrator
	editorial Editorial
	store     RunStore
	notifier  Notifier
	log       *logrus.Entry
	now       func() time.Time
}

func New(cfg *config.Config, src source.Source, analyzer pipeline.Analyzer, log *logrus.Entry, opts ...Option) *Processor {
	p := &Processor{
		cfg: cfg,
		src: src,
		pipe: pipeline.New(analyzer, pipeline.Options{
			BatchSize:   cfg.Pipeline.BatchSize,
			MaxSelected: cfg.Pipeline.MaxSelected,
			CallTimeout: cfg.Pipeline.CallTimeout,
		}, log),
		log: log.WithField("component", "processor"),
		now: time.Now,
	}
	if e, ok := analyzer.(Editorial); ok {
		p.editorial = e
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessArticle analyzes a representative subset of one article's comments.
func (p *Processor) ProcessArticle(ctx context.Context, articleURL string, sink pipeline.Sink) (*Run, error) {
	sink = orDiscard(sink)
	start := p.now()
	log := p.log.WithFields(logrus.Fields{"flow": KindArticle, "url": articleURL})
	if err := p.cfg.RequireLLM(); err != nil {
		return nil, p.fail(log, sink, err)
	}

	sink.Emit(types.Progress(types.StageScraping, 0, 0, "Extracting discussion key..."))
	key, err := p.src.DiscussionKey(ctx, articleURL)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	sink.Emit(types.Progress(types.StageScraping, 0, 0, fmt.Sprintf("Found key %s. Fetching comments...", key)))
	d, err := p.src.FetchDiscussion(ctx, key)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}

	title := d.Title
	if title == "" {
		title = "Unknown Article"
	}
	comments := d.ToComments(title)
	sink.Emit(types.Progress(types.StageScraping, 0, 0, fmt.Sprintf("Scraped %d comments", len(comments))))

	meta := dataset.Summarize(comments, p.cfg.Pipeline.MaxSelected, log)
	meta.ArticleTitle = title
	meta.ArticleURL = articleURL
	sink.Emit(types.Result(types.SectionMeta, meta))

	subject := types.Subject{Label: title, Count: 1}
	run := &Run{Kind: KindArticle, Subject: title, Meta: meta}
	if len(comments) > 0 && p.editorial != nil {
		if err := p.editorialSections(ctx, log, run, comments, subject, sink); err != nil {
			return nil, p.fail(log, sink, err)
		}
	}

	out, err := p.pipe.AnalyzeSelected(ctx, comments, subject, sink)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	return p.finish(ctx, log, run, out, start), nil
}

// ProcessKeyword analyzes every comment of the newest articles matching keyword.
func (p *Processor) ProcessKeyword(ctx context.Context, keyword string, limit int, sink pipeline.Sink) (*Run, error) {
	sink = orDiscard(sink)
	start := p.now()
	log := p.log.WithFields(logrus.Fields{"flow": KindKeyword, "keyword": keyword})
	if err := firstError(p.cfg.RequireLLM(), p.cfg.RequireGuardianKey()); err != nil {
		return nil, p.fail(log, sink, err)
	}

	sink.Emit(types.Progress(types.StageSearching, 0, 0, fmt.Sprintf("Searching for articles about '%s'...", keyword)))
	articles, err := p.src.SearchArticles(ctx, keyword, limit)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	if len(articles) == 0 {
		return nil, p.fail(log, sink, fmt.Errorf("%w for '%s'", types.ErrNoArticles, keyword))
	}
	sink.Emit(types.Progress(types.StageSearching, 0, 0, fmt.Sprintf("Found %d articles", len(articles))))
	sink.Emit(types.Result(types.SectionArticles, articles))

	comments, stats, err := p.collect(ctx, log, articles, sink)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}

	meta := dataset.Summarize(comments, len(comments), log)
	meta.Keyword = keyword
	meta.ArticlesSearched = len(articles)
	meta.ArticlesWithComments = len(stats)
	sink.Emit(types.Result(types.SectionMeta, meta))

	out, err := p.pipe.AnalyzeBatched(ctx, comments, types.Subject{Label: keyword, Count: len(stats)}, sink)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	run := &Run{Kind: KindKeyword, Subject: keyword, Meta: meta, Articles: articles, Sources: stats}
	return p.finish(ctx, log, run, out, start), nil
}

// ProcessSection analyzes every comment of the articles linked from a
// section front.
func (p *Processor) ProcessSection(ctx context.Context, sectionURL string, limit int, sink pipeline.Sink) (*Run, error) {
	sink = orDiscard(sink)
	start := p.now()
	log := p.log.WithFields(logrus.Fields{"flow": KindSection, "url": sectionURL})
	if err := p.cfg.RequireLLM(); err != nil {
		return nil, p.fail(log, sink, err)
	}

	sink.Emit(types.Progress(types.StageSearching, 0, 0, "Extracting articles from section page..."))
	articles, err := p.src.SectionArticles(ctx, sectionURL, limit)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	if len(articles) == 0 {
		return nil, p.fail(log, sink, fmt.Errorf("%w with comments on this page", types.ErrNoArticles))
	}
	sink.Emit(types.Progress(types.StageSearching, 0, 0, fmt.Sprintf("Found %d articles with comments", len(articles))))
	sink.Emit(types.Result(types.SectionArticles, articles))

	comments, stats, err := p.collect(ctx, log, articles, sink)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}

	name := SectionName(sectionURL)
	meta := dataset.Summarize(comments, len(comments), log)
	meta.SectionURL = sectionURL
	meta.SectionName = name
	meta.ArticlesFound = len(articles)
	meta.ArticlesWithComments = len(stats)
	sink.Emit(types.Result(types.SectionMeta, meta))

	out, err := p.pipe.AnalyzeBatched(ctx, comments, types.Subject{Label: name, Count: len(stats)}, sink)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	run := &Run{Kind: KindSection, Subject: name, Meta: meta, Articles: articles, Sources: stats}
	return p.finish(ctx, log, run, out, start), nil
}

// ProcessFile analyzes a saved scrape dump. Dumps spanning several articles
// take the batched path.
func (p *Processor) ProcessFile(ctx context.Context, path string, sink pipeline.Sink) (*Run, error) {
	sink = orDiscard(sink)
	start := p.now()
	log := p.log.WithFields(logrus.Fields{"flow": KindFile, "path": path})
	if err := p.cfg.RequireLLM(); err != nil {
		return nil, p.fail(log, sink, err)
	}

	d, err := dataset.Load(path)
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	title := d.Title
	if title == "" {
		title = "Unknown Article"
	}
	articles := d.Articles()

	var (
		meta dataset.Meta
		out  pipeline.Outcome
	)
	if articles > 1 {
		meta = dataset.Summarize(d.Comments, len(d.Comments), log)
		sink.Emit(types.Result(types.SectionMeta, meta))
		out, err = p.pipe.AnalyzeBatched(ctx, d.Comments, types.Subject{Label: title, Count: articles}, sink)
	} else {
		meta = dataset.Summarize(d.Comments, p.cfg.Pipeline.MaxSelected, log)
		meta.ArticleTitle = title
		meta.ArticleURL = d.URL
		sink.Emit(types.Result(types.SectionMeta, meta))
		out, err = p.pipe.AnalyzeSelected(ctx, d.Comments, types.Subject{Label: title, Count: 1}, sink)
	}
	if err != nil {
		return nil, p.fail(log, sink, err)
	}
	run := &Run{Kind: KindFile, Subject: title, Meta: meta}
	return p.finish(ctx, log, run, out, start), nil
}

// collect fetches each article's discussion in turn. A failed article is
// reported and skipped; only cancellation stops the loop.
func (p *Processor) collect(ctx context.Context, log *logrus.Entry, articles []source.Article, sink pipeline.Sink) ([]types.Comment, []dataset.ArticleStat, error) {
	var (
		comments []types.Comment
		stats    []dataset.ArticleStat
	)
	n := len(articles)
	for i, a := range articles {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		sink.Emit(types.Progress(types.StageScraping, i+1, n,
			fmt.Sprintf("Scraping comments from article %d/%d: %s...", i+1, n, shorten(a.Title, 50))))

		d, err := p.src.FetchDiscussion(ctx, a.Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.WithError(err).WithField("article", a.Title).Warn("could not fetch comments, skipping article")
			sink.Emit(types.Progress(types.StageScraping, i+1, n,
				fmt.Sprintf("Warning: Could not fetch comments for article %d", i+1)))
		} else if len(d.Comments) > 0 {
			comments = append(comments, d.ToComments(a.Title)...)
			stats = append(stats, dataset.ArticleStat{Title: a.Title, URL: a.URL, CommentCount: len(d.Comments)})
		}

		if i < n-1 {
			if err := sleep(ctx, p.cfg.Guardian.ArticleDelay); err != nil {
				return nil, nil, err
			}
		}
	}
	log.WithFields(logrus.Fields{"articles": n, "with_comments": len(stats), "comments": len(comments)}).Info("comments collected")
	return comments, stats, nil
}

// editorialSections emits the discussion questions and sentiment of the
// selected comments. A failed call becomes an error-tagged section; only
// cancellation stops the flow.
func (p *Processor) editorialSections(ctx context.Context, log *logrus.Entry, run *Run, comments []types.Comment, subject types.Subject, sink pipeline.Sink) error {
	text := selector.Format(selector.Select(comments, p.cfg.Pipeline.MaxSelected))

	sink.Emit(types.Progress(types.StageDispatching, 0, 0, "Generating discussion questions..."))
	qctx, cancel := p.callContext(ctx)
	qs, err := p.editorial.DiscussionQuestions(qctx, text, subject)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("discussion questions failed, continuing")
		qs = types.QuestionsResult{Error: "failed to generate discussion questions: " + err.Error()}
	}
	run.Questions = &qs
	sink.Emit(types.Result(types.SectionQuestions, qs))

	sink.Emit(types.Progress(types.StageDispatching, 0, 0, "Analyzing sentiment..."))
	sctx, cancel := p.callContext(ctx)
	sent, err := p.editorial.Sentiment(sctx, text, subject)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("sentiment analysis failed, continuing")
		sent = types.SentimentResult{Error: "failed to analyze sentiment: " + err.Error()}
	}
	run.Sentiment = &sent
	sink.Emit(types.Result(types.SectionSentiment, sent))
	return nil
}

func (p *Processor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	d := p.cfg.Pipeline.CallTimeout
	if d <= 0 {
		d = pipeline.DefaultOptions().CallTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (p *Processor) finish(ctx context.Context, log *logrus.Entry, run *Run, out pipeline.Outcome, start time.Time) *Run {
	run.Insights = out.Insights.Normalized()
	run.Batches = out.Batches
	run.Failed = out.Failed
	run.Empty = out.Empty
	run.CreatedAt = start.UTC()
	run.DurationMs = p.now().Sub(start).Milliseconds()

	if p.store != nil {
		id, err := p.store.Save(ctx, run)
		if err != nil {
			log.WithError(err).Warn("could not store run")
		} else {
			run.ID = id
		}
	}
	if p.notifier != nil && !run.Empty {
		if err := p.notifier.Notify(ctx, run); err != nil {
			log.WithError(err).Warn("could not send run notification")
		}
	}
	log.WithFields(logrus.Fields{
		"run_id":      run.ID,
		"duration_ms": run.DurationMs,
		"brands":      len(run.Insights.Brands),
	}).Info("flow complete")
	return run
}

// fail emits the single error event of a flow and returns err.
func (p *Processor) fail(log *logrus.Entry, sink pipeline.Sink, err error) error {
	log.WithError(err).Error("flow failed")
	sink.Emit(types.Failure(FailureMessage(err)))
	return err
}

// FailureMessage renders err for the error event. Expected conditions read
// as plain sentences; anything else is prefixed.
func FailureMessage(err error) string {
	var cerr *types.ConfigurationError
	switch {
	case errors.As(err, &cerr):
		return cerr.Error()
	case errors.Is(err, types.ErrNoArticles):
		return capitalize(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Analysis cancelled"
	default:
		return "Error: " + err.Error()
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func orDiscard(s pipeline.Sink) pipeline.Sink {
	if s == nil {
		return pipeline.Discard
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
