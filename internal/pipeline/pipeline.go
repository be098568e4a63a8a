// Package pipeline sequences selection, batching, analysis calls and the
// merge for one analysis request.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/aggregator"
	"comment-insights-go/internal/batcher"
	"comment-insights-go/internal/selector"
	"comment-insights-go/internal/types"
)

// Analyzer is the text-generation collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, commentsText string, subject types.Subject) (types.AnalysisResult, error)
}

type Options struct {
	BatchSize   int
	MaxSelected int
	// CallTimeout bounds each Analyze call; exceeding it fails that batch only.
	CallTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		BatchSize:   batcher.DefaultSize,
		MaxSelected: selector.DefaultMax,
		CallTimeout: 90 * time.Second,
	}
}

// Orchestrator holds no per-request state; one instance serves concurrent
// requests as long as the analyzer does.
type Orchestrator struct {
	analyzer Analyzer
	opts     Options
	log      *logrus.Entry
}

func New(analyzer Analyzer, opts Options, log *logrus.Entry) *Orchestrator {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxSelected <= 0 {
		opts.MaxSelected = def.MaxSelected
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{analyzer: analyzer, opts: opts, log: log.WithField("component", "pipeline")}
}

// Outcome summarizes a finished request.
type Outcome struct {
	Insights  types.Insights `json:"insights"`
	Stage     types.Stage    `json:"stage"`
	Analyzed  int            `json:"commentsAnalyzed"`
	Batches   int            `json:"batches"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Empty     bool           `json:"empty"`
}

const (
	msgNoComments = "No comments to analyze."
	msgComplete   = "Analysis complete"
)

// run tracks the state of one request.
type run struct {
	stage   types.Stage
	sink    Sink
	log     *logrus.Entry
	outcome Outcome
}

func (o *Orchestrator) newRun(subject types.Subject, sink Sink) *run {
	if sink == nil {
		sink = Discard
	}
	return &run{
		stage: types.StageIdle,
		sink:  sink,
		log:   o.log.WithField("subject", subject.Label),
	}
}

func (r *run) enter(stage types.Stage) {
	r.log.WithFields(logrus.Fields{"from": r.stage, "to": stage}).Debug("pipeline stage")
	r.stage = stage
	r.outcome.Stage = stage
}

// finishEmpty is the terminal empty result: one completion event, no calls.
func (r *run) finishEmpty() Outcome {
	r.outcome.Empty = true
	r.outcome.Insights = types.EmptyInsights()
	r.enter(types.StageDone)
	r.sink.Emit(types.Complete(msgNoComments))
	r.log.Info("no comments to analyze")
	return r.outcome
}

func (r *run) finish(in types.Insights) Outcome {
	r.outcome.Insights = in
	r.enter(types.StageDone)
	r.sink.Emit(types.Result(types.SectionCommercial, in))
	r.sink.Emit(types.Complete(msgComplete))
	r.log.WithFields(logrus.Fields{
		"batches":   r.outcome.Batches,
		"succeeded": r.outcome.Succeeded,
		"failed":    r.outcome.Failed,
		"brands":    len(in.Brands),
	}).Info("analysis complete")
	return r.outcome
}

func (r *run) abort(err error) (Outcome, error) {
	r.enter(types.StageFailed)
	r.log.WithError(err).Warn("analysis stopped")
	return r.outcome, err
}

// AnalyzeSelected runs the single-article path: select a representative
// subset and analyze it in one call. A failed call yields the empty report.
func (o *Orchestrator) AnalyzeSelected(ctx context.Context, comments []types.Comment, subject types.Subject, sink Sink) (Outcome, error) {
	r := o.newRun(subject, sink)
	if len(comments) == 0 {
		return r.finishEmpty(), nil
	}

	r.enter(types.StageSelecting)
	r.sink.Emit(types.Progress(types.StageSelecting, 0, 0, "Preparing comments for analysis..."))
	selected := selector.Select(comments, o.opts.MaxSelected)
	r.outcome.Analyzed = len(selected)
	r.outcome.Batches = 1

	if err := ctx.Err(); err != nil {
		return r.abort(err)
	}
	r.enter(types.StageDispatching)
	r.sink.Emit(types.Progress(types.StageDispatching, 1, 1, "Extracting commercial opportunities..."))
	res, err := o.dispatch(ctx, selector.Format(selected), subject)
	if err != nil {
		r.outcome.Failed++
		r.log.WithError(err).Warn("analysis call failed")
		return r.finish(types.EmptyInsights()), nil
	}
	if res.Failed() {
		r.outcome.Failed++
		r.log.WithField("reason", res.Error).Warn("analysis output unparseable")
		return r.finish(types.EmptyInsights()), nil
	}
	r.outcome.Succeeded++
	return r.finish(res.Insights.Normalized()), nil
}

// AnalyzeBatched runs the multi-article path: every comment is analyzed,
// batch by batch in priority order, and the batch results are merged.
// Batches run strictly one after another; a failed batch is logged and
// skipped. Cancellation is honoured between batches.
func (o *Orchestrator) AnalyzeBatched(ctx context.Context, comments []types.Comment, subject types.Subject, sink Sink) (Outcome, error) {
	r := o.newRun(subject, sink)
	if len(comments) == 0 {
		return r.finishEmpty(), nil
	}

	r.enter(types.StageBatching)
	batches := batcher.Partition(comments, o.opts.BatchSize)
	total := len(batches)
	r.outcome.Batches = total
	r.outcome.Analyzed = len(comments)
	r.sink.Emit(types.Progress(types.StageBatching, 0, total,
		fmt.Sprintf("Analyzing %d comments in %d batch(es)...", len(comments), total)))

	r.enter(types.StageDispatching)
	results := make([]types.AnalysisResult, 0, total)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return r.abort(err)
		}
		r.sink.Emit(types.Progress(types.StageDispatching, i+1, total,
			fmt.Sprintf("Processing batch %d/%d (%d comments)...", i+1, total, len(batch))))

		log := r.log.WithFields(logrus.Fields{"batch": i + 1, "batches": total, "size": len(batch)})
		res, err := o.dispatch(ctx, batcher.Format(batch), subject)
		switch {
		case err != nil:
			log.WithError(err).Warn("batch analysis failed, continuing")
		case res.Failed():
			log.WithField("reason", res.Error).Warn("batch output unparseable, continuing")
		default:
			r.outcome.Succeeded++
			results = append(results, res)
			continue
		}
		r.outcome.Failed++
		r.sink.Emit(types.Progress(types.StageDispatching, i+1, total,
			fmt.Sprintf("Warning: batch %d/%d could not be analyzed", i+1, total)))
	}

	r.enter(types.StageMerging)
	return r.finish(aggregator.Merge(results)), nil
}

// dispatch performs one bounded analyzer call. A panicking analyzer is
// reported as an error for that call.
func (o *Orchestrator) dispatch(ctx context.Context, text string, subject types.Subject) (res types.AnalysisResult, err error) {
	cctx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("analyzer panic: %v", p)
		}
	}()
	return o.analyzer.Analyze(cctx, text, subject)
}
