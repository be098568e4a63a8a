package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights-go/internal/types"
)

type call struct {
	text    string
	subject types.Subject
}

// fakeAnalyzer answers each call with respond(n), n counting from 1.
type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   []call
	respond func(n int, ctx context.Context) (types.AnalysisResult, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string, subject types.Subject) (types.AnalysisResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{text: text, subject: subject})
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(n, ctx)
}

func batchBrands(n int, _ context.Context) (types.AnalysisResult, error) {
	return types.OK(types.Insights{Brands: []types.Brand{
		{Name: "Shared", Sentiment: "neutral", Mentions: 10},
		{Name: fmt.Sprintf("B%d", n), Mentions: 1},
	}}), nil
}

func comments(n int) []types.Comment {
	out := make([]types.Comment, n)
	for i := range out {
		out[i] = types.Comment{Body: fmt.Sprintf("body %d", i), RecommendCount: n - i, AuthorName: "reader"}
	}
	return out
}

func newOrchestrator(a Analyzer, opts Options) (*Orchestrator, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return New(a, opts, logrus.NewEntry(l)), hook
}

func TestAnalyzeBatchedSkipsFailedBatch(t *testing.T) {
	fa := &fakeAnalyzer{respond: func(n int, ctx context.Context) (types.AnalysisResult, error) {
		if n == 2 {
			return types.AnalysisResult{}, errors.New("service unavailable")
		}
		return batchBrands(n, ctx)
	}}
	o, hook := newOrchestrator(fa, Options{BatchSize: 200})
	rec := &Recorder{}

	out, err := o.AnalyzeBatched(context.Background(), comments(450), types.Subject{Label: "rail", Count: 3}, rec)
	require.NoError(t, err)

	require.Len(t, fa.calls, 3)
	assert.Equal(t, 3, out.Batches)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, types.StageDone, out.Stage)
	assert.Equal(t, []string{"Shared", "B1", "B3"}, names(out.Insights))
	assert.Equal(t, 20, out.Insights.Brands[0].Mentions)

	// batch sizes 200/200/50 with batch-local numbering
	assert.Equal(t, 200, strings.Count(fa.calls[0].text, "[Comment "))
	assert.Equal(t, 200, strings.Count(fa.calls[1].text, "[Comment "))
	assert.Equal(t, 50, strings.Count(fa.calls[2].text, "[Comment "))
	assert.True(t, strings.HasPrefix(fa.calls[2].text, "[Comment 1] "))
	assert.Equal(t, types.Subject{Label: "rail", Count: 3}, fa.calls[0].subject)

	assert.True(t, hasWarning(hook, "batch analysis failed"))

	events := rec.Events()
	last := events[len(events)-1]
	assert.Equal(t, types.EventComplete, last.Type)
	result := events[len(events)-2]
	assert.Equal(t, types.SectionCommercial, result.Section)
	assert.Equal(t, out.Insights, result.Data)
}

func TestAnalyzeBatchedEmitsProgressBeforeEachCall(t *testing.T) {
	rec := &Recorder{}
	fa := &fakeAnalyzer{}
	fa.respond = func(n int, ctx context.Context) (types.AnalysisResult, error) {
		events := rec.Events()
		last := events[len(events)-1]
		assert.Equal(t, types.EventProgress, last.Type)
		assert.Equal(t, n, last.Current)
		assert.Equal(t, 3, last.Total)
		return batchBrands(n, ctx)
	}
	o, _ := newOrchestrator(fa, Options{BatchSize: 2})

	_, err := o.AnalyzeBatched(context.Background(), comments(5), types.Subject{Label: "x", Count: 2}, rec)
	require.NoError(t, err)
	assert.Len(t, fa.calls, 3)

	var currents []int
	for _, e := range rec.Events() {
		if e.Type == types.EventProgress && e.Stage == types.StageDispatching {
			currents = append(currents, e.Current)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, currents)
}

func TestAnalyzeBatchedEmptyInput(t *testing.T) {
	fa := &fakeAnalyzer{respond: batchBrands}
	o, _ := newOrchestrator(fa, Options{})
	rec := &Recorder{}

	out, err := o.AnalyzeBatched(context.Background(), nil, types.Subject{Label: "x"}, rec)
	require.NoError(t, err)

	assert.True(t, out.Empty)
	assert.Empty(t, fa.calls)
	assert.Equal(t, types.EmptyInsights(), out.Insights)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, types.Complete("No comments to analyze."), rec.Events()[0])
}

func TestAnalyzeSelectedEmptyInput(t *testing.T) {
	fa := &fakeAnalyzer{respond: batchBrands}
	o, _ := newOrchestrator(fa, Options{})
	rec := &Recorder{}

	out, err := o.AnalyzeSelected(context.Background(), []types.Comment{}, types.Subject{Label: "x"}, rec)
	require.NoError(t, err)
	assert.True(t, out.Empty)
	assert.Empty(t, fa.calls)
	require.Len(t, rec.Events(), 1)
	assert.True(t, rec.Events()[0].Terminal())
}

func TestAnalyzeBatchedAllFailYieldsEmptyReport(t *testing.T) {
	fa := &fakeAnalyzer{respond: func(n int, _ context.Context) (types.AnalysisResult, error) {
		return types.Unparsed("failed to parse", "garbage"), nil
	}}
	o, hook := newOrchestrator(fa, Options{BatchSize: 10})

	out, err := o.AnalyzeBatched(context.Background(), comments(25), types.Subject{Label: "x", Count: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Failed)
	assert.Equal(t, types.EmptyInsights(), out.Insights)
	assert.False(t, out.Empty)
	assert.True(t, hasWarning(hook, "batch output unparseable"))
}

func TestAnalyzeBatchedCallTimeoutIsPerBatch(t *testing.T) {
	fa := &fakeAnalyzer{respond: func(n int, ctx context.Context) (types.AnalysisResult, error) {
		if n == 1 {
			<-ctx.Done()
			return types.AnalysisResult{}, ctx.Err()
		}
		return batchBrands(n, ctx)
	}}
	o, _ := newOrchestrator(fa, Options{BatchSize: 1, CallTimeout: 20 * time.Millisecond})

	out, err := o.AnalyzeBatched(context.Background(), comments(2), types.Subject{Label: "x", Count: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, []string{"Shared", "B2"}, names(out.Insights))
}

func TestAnalyzeBatchedStopsBetweenBatchesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fa := &fakeAnalyzer{respond: func(n int, c context.Context) (types.AnalysisResult, error) {
		cancel()
		return batchBrands(n, c)
	}}
	o, _ := newOrchestrator(fa, Options{BatchSize: 1})
	rec := &Recorder{}

	out, err := o.AnalyzeBatched(ctx, comments(3), types.Subject{Label: "x", Count: 2}, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fa.calls, 1)
	assert.Equal(t, types.StageFailed, out.Stage)
	for _, e := range rec.Events() {
		assert.False(t, e.Terminal(), "caller emits the terminal event on cancellation")
	}
}

func TestAnalyzeBatchedRecoversAnalyzerPanic(t *testing.T) {
	fa := &fakeAnalyzer{respond: func(n int, ctx context.Context) (types.AnalysisResult, error) {
		if n == 1 {
			panic("boom")
		}
		return batchBrands(n, ctx)
	}}
	o, _ := newOrchestrator(fa, Options{BatchSize: 1})

	out, err := o.AnalyzeBatched(context.Background(), comments(2), types.Subject{Label: "x", Count: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 1, out.Succeeded)
}

func TestAnalyzeSelected(t *testing.T) {
	fa := &fakeAnalyzer{respond: batchBrands}
	o, _ := newOrchestrator(fa, Options{MaxSelected: 10})
	rec := &Recorder{}

	out, err := o.AnalyzeSelected(context.Background(), comments(50), types.Subject{Label: "Article", Count: 1}, rec)
	require.NoError(t, err)

	require.Len(t, fa.calls, 1)
	assert.Equal(t, 10, strings.Count(fa.calls[0].text, "[Comment "))
	assert.Equal(t, 10, out.Analyzed)
	assert.Equal(t, []string{"Shared", "B1"}, names(out.Insights))

	events := rec.Events()
	assert.Equal(t, types.EventComplete, events[len(events)-1].Type)
}

func TestAnalyzeSelectedFailureFallsBackToEmpty(t *testing.T) {
	fa := &fakeAnalyzer{respond: func(int, context.Context) (types.AnalysisResult, error) {
		return types.AnalysisResult{}, errors.New("timeout")
	}}
	o, hook := newOrchestrator(fa, Options{})

	out, err := o.AnalyzeSelected(context.Background(), comments(3), types.Subject{Label: "a", Count: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.EmptyInsights(), out.Insights)
	assert.Equal(t, 1, out.Failed)
	assert.True(t, hasWarning(hook, "analysis call failed"))
}

func TestConcurrentRequestsShareOrchestrator(t *testing.T) {
	fa := &fakeAnalyzer{respond: batchBrands}
	o, _ := newOrchestrator(fa, Options{BatchSize: 5})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := o.AnalyzeBatched(context.Background(), comments(12), types.Subject{Label: "x", Count: 2}, &Recorder{})
			assert.NoError(t, err)
			assert.Equal(t, 3, out.Succeeded)
		}()
	}
	wg.Wait()
	assert.Len(t, fa.calls, 24)
}

func names(in types.Insights) []string {
	out := make([]string, len(in.Brands))
	for i, b := range in.Brands {
		out[i] = b.Name
	}
	return out
}

func hasWarning(hook *test.Hook, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, msg) {
			return true
		}
	}
	return false
}
