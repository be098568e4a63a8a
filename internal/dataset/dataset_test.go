package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/types"
)

const articleDump = `{
  "discussion": {"discussionId": "/p/abc1", "title": "Interrail at 50", "webUrl": "https://www.theguardian.com/travel/x", "commentCount": 2},
  "comments": [
    {"id": 1, "body": "<p>Loved the pass</p>", "numRecommends": 12, "userProfile": {"userId": "7", "displayName": "railfan"}},
    {"id": 2, "body": "Sleeper trains!", "numRecommends": 3, "userProfile": {"userId": "8", "displayName": "nightowl"}}
  ],
  "totalFetched": 2,
  "scrapedAt": "2024-03-01T10:00:00Z",
  "sourceUrl": "https://www.theguardian.com/travel/2024/mar/01/interrail"
}`

const keywordDump = `{
  "comments": [
    {"body": "a", "numRecommends": 1, "userProfile": {"userId": "1"}, "_article_title": "First"},
    {"body": "b", "numRecommends": 2, "userProfile": {"userId": "2"}, "_article_title": "Second"}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadArticleDump(t *testing.T) {
	d, err := Load(writeFile(t, "comments.json", articleDump))
	require.NoError(t, err)

	assert.Equal(t, "Interrail at 50", d.Title)
	assert.Equal(t, "https://www.theguardian.com/travel/2024/mar/01/interrail", d.URL)
	assert.Equal(t, "2024-03-01T10:00:00Z", d.ScrapedAt)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, types.Comment{
		Body:           "<p>Loved the pass</p>",
		RecommendCount: 12,
		AuthorName:     "railfan",
		AuthorID:       "7",
		ArticleTitle:   "Interrail at 50",
	}, d.Comments[0])
	assert.Equal(t, 1, d.Articles())
}

func TestLoadKeywordDumpKeepsArticleTitles(t *testing.T) {
	d, err := Load(writeFile(t, "kw.JSON", keywordDump))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Articles())
	assert.Equal(t, "Second", d.Comments[1].ArticleTitle)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	_, err := Load(writeFile(t, "comments.csv", "body\nhi"))
	assert.Error(t, err)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	_, err := Load(writeFile(t, "broken.json", "{"))
	assert.Error(t, err)
}

func TestLoadSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Comment", "Recommends", "User ID", "Author", "Article title"},
		{"Great boots", 14, "u1", "hiker", "Walking gear"},
		{"", 3, "u2", "ghost", "Walking gear"},
		{"Try Decathlon", "2", "u3", "", ""},
	}
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &r))
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "export", d.Title)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, types.Comment{Body: "Great boots", RecommendCount: 14, AuthorName: "hiker", AuthorID: "u1", ArticleTitle: "Walking gear"}, d.Comments[0])
	assert.Equal(t, 2, d.Comments[1].RecommendCount)
	assert.Equal(t, "export", d.Comments[1].ArticleTitle)
}

func TestDetectColumnsFallsBackToFirstColumn(t *testing.T) {
	c := detectColumns([]string{"foo", "bar"})
	assert.Equal(t, 0, c.body)
	assert.Equal(t, -1, c.recommends)
}

func TestSummarize(t *testing.T) {
	comments := []types.Comment{
		{AuthorID: "1", AuthorName: "a", ArticleTitle: "One"},
		{AuthorID: "1", AuthorName: "a renamed", ArticleTitle: "Two"},
		{AuthorName: "anon", ArticleTitle: "Two"},
		{AuthorName: "anon"},
	}
	m := Summarize(comments, 200, nil)
	assert.Equal(t, 4, m.TotalComments)
	assert.Equal(t, 2, m.UniqueCommenters)
	assert.Equal(t, 4, m.CommentsAnalyzed)
	assert.Equal(t, 2, m.ArticlesWithComments)

	assert.Equal(t, 2, Summarize(comments, 2, nil).CommentsAnalyzed)
}

func TestSummarizeEmpty(t *testing.T) {
	m := Summarize(nil, 200, nil)
	assert.Equal(t, Meta{}, m)
}
