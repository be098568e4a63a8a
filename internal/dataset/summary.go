package dataset

import (
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/types"
)

// Meta describes the collection behind an analysis run. Only the fields
// relevant to the flow are set.
type Meta struct {
	ArticleTitle         string `json:"articleTitle,omitempty" yaml:"articleTitle,omitempty"`
	ArticleURL           string `json:"articleUrl,omitempty" yaml:"articleUrl,omitempty"`
	Keyword              string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	SectionURL           string `json:"sectionUrl,omitempty" yaml:"sectionUrl,omitempty"`
	SectionName          string `json:"sectionName,omitempty" yaml:"sectionName,omitempty"`
	ArticlesSearched     int    `json:"articlesSearched,omitempty" yaml:"articlesSearched,omitempty"`
	ArticlesFound        int    `json:"articlesFound,omitempty" yaml:"articlesFound,omitempty"`
	ArticlesWithComments int    `json:"articlesWithComments,omitempty" yaml:"articlesWithComments,omitempty"`
	TotalComments        int    `json:"totalComments" yaml:"totalComments"`
	UniqueCommenters     int    `json:"uniqueCommenters" yaml:"uniqueCommenters"`
	CommentsAnalyzed     int    `json:"commentsAnalyzed" yaml:"commentsAnalyzed"`
}

// ArticleStat is one article of a multi-article collection.
type ArticleStat struct {
	Title        string `json:"title" yaml:"title"`
	URL          string `json:"url" yaml:"url"`
	CommentCount int    `json:"commentCount" yaml:"commentCount"`
}

// Summarize counts comments, distinct commenters and source articles.
// analyzed is the number of comments the pipeline will send.
func Summarize(comments []types.Comment, analyzed int, log *logrus.Entry) Meta {
	commenters := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		commenters[commenterKey(c)] = struct{}{}
	}
	m := Meta{
		TotalComments:        len(comments),
		UniqueCommenters:     len(commenters),
		CommentsAnalyzed:     min(analyzed, len(comments)),
		ArticlesWithComments: len(articleTitles(comments)),
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"total_comments":    m.TotalComments,
			"unique_commenters": m.UniqueCommenters,
			"articles":          m.ArticlesWithComments,
		}).Info("collection summarized")
	}
	return m
}

// commenterKey prefers the stable user id over the display name.
func commenterKey(c types.Comment) string {
	if c.AuthorID != "" {
		return "id:" + c.AuthorID
	}
	return "name:" + c.AuthorName
}

func articleTitles(comments []types.Comment) map[string]struct{} {
	titles := make(map[string]struct{})
	for _, c := range comments {
		if c.ArticleTitle != "" {
			titles[c.ArticleTitle] = struct{}{}
		}
	}
	return titles
}
