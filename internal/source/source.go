// Package source fetches articles and reader comments from the Guardian.
package source

import (
	"context"
	"time"

	"comment-insights-go/internal/types"
)

// Source is the comment fetch collaborator used by the processor flows.
type Source interface {
	// DiscussionKey finds the "/p/xxxxx" discussion key on an article page.
	DiscussionKey(ctx context.Context, articleURL string) (string, error)
	// FetchDiscussion returns every comment of a discussion, oldest first.
	FetchDiscussion(ctx context.Context, key string) (*Discussion, error)
	// SearchArticles returns up to limit recent articles matching keyword.
	SearchArticles(ctx context.Context, keyword string, limit int) ([]Article, error)
	// SectionArticles returns up to limit commentable articles linked from a
	// section front.
	SectionArticles(ctx context.Context, sectionURL string, limit int) ([]Article, error)
}

// Article is a commentable article discovered by search or on a section front.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Key     string `json:"short_url"`
	Section string `json:"section"`
}

// Discussion is a flat comment thread plus its metadata.
type Discussion struct {
	Key                       string       `json:"discussionId"`
	Title                     string       `json:"title"`
	WebURL                    string       `json:"webUrl"`
	CommentCount              int          `json:"commentCount"`
	IsClosedForComments       bool         `json:"isClosedForComments"`
	IsClosedForRecommendation bool         `json:"isClosedForRecommendation"`
	Comments                  []RawComment `json:"comments"`
	ScrapedAt                 time.Time    `json:"scrapedAt"`
}

// UserProfile is the author block of a discussion comment.
type UserProfile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// RawComment mirrors a comment of the discussion API.
type RawComment struct {
	ID            int64       `json:"id"`
	Body          string      `json:"body"`
	Date          string      `json:"date,omitempty"`
	NumRecommends int         `json:"numRecommends"`
	UserProfile   UserProfile `json:"userProfile"`
}

// ToComment converts a raw comment, tagging it with the article it came from.
func (c RawComment) ToComment(articleTitle string) types.Comment {
	return types.Comment{
		Body:           c.Body,
		RecommendCount: c.NumRecommends,
		AuthorName:     c.UserProfile.DisplayName,
		AuthorID:       c.UserProfile.UserID,
		ArticleTitle:   articleTitle,
	}
}

// ToComments converts every comment of the discussion.
func (d *Discussion) ToComments(articleTitle string) []types.Comment {
	out := make([]types.Comment, len(d.Comments))
	for i, c := range d.Comments {
		out[i] = c.ToComment(articleTitle)
	}
	return out
}
