package domain

import (
	"strings"
	"time"
)

// ArticleRecord is one news item as produced by a feed. Link is its identity.
type ArticleRecord struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
}

// ScoredArticle is a candidate that survived relevance filtering.
// RelevanceScore is set by the filter, FinalScore by the ranker.
type ScoredArticle struct {
	ArticleRecord
	RelevanceScore  int      `json:"relevance_score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	FinalScore      float64  `json:"final_score"`
}

// PostedArticleEntry is the persisted record of a completed publication.
type PostedArticleEntry struct {
	ArticleURL      string    `db:"article_url" json:"article_url"`
	ArticleTitle    string    `db:"article_title" json:"article_title"`
	PostedAt        time.Time `db:"posted_at" json:"posted_at"`
	LinkedInPostURL string    `db:"linkedin_post_url" json:"linkedin_post_url"`
	TwitterPostURL  string    `db:"twitter_post_url" json:"twitter_post_url"`
	LinkedInDraft   string    `db:"linkedin_draft" json:"linkedin_draft"`
	TwitterDraft    string    `db:"twitter_draft" json:"twitter_draft"`
	SourceFeed      string    `db:"source_feed" json:"source_feed"`
}

// Drafts holds the platform-specific texts for one candidate.
// Twitter has more than one element when the post is a thread.
type Drafts struct {
	LinkedIn string   `json:"linkedin"`
	Twitter  []string `json:"twitter"`
}

// IsThread reports whether the Twitter draft spans several tweets.
func (d Drafts) IsThread() bool {
	return len(d.Twitter) > 1
}

// TwitterText flattens the thread into a single string for review and storage.
func (d Drafts) TwitterText() string {
	return strings.Join(d.Twitter, "\n\n")
}
