package curation

import (
	"strings"

	"AINewsAgent/internal/domain"
)

// DefaultKeywords is the AI/ML vocabulary used for relevance filtering.
// Terms are matched as case-insensitive substrings, so short terms such as
// "ai" or "ml" also hit inside unrelated words.
var DefaultKeywords = []string{
	"artificial intelligence", "ai", "machine learning", "ml", "deep learning",
	"neural network", "llm", "large language model", "generative ai", "genai",
	"chatgpt", "gpt", "claude", "gemini", "openai", "anthropic", "google ai",
	"natural language processing", "nlp", "computer vision", "cv",
	"reinforcement learning", "transformer", "attention mechanism",
	"diffusion model", "stable diffusion", "midjourney", "dalle",
	"autonomous", "robotics", "ml ops", "model training", "fine-tuning",
	"prompt engineering", "rag", "retrieval augmented generation",
	"agent", "ai agent", "multimodal", "embedding", "vector database",
}

// Filter keeps articles that mention at least one vocabulary term.
type Filter struct {
	keywords []string
}

// NewFilter builds a filter over the given vocabulary; nil selects DefaultKeywords.
func NewFilter(keywords []string) *Filter {
	if keywords == nil {
		keywords = DefaultKeywords
	}

	seen := make(map[string]struct{}, len(keywords))
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		normalized = append(normalized, kw)
	}

	return &Filter{keywords: normalized}
}

// Keywords returns the normalized vocabulary.
func (f *Filter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}

// Filter returns the relevant articles in input order. RelevanceScore is the
// number of distinct terms found in the lower-cased title and summary.
func (f *Filter) Filter(articles []domain.ArticleRecord) []domain.ScoredArticle {
	out := make([]domain.ScoredArticle, 0, len(articles))
	for _, article := range articles {
		matched := f.Match(article)
		if len(matched) == 0 {
			continue
		}
		out = append(out, domain.ScoredArticle{
			ArticleRecord:   article,
			RelevanceScore:  len(matched),
			MatchedKeywords: matched,
		})
	}
	return out
}

// Match lists the vocabulary terms present in the article text.
func (f *Filter) Match(article domain.ArticleRecord) []string {
	text := strings.ToLower(article.Title + " " + article.Summary)

	var matched []string
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
