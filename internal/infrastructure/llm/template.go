package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

const (
	// LinkedInMaxChars is the platform limit for a single post.
	LinkedInMaxChars = 3000
	// TweetMaxChars is the platform limit for one tweet.
	TweetMaxChars = 280

	linkedInSummaryChars = 300
	linkedInMaxHashtags  = 5
	twitterMaxHashtags   = 3
	tcoLinkChars         = 25
	threadPartChars      = 230
	digestSummaryChars   = 300

	// NoNewsDigest is the digest text when nothing survived curation.
	NoNewsDigest = "No new AI news articles found for today."
	digestTitle  = "AI Daily Brief"
)

var coreLinkedInTags = []string{"#ArtificialIntelligence", "#MachineLearning", "#Technology"}

var topicalLinkedInTags = []struct {
	words []string
	tags  []string
}{
	{words: []string{"gpt", "llm", "language model"}, tags: []string{"#LargeLanguageModels", "#NLP"}},
	{words: []string{"vision", "image", "visual"}, tags: []string{"#ComputerVision"}},
	{words: []string{"robot", "autonomous"}, tags: []string{"#Robotics"}},
	{words: []string{"generative", "diffusion", "generation"}, tags: []string{"#GenerativeAI"}},
}

// TemplateDrafter fills fixed templates. It needs no network and never fails.
type TemplateDrafter struct{}

var _ ports.Drafter = TemplateDrafter{}

func NewTemplateDrafter() TemplateDrafter {
	return TemplateDrafter{}
}

func (TemplateDrafter) Draft(_ context.Context, article domain.ScoredArticle) (domain.Drafts, error) {
	return domain.Drafts{
		LinkedIn: LinkedInTemplate(article.ArticleRecord),
		Twitter:  TwitterTemplate(article.ArticleRecord),
	}, nil
}

func (TemplateDrafter) DraftDigest(_ context.Context, articles []domain.ScoredArticle, day time.Time) (string, error) {
	return DigestTemplate(articles, day), nil
}

// LinkedInTemplate renders the single-article LinkedIn post.
func LinkedInTemplate(a domain.ArticleRecord) string {
	title := orDefault(a.Title, "Exciting AI Development")

	var b strings.Builder
	fmt.Fprintf(&b, "🔬 %s\n\n", title)
	b.WriteString(truncateWithEllipsis(a.Summary, linkedInSummaryChars))
	b.WriteString("\n\nThis development represents an important step forward in the AI field. ")
	b.WriteString("As these technologies continue to evolve, they're opening new possibilities for innovation and practical applications.\n\n")
	b.WriteString("What are your thoughts on this advancement?\n\n")
	b.WriteString(strings.Join(linkedInHashtags(title), " "))
	fmt.Fprintf(&b, "\n\nRead more: %s\nSource: %s", a.Link, a.Source)

	return truncateRunes(b.String(), LinkedInMaxChars)
}

// TwitterTemplate renders a single tweet, or a two-part thread when the
// headline does not fit.
func TwitterTemplate(a domain.ArticleRecord) []string {
	title := orDefault(a.Title, "Exciting AI Development")
	tags := strings.Join(twitterHashtags(title), " ")

	available := TweetMaxChars - utf8.RuneCountInString(tags) - tcoLinkChars - 3
	if utf8.RuneCountInString(title) > available {
		title = truncateRunes(title, available-3) + "..."
	}

	single := fmt.Sprintf("%s\n\n%s\n%s", title, tags, a.Link)
	if utf8.RuneCountInString(single) <= TweetMaxChars {
		return []string{single}
	}

	first := fmt.Sprintf("%s... (1/2)\n\n%s", truncateRunes(title, threadPartChars), tags)
	budget := TweetMaxChars - utf8.RuneCountInString(a.Link) - len("...\n\n (2/2)")
	if budget > threadPartChars {
		budget = threadPartChars
	}
	second := fmt.Sprintf("%s...\n\n%s (2/2)", truncateRunes(a.Summary, budget), a.Link)
	return FitThread([]string{first, second})
}

// DigestTemplate renders the multi-article daily brief.
func DigestTemplate(articles []domain.ScoredArticle, day time.Time) string {
	if len(articles) == 0 {
		return NoNewsDigest
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 %s - %s\n\n", digestTitle, day.Format("January 02, 2006"))
	for _, a := range articles {
		fmt.Fprintf(&b, "🔹 %s - %s\n\n", orDefault(a.Title, "Untitled"), truncateWithEllipsis(a.Summary, digestSummaryChars))
	}
	fmt.Fprintf(&b, "Follow %s for your daily AI roundup!\n\n", digestTitle)
	b.WriteString("#AI #ArtificialIntelligence #TechNews #AINews #AIDailyBrief\n\n---\nSources:\n")
	for _, a := range articles {
		fmt.Fprintf(&b, "- %s\n", a.Link)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FitThread enforces the per-tweet limit on every part.
func FitThread(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, truncateRunes(p, TweetMaxChars))
	}
	return out
}

func linkedInHashtags(title string) []string {
	lower := strings.ToLower(title)
	tags := append([]string(nil), coreLinkedInTags...)
	for _, topic := range topicalLinkedInTags {
		if containsAny(lower, topic.words) {
			tags = append(tags, topic.tags...)
		}
	}
	if len(tags) > linkedInMaxHashtags {
		tags = tags[:linkedInMaxHashtags]
	}
	return tags
}

func twitterHashtags(title string) []string {
	lower := strings.ToLower(title)
	tags := []string{"#AI"}
	switch {
	case containsAny(lower, []string{"gpt", "llm", "language"}):
	case containsAny(lower, []string{"vision", "image"}):
		tags = append(tags, "#ComputerVision")
	case containsAny(lower, []string{"robot", "autonomous"}):
		tags = append(tags, "#Robotics")
	}
	tags = append(tags, "#MachineLearning")
	if len(tags) > twitterMaxHashtags {
		tags = tags[:twitterMaxHashtags]
	}
	return tags
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncateWithEllipsis(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return truncateRunes(s, limit) + "..."
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
