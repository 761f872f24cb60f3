package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"AINewsAgent/internal/domain"
)

const defaultSystemPrompt = "You are a social media content creator specializing in AI and tech news."

const draftInstructions = `Write two social posts about the article below.

Rules:
1. LinkedIn: professional tone, under 3000 characters, a short hook, 2-3 sentences on why it matters, a question for readers, 3-5 hashtags, the link.
2. Twitter: under 280 characters per tweet, 2-3 hashtags, the link. Use a thread of at most 3 tweets only when one tweet cannot hold the idea.

Output as JSON only, no other text:
{
  "linkedin": "post text",
  "twitter": ["tweet 1", "optional tweet 2"]
}`

func draftPrompt(a domain.ScoredArticle) string {
	return fmt.Sprintf("%s\n\nTitle: %s\nSource: %s\nLink: %s\nSummary: %s",
		draftInstructions, a.Title, a.Source, a.Link, truncateWithEllipsis(a.Summary, 1000))
}

func digestPrompt(articles []domain.ScoredArticle, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Create an engaging LinkedIn post for "%s" summarizing today's top AI news.
Start with "📰 %s - %s", use one "🔹 Title - 2-3 sentence summary" bullet per story,
end with "Follow %s for your daily AI roundup!", the hashtags #AI #ArtificialIntelligence #TechNews #AINews #AIDailyBrief
and a "Sources:" list of links. Output only the post text.

`, digestTitle, digestTitle, day.Format("January 02, 2006"), digestTitle)

	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\nSource: %s\nPublished: %s\nSummary: %s\nLink: %s\n\n",
			i+1, a.Title, a.Source, a.PublishedAt.Format(time.RFC3339), truncateWithEllipsis(a.Summary, digestSummaryChars), a.Link)
	}
	return b.String()
}

func systemPromptOrDefault(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

// parseDrafts reads the model's JSON answer and enforces platform limits.
func parseDrafts(content string) (domain.Drafts, error) {
	content = cleanJSONResponse(content)

	var parsed struct {
		LinkedIn string   `json:"linkedin"`
		Twitter  []string `json:"twitter"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.Drafts{}, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}

	linkedIn := strings.TrimSpace(parsed.LinkedIn)
	thread := FitThread(parsed.Twitter)
	if linkedIn == "" || len(thread) == 0 {
		return domain.Drafts{}, fmt.Errorf("incomplete drafts in response: %s", content)
	}

	return domain.Drafts{
		LinkedIn: truncateRunes(linkedIn, LinkedInMaxChars),
		Twitter:  thread,
	}, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
