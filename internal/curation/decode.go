package curation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
)

var batchKeys = []string{"articles", "filtered_articles", "ranked_articles"}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

type wireArticle struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
}

// DecodeBatch parses a JSON list of articles, optionally wrapped in an object
// under "articles", "filtered_articles" or "ranked_articles". Any shape error
// rejects the whole batch. Unparseable publish dates become the zero time.
func DecodeBatch(raw []byte) ([]domain.ArticleRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, apperr.NewMalformed("empty batch")
	}

	if raw[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, apperr.NewMalformedWrap("decode batch envelope", err)
		}
		inner, ok := unwrapEnvelope(envelope)
		if !ok {
			return nil, apperr.NewMalformed("object batch must carry one of: " + strings.Join(batchKeys, ", "))
		}
		raw = bytes.TrimSpace(inner)
	}

	if len(raw) == 0 || raw[0] != '[' {
		return nil, apperr.NewMalformed("batch is not a list of articles")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.NewMalformedWrap("decode batch", err)
	}

	records := make([]domain.ArticleRecord, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, apperr.NewMalformed(fmt.Sprintf("item %d is not an object", i))
		}

		var w wireArticle
		if err := json.Unmarshal(item, &w); err != nil {
			return nil, apperr.NewMalformedWrap(fmt.Sprintf("item %d", i), err)
		}

		records = append(records, domain.ArticleRecord{
			Title:       w.Title,
			Link:        w.Link,
			PublishedAt: ParsePublished(w.Published),
			Summary:     w.Summary,
			Source:      w.Source,
		})
	}

	return records, nil
}

// ParsePublished accepts ISO-8601 and RFC 1123 timestamps; anything else yields zero.
func ParsePublished(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range publishedLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func unwrapEnvelope(envelope map[string]json.RawMessage) (json.RawMessage, bool) {
	for _, key := range batchKeys {
		if inner, ok := envelope[key]; ok {
			return inner, true
		}
	}
	return nil, false
}
