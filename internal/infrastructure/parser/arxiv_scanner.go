package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/scanner"
)

const (
	arxivBaseURL = "https://arxiv.org"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls arXiv listing pages and extracts papers inside the recency window.
// Listing dates have day granularity, so the window is compared by calendar day.
type ArxivScanner struct {
	fetch    fetcher
	pageSize int
	logger   *slog.Logger
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, logger *slog.Logger) *ArxivScanner {
	return &ArxivScanner{fetch: newFetcher(client), pageSize: 200, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks through each category listing and returns papers announced since req.Since.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleRecord, error) {
	categories := req.Categories
	if len(categories) == 0 {
		categories = ArxivCategories(req.URL, req.Options)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories provided for feed %s", req.SiteName)
	}

	sinceDay := req.Since.UTC().Truncate(24 * time.Hour)
	results := make([]domain.ArticleRecord, 0)
	seen := map[string]struct{}{}

	for _, cat := range categories {
		skip := 0
		for {
			pageURL, err := buildPageURL(cat.URL, skip, a.pageSize)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			pageArticles, shouldContinue := a.extractArticles(doc, sinceDay, req.SiteName)
			for _, article := range pageArticles {
				if _, ok := seen[article.Link]; ok {
					continue
				}
				seen[article.Link] = struct{}{}
				results = append(results, article)
			}

			if !shouldContinue {
				break
			}
			skip += a.pageSize
		}
	}

	a.debug("arxiv scanned", "feed", req.SiteName, "categories", len(categories), "kept", len(results))
	return results, nil
}

// ArxivCategories expands feed settings into listing endpoints. A "categories"
// option ("cs.AI,cs.LG") wins over the plain feed URL.
func ArxivCategories(feedURL string, options map[string]string) []scanner.Category {
	var categories []scanner.Category
	for _, name := range strings.Split(options["categories"], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		categories = append(categories, scanner.Category{
			Name: name,
			URL:  fmt.Sprintf("%s/list/%s/pastweek", arxivBaseURL, name),
		})
	}
	if len(categories) == 0 && feedURL != "" {
		categories = append(categories, scanner.Category{Name: options["category"], URL: feedURL})
	}
	return categories
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	raw, err := a.fetch.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *ArxivScanner) extractArticles(doc *goquery.Document, sinceDay time.Time, siteName string) ([]domain.ArticleRecord, bool) {
	var (
		collected    []domain.ArticleRecord
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		article, err := parseEntry(dt, dd, siteName)
		if err != nil {
			a.debug("skip arxiv entry", "index", i, "error", err)
			return true
		}

		articleDay := article.PublishedAt.UTC().Truncate(24 * time.Hour)
		if articleDay.Before(sinceDay) {
			continueScan = false
			return false
		}
		collected = append(collected, article)

		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(dt, dd *goquery.Selection, siteName string) (domain.ArticleRecord, error) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.ArticleRecord{}, fmt.Errorf("entry without abstract link")
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")
	title = collapseSpaces(title)

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:")
	summary = collapseSpaces(summary)

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	match := dateExpr.FindString(dateText)
	if match == "" {
		return domain.ArticleRecord{}, fmt.Errorf("entry %s without date", href)
	}
	publishedAt, err := time.Parse("2 Jan 2006", match)
	if err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("entry %s: %w", href, err)
	}

	return domain.ArticleRecord{
		Title:       title,
		Link:        href,
		PublishedAt: publishedAt,
		Summary:     summary,
		Source:      siteName,
	}, nil
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (a *ArxivScanner) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
