package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsAgent/internal/scanner"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://export.arxiv.org/list/cs.AI/pastweek"
	u, err := buildPageURL(base, 200, 100)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "export.arxiv.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("skip") != "200" {
		t.Fatalf("expected skip=200, got %s", q.Get("skip"))
	}
	if q.Get("show") != "100" {
		t.Fatalf("expected show=100, got %s", q.Get("show"))
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 8 Nov 2025</div>
	    <div class="list-title mathjax">Title: Sample
	       Title</div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	article, err := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "ArXiv cs.AI")
	if err != nil {
		t.Fatalf("parseEntry error: %v", err)
	}

	if article.Link != "https://arxiv.org/abs/1234.56789" {
		t.Fatalf("unexpected link: %s", article.Link)
	}
	if article.Title != "Sample Title" {
		t.Fatalf("unexpected title: %q", article.Title)
	}
	if article.Summary != "Sample abstract text." {
		t.Fatalf("unexpected summary: %s", article.Summary)
	}
	if article.Source != "ArXiv cs.AI" {
		t.Fatalf("unexpected source: %s", article.Source)
	}

	want := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)
	if !article.PublishedAt.Equal(want) {
		t.Fatalf("unexpected published date: %v", article.PublishedAt)
	}
}

func TestParseEntry_DropsUndated(t *testing.T) {
	t.Parallel()

	html := `<dl><dt><a href="/abs/1">arXiv:1</a></dt><dd><div class="list-title">Title: x</div></dd></dl>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	if _, err := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "arxiv"); err == nil {
		t.Fatal("expected error for undated entry")
	}
}

func TestArxivCategories(t *testing.T) {
	t.Parallel()

	cats := ArxivCategories("", map[string]string{"categories": "cs.AI, cs.LG,"})
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	if cats[1].URL != "https://arxiv.org/list/cs.LG/pastweek" {
		t.Fatalf("unexpected url: %s", cats[1].URL)
	}

	cats = ArxivCategories("https://arxiv.org/list/cs.CL/new", nil)
	if len(cats) != 1 || cats[0].URL != "https://arxiv.org/list/cs.CL/new" {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	if cats := ArxivCategories("", nil); len(cats) != 0 {
		t.Fatalf("expected none, got %+v", cats)
	}
}

func TestArxivScannerScan(t *testing.T) {
	t.Parallel()

	since := time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<dl>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Fresh Article</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 7 Nov 2025</div>
		    <div class="list-title mathjax">Title: Old Article</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	sc := NewArxivScanner(server.Client(), nil)
	sc.pageSize = 10

	req := scanner.Request{
		SiteName: "ArXiv AI",
		Since:    since,
		Categories: []scanner.Category{
			{Name: "cs.AI", URL: server.URL + "/list/cs.AI"},
		},
	}

	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Link != "https://arxiv.org/abs/2501.00001" {
		t.Fatalf("unexpected article link: %s", articles[0].Link)
	}
	if articles[0].Summary != "brand new." {
		t.Fatalf("unexpected summary: %s", articles[0].Summary)
	}
	if articles[0].Source != "ArXiv AI" {
		t.Fatalf("unexpected source: %s", articles[0].Source)
	}
}

func TestArxivScannerScan_RequiresCategories(t *testing.T) {
	t.Parallel()

	if _, err := NewArxivScanner(nil, nil).Scan(context.Background(), scanner.Request{SiteName: "empty"}); err == nil {
		t.Fatal("expected error without categories")
	}
}
