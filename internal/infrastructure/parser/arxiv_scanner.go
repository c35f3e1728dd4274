package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DailyBrief/internal/domain"
	"DailyBrief/internal/scanner"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	defaultPageSize  = 200
	defaultUserAgent = "DailyBrief/1.0"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls listing pages and extracts papers published since the requested time.
type ArxivScanner struct {
	client   *http.Client
	pageSize int
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client; a non-positive pageSize defaults to 200.
func NewArxivScanner(client *http.Client, pageSize int) *ArxivScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ArxivScanner{client: client, pageSize: pageSize}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks through each listing and returns entries dated on or after req.Since.
// Listings carry day precision only, so the comparison is made per UTC day.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ContentItem, error) {
	endpoints := req.Endpoints()
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = domain.ContentTypeArticle
	}

	sinceDay := req.Since.UTC().Truncate(24 * time.Hour)
	results := make([]domain.ContentItem, 0)
	seen := map[string]struct{}{}

	for _, cat := range endpoints {
		skip := 0
		for {
			pageURL, err := buildPageURL(cat.URL, skip, a.pageSize)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			if err := req.Wait(ctx); err != nil {
				return nil, err
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			pageItems, shouldContinue := a.extractItems(doc, sinceDay, req.SourceID(cat.Name), contentType)
			for _, item := range pageItems {
				if _, ok := seen[item.ID]; ok {
					continue
				}
				seen[item.ID] = struct{}{}
				results = append(results, item)
			}

			if !shouldContinue {
				break
			}
			skip += a.pageSize
		}
	}

	return results, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *ArxivScanner) extractItems(doc *goquery.Document, sinceDay time.Time, sourceID string, contentType domain.ContentType) ([]domain.ContentItem, bool) {
	var (
		collected    []domain.ContentItem
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		item, ok := parseEntry(dt, dd, sourceID, contentType)
		if !ok {
			return true
		}

		itemDay := item.PublishedAt.UTC().Truncate(24 * time.Hour)
		if itemDay.Before(sinceDay) {
			continueScan = false
			return false
		}
		collected = append(collected, item)

		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

// parseEntry reads one dt/dd pair; entries without a date or a link are skipped.
func parseEntry(dt, dd *goquery.Selection, sourceID string, contentType domain.ContentType) (domain.ContentItem, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	if href == "" {
		return domain.ContentItem{}, false
	}

	id := strings.TrimSpace(link.Text())
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := dd.Find("p.mathjax").First().Text()
	abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	match := dateExpr.FindString(dateText)
	if match == "" {
		return domain.ContentItem{}, false
	}
	publishedAt, err := time.Parse("2 Jan 2006", match)
	if err != nil {
		return domain.ContentItem{}, false
	}

	return domain.ContentItem{
		ID:               id,
		SourceID:         sourceID,
		ContentType:      contentType,
		PublishedAt:      publishedAt,
		Title:            title,
		ShortDescription: collapseSpace(abstract),
		URL:              href,
	}, true
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
