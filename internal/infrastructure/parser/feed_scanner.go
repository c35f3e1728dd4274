package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"DailyBrief/internal/domain"
	"DailyBrief/internal/scanner"
)

const httpPrefix = "http"

// FeedScanner reads RSS and Atom feeds; the site's content type decides
// whether entries are articles, forum posts, social posts or podcast episodes.
type FeedScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires an HTTP client.
func NewFeedScanner(client *http.Client) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan fetches each feed endpoint and keeps entries published at or after req.Since.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ContentItem, error) {
	endpoints := req.Endpoints()
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no feed url provided for site %s", req.SiteName)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = domain.ContentTypeArticle
	}

	results := make([]domain.ContentItem, 0)
	for _, endpoint := range endpoints {
		if err := req.Wait(ctx); err != nil {
			return nil, err
		}

		feed, err := f.fetchFeed(ctx, endpoint.URL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", endpoint.URL, err)
		}

		sourceID := req.SourceID(endpoint.Name)
		for _, entry := range feed.Items {
			item, ok := toContentItem(entry, sourceID, contentType)
			if !ok || item.PublishedAt.Before(req.Since) {
				continue
			}
			results = append(results, item)
		}
	}

	return results, nil
}

func (f *FeedScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func toContentItem(entry *gofeed.Item, sourceID string, contentType domain.ContentType) (domain.ContentItem, bool) {
	if entry == nil {
		return domain.ContentItem{}, false
	}

	link := extractLink(entry)
	id := strings.TrimSpace(entry.GUID)
	if id == "" {
		id = link
	}
	if id == "" {
		return domain.ContentItem{}, false
	}

	published := entry.PublishedParsed
	if published == nil {
		published = entry.UpdatedParsed
	}
	if published == nil {
		return domain.ContentItem{}, false
	}

	description := entry.Description
	if strings.TrimSpace(description) == "" {
		description = entry.Content
	}

	return domain.ContentItem{
		ID:               id,
		SourceID:         sourceID,
		ContentType:      contentType,
		PublishedAt:      published.UTC(),
		Title:            plainText(entry.Title),
		ShortDescription: plainText(description),
		URL:              link,
	}, true
}

// extractLink prefers the explicit link and falls back to a URL-shaped GUID.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}
	for _, enclosure := range entry.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	return ""
}
