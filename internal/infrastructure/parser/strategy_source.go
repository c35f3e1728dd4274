package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"DailyBrief/internal/config"
	"DailyBrief/internal/domain"
	"DailyBrief/internal/ports"
	"DailyBrief/internal/scanner"
)

// SiteSource exposes one configured site as a content source backed by a scanner strategy.
type SiteSource struct {
	strategy    scanner.Scanner
	site        config.SourceConfig
	contentType domain.ContentType
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ ports.ContentSource = (*SiteSource)(nil)

// NewSiteSource resolves the site's scanner and validates its content type.
func NewSiteSource(reg *scanner.Registry, site config.SourceConfig, log *slog.Logger) (*SiteSource, error) {
	if reg == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := reg.Resolve(site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	contentType := domain.ContentType(site.ContentType)
	if contentType == "" {
		contentType = domain.ContentTypeArticle
	}
	if !contentType.Valid() {
		return nil, fmt.Errorf("site %s: unknown content type %q", site.Name, site.ContentType)
	}

	var limiter *rate.Limiter
	if site.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(site.RequestsPerSecond), 1)
	}

	return &SiteSource{
		strategy:    strategy,
		site:        site,
		contentType: contentType,
		limiter:     limiter,
		logger:      log,
	}, nil
}

// NewSiteSources builds a source per configured site, in configuration order.
func NewSiteSources(reg *scanner.Registry, sites []config.SourceConfig, log *slog.Logger) ([]ports.ContentSource, error) {
	sources := make([]ports.ContentSource, 0, len(sites))
	for _, site := range sites {
		source, err := NewSiteSource(reg, site, log)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Name returns the configured site name.
func (s *SiteSource) Name() string {
	return s.site.Name
}

// FetchRecent runs the scanner for items published since the given time.
func (s *SiteSource) FetchRecent(ctx context.Context, since time.Time) ([]domain.ContentItem, error) {
	s.debug("fetch recent", "site", s.site.Name, "scanner", s.site.Scanner, "since", since.Format(time.RFC3339))

	req := scanner.Request{
		Since:       since,
		SiteName:    s.site.Name,
		ContentType: s.contentType,
		URL:         s.site.URL,
		Options:     s.site.Options,
		Categories:  toScannerCategories(s.site.Categories),
		Limiter:     s.limiter,
	}

	results, err := s.strategy.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scan site %s: %w", s.site.Name, err)
	}

	for i := range results {
		if results[i].SourceID == "" {
			results[i].SourceID = s.site.Name
		}
		if results[i].ContentType == "" {
			results[i].ContentType = s.contentType
		}
	}
	s.debug("site produced items", "site", s.site.Name, "count", len(results))
	return results, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *SiteSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
