package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"DailyBrief/internal/domain"
)

// Category describes a concrete section endpoint provided by config.
type Category struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	Since       time.Time
	SiteName    string
	ContentType domain.ContentType
	URL         string
	Categories  []Category
	Options     map[string]string
	Limiter     *rate.Limiter
}

// Wait blocks until the site limiter admits one more request.
func (r Request) Wait(ctx context.Context) error {
	if r.Limiter == nil {
		return nil
	}
	if err := r.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", r.SiteName, err)
	}
	return nil
}

// Endpoints returns the category endpoints, or the site URL as a single
// unnamed category when no categories are configured.
func (r Request) Endpoints() []Category {
	if len(r.Categories) > 0 {
		return r.Categories
	}
	if r.URL == "" {
		return nil
	}
	return []Category{{URL: r.URL}}
}

// SourceID builds the item source id for a category of this site.
func (r Request) SourceID(category string) string {
	if category == "" {
		return r.SiteName
	}
	return fmt.Sprintf("%s/%s", r.SiteName, category)
}

// Scanner captures a single strategy implementation (arXiv listing, RSS feed, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.ContentItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
