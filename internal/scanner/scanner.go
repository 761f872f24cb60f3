package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"AINewsAgent/internal/domain"
)

// Category describes a concrete listing endpoint inside one feed.
type Category struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	SiteName   string
	URL        string
	Since      time.Time
	Categories []Category
	Options    map[string]string
}

// Window builds the recency bound for a feed that looks hoursBack hours into the past.
func Window(now time.Time, hoursBack int) time.Time {
	return now.Add(-time.Duration(hoursBack) * time.Hour)
}

// Scanner captures a single strategy implementation (RSS, arXiv listing, etc.).
// Implementations tag every record with req.SiteName and drop malformed entries
// individually.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.ArticleRecord, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
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

// Names lists registered strategies in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
