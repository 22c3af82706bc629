package search

import (
	"context"

	"github.com/granada/donor-discovery/internal/models"
)

// Credit cost per search tier, charged before the service is invoked. The
// cost policy is owned by the callers (session controller, HTTP handler),
// not by Service implementations.
const (
	CostStandard = 5
	CostEnhanced = 15
)

// Cost returns the credit price of one search in the given tier.
func Cost(enhanced bool) int {
	if enhanced {
		return CostEnhanced
	}
	return CostStandard
}

// Request describes one search invocation. An empty or whitespace-only
// query is valid; the service decides what "no query" means.
type Request struct {
	Query    string  `json:"query"`
	Filters  Filters `json:"filters"`
	Enhanced bool    `json:"enhanced"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// Result is the ranked outcome of a search. Opportunities keep the
// engine-determined order; callers must not re-sort.
type Result struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
}

// Service executes searches. Implementations re-execute on every call;
// there is no caching, and every invocation is independently charged by
// the caller.
type Service interface {
	Search(ctx context.Context, req Request) (*Result, error)
}
