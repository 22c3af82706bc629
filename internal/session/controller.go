package session

import (
	"context"
	"errors"
	"sync"

	"github.com/granada/donor-discovery/internal/credits"
	"github.com/granada/donor-discovery/internal/models"
	"github.com/granada/donor-discovery/internal/search"
)

// Status is the top-level state of a discovery session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var (
	// ErrInsufficientCredits is returned when the pre-flight debit fails.
	// No request is sent and the session keeps its prior state.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrSearchInProgress is returned when a search is submitted while one
	// is already loading. The submission is not charged.
	ErrSearchInProgress = errors.New("a search is already in progress")
)

const (
	msgInsufficientEnhanced = "Insufficient credits for AI-enhanced search. Please purchase more credits or use basic search."
	msgInsufficientStandard = "Insufficient credits for search. Please purchase more credits."
	msgSearchFailed         = "Failed to search for opportunities. Please try again."
)

// Controller orchestrates one discovery session: it validates credit
// availability, invokes the search service, tracks loading/error/empty
// states, maintains the bookmark set and the selected opportunity.
// Methods are safe for concurrent use.
type Controller struct {
	ledger credits.Ledger
	svc    search.Service

	mu         sync.Mutex
	query      string
	filters    search.Filters
	enhanced   bool
	status     Status
	results    []models.Opportunity
	errMsg     string
	bookmarked map[string]struct{}
	selected   *models.Opportunity
	generation uint64
}

func NewController(ledger credits.Ledger, svc search.Service) *Controller {
	return &Controller{
		ledger:     ledger,
		svc:        svc,
		status:     StatusIdle,
		filters:    search.NewFilters(),
		bookmarked: make(map[string]struct{}),
	}
}

// SetQuery updates the session query without triggering a search.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
}

// SetEnhanced selects the search quality tier for subsequent searches.
func (c *Controller) SetEnhanced(enhanced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enhanced = enhanced
}

// ApplyFilters replaces the session filters. Filter changes never trigger
// a search; the caller must invoke Search explicitly so incidental edits
// are never charged.
func (c *Controller) ApplyFilters(filters search.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = filters
}

// ResetFilters returns the filters to the all-empty defaults.
func (c *Controller) ResetFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Reset()
}

// Search charges the credit cost for the current tier and executes a
// search with the session query and filters. An empty query is a valid
// request. Each call is independently charged; there is no caching and no
// automatic retry. Submissions while a search is loading are rejected
// without charge. A search cancelled through ctx is refunded.
func (c *Controller) Search(ctx context.Context, query string) ([]models.Opportunity, error) {
	c.mu.Lock()
	if c.status == StatusLoading {
		c.mu.Unlock()
		return nil, ErrSearchInProgress
	}
	cost := search.Cost(c.enhanced)
	if query != "" {
		c.query = query
	}
	req := search.Request{
		Query:    c.query,
		Filters:  c.filters,
		Enhanced: c.enhanced,
	}
	prior := c.status
	priorMsg := c.errMsg
	// Claim the loading state before releasing the lock, so a concurrent
	// submission is rejected above instead of racing past the check and
	// double-charging.
	c.status = StatusLoading
	c.errMsg = ""
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	// Charge before invocation. A failed debit restores the prior state;
	// no request is sent.
	ok, err := c.ledger.Debit(ctx, cost)
	if err != nil || !ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen == c.generation {
			c.status = prior
			c.errMsg = priorMsg
			if err == nil {
				if req.Enhanced {
					c.errMsg = msgInsufficientEnhanced
				} else {
					c.errMsg = msgInsufficientStandard
				}
			}
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrInsufficientCredits
	}

	result, err := c.svc.Search(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Last-submitted-wins: a stale resolution must never overwrite the
	// state of a newer submission.
	if gen != c.generation {
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// A cancelled search must not be charged.
			_ = c.ledger.Credit(context.WithoutCancel(ctx), cost)
			c.status = prior
			c.errMsg = priorMsg
			return nil, err
		}
		c.status = StatusError
		c.errMsg = msgSearchFailed
		return nil, err
	}

	// An empty result set is Success, not Error.
	c.status = StatusSuccess
	c.results = result.Opportunities
	return result.Opportunities, nil
}

// Reset returns the session to idle, clearing results and the error
// message. Bookmarks survive a reset.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.status = StatusIdle
	c.results = nil
	c.errMsg = ""
	c.selected = nil
}

// ToggleBookmark adds or removes an opportunity id from the bookmark set.
// Toggling twice restores the original set.
func (c *Controller) ToggleBookmark(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bookmarked[id]; ok {
		delete(c.bookmarked, id)
	} else {
		c.bookmarked[id] = struct{}{}
	}
}

// IsBookmarked reports whether the id is in the bookmark set.
func (c *Controller) IsBookmarked(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bookmarked[id]
	return ok
}

// Bookmarked returns a copy of the bookmark set.
func (c *Controller) Bookmarked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.bookmarked))
	for id := range c.bookmarked {
		ids = append(ids, id)
	}
	return ids
}

// SelectForDetail opens an opportunity in the detail view. Selection is
// orthogonal to search status.
func (c *Controller) SelectForDetail(opp models.Opportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = &opp
}

// ClearSelection closes the detail view.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// Selected returns the opportunity open in the detail view, if any.
func (c *Controller) Selected() (models.Opportunity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return models.Opportunity{}, false
	}
	return *c.selected, true
}

// ProposalExport builds the navigation handoff payload for the selected
// opportunity.
func (c *Controller) ProposalExport() (models.ProposalExport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return models.ProposalExport{}, false
	}
	return c.selected.Export(), true
}

// Status returns the current top-level state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Results returns the opportunities of the most recently resolved search,
// in engine-determined order.
func (c *Controller) Results() []models.Opportunity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// ErrorMessage returns the user-facing message for the last failure.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Query returns the current session query.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Filters returns the current filter set.
func (c *Controller) Filters() search.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Enhanced reports the selected search tier.
func (c *Controller) Enhanced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enhanced
}
