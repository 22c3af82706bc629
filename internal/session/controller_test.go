package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/granada/donor-discovery/internal/credits"
	"github.com/granada/donor-discovery/internal/models"
	"github.com/granada/donor-discovery/internal/search"
)

type fakeService struct {
	mu    sync.Mutex
	calls []search.Request
	fn    func(ctx context.Context, req search.Request) (*search.Result, error)
}

func (f *fakeService) Search(ctx context.Context, req search.Request) (*search.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(ctx, req)
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newSession(t *testing.T, balance int, fn func(ctx context.Context, req search.Request) (*search.Result, error)) (*Controller, credits.Bank, uuid.UUID, *fakeService) {
	t.Helper()
	bank := credits.NewMemoryBank()
	userID := uuid.New()
	if err := bank.CreateAccount(context.Background(), userID, balance); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	svc := &fakeService{fn: fn}
	return NewController(credits.Bound(bank, userID), svc), bank, userID, svc
}

func oneResult() *search.Result {
	return &search.Result{
		Opportunities: []models.Opportunity{{ID: uuid.New(), Title: "Community Health Grant"}},
		Total:         1,
	}
}

func TestSearchChargesAndSucceeds(t *testing.T) {
	ctx := context.Background()
	ctrl, bank, userID, svc := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	results, err := ctrl.Search(ctx, "health")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if ctrl.Status() != StatusSuccess {
		t.Errorf("status = %q, want %q", ctrl.Status(), StatusSuccess)
	}

	balance, _ := bank.Balance(ctx, userID)
	if balance != 100-search.CostStandard {
		t.Errorf("balance = %d, want %d", balance, 100-search.CostStandard)
	}
	if svc.callCount() != 1 {
		t.Errorf("service calls = %d, want 1", svc.callCount())
	}
}

func TestSearchEnhancedCostsMore(t *testing.T) {
	ctx := context.Background()
	ctrl, bank, userID, _ := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	ctrl.SetEnhanced(true)
	if _, err := ctrl.Search(ctx, "health"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	balance, _ := bank.Balance(ctx, userID)
	if balance != 100-search.CostEnhanced {
		t.Errorf("balance = %d, want %d", balance, 100-search.CostEnhanced)
	}
}

func TestSearchInsufficientCreditsKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	ctrl, bank, userID, svc := newSession(t, search.CostStandard+2, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	// First search succeeds and leaves 2 credits.
	if _, err := ctrl.Search(ctx, "health"); err != nil {
		t.Fatalf("first search failed: %v", err)
	}

	_, err := ctrl.Search(ctx, "education")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("got %v, want ErrInsufficientCredits", err)
	}

	// Prior results and status survive; no request was sent; nothing charged.
	if ctrl.Status() != StatusSuccess {
		t.Errorf("status = %q, want prior %q", ctrl.Status(), StatusSuccess)
	}
	if len(ctrl.Results()) != 1 {
		t.Errorf("prior results lost: %d", len(ctrl.Results()))
	}
	if ctrl.ErrorMessage() == "" {
		t.Error("expected an insufficient-credits message")
	}
	if svc.callCount() != 1 {
		t.Errorf("service calls = %d, want 1 (rejection must not reach the engine)", svc.callCount())
	}
	balance, _ := bank.Balance(ctx, userID)
	if balance != 2 {
		t.Errorf("balance = %d, want 2", balance)
	}
}

func TestSearchInsufficientMessagePerTier(t *testing.T) {
	ctx := context.Background()

	ctrl, _, _, _ := newSession(t, 0, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})
	_, _ = ctrl.Search(ctx, "health")
	if got := ctrl.ErrorMessage(); got != msgInsufficientStandard {
		t.Errorf("standard message = %q, want %q", got, msgInsufficientStandard)
	}

	ctrl, _, _, _ = newSession(t, search.CostEnhanced-1, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})
	ctrl.SetEnhanced(true)
	_, _ = ctrl.Search(ctx, "health")
	if got := ctrl.ErrorMessage(); got != msgInsufficientEnhanced {
		t.Errorf("enhanced message = %q, want %q", got, msgInsufficientEnhanced)
	}
}

func TestSearchEngineFailureConsumesCredits(t *testing.T) {
	ctx := context.Background()
	ctrl, bank, userID, _ := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return nil, errors.New("upstream unavailable")
	})

	if _, err := ctrl.Search(ctx, "health"); err == nil {
		t.Fatal("expected an error")
	}
	if ctrl.Status() != StatusError {
		t.Errorf("status = %q, want %q", ctrl.Status(), StatusError)
	}
	if got := ctrl.ErrorMessage(); got != msgSearchFailed {
		t.Errorf("message = %q, want %q", got, msgSearchFailed)
	}

	// An in-flight failure is still a consumed attempt.
	balance, _ := bank.Balance(ctx, userID)
	if balance != 100-search.CostStandard {
		t.Errorf("balance = %d, want %d", balance, 100-search.CostStandard)
	}
}

func TestSearchEmptyResultIsSuccess(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _, _ := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return &search.Result{Opportunities: []models.Opportunity{}}, nil
	})

	results, err := ctrl.Search(ctx, "underwater basket weaving")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}
	if ctrl.Status() != StatusSuccess {
		t.Errorf("status = %q, want %q (no results is not an error)", ctrl.Status(), StatusSuccess)
	}
	if ctrl.ErrorMessage() != "" {
		t.Errorf("unexpected error message %q", ctrl.ErrorMessage())
	}
}

func TestSearchEmptyQueryIsValid(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _, svc := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	if _, err := ctrl.Search(ctx, ""); err != nil {
		t.Fatalf("empty-query search failed: %v", err)
	}
	if svc.callCount() != 1 {
		t.Errorf("service calls = %d, want 1", svc.callCount())
	}
}

func TestSearchRejectedWhileLoading(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	ctrl, bank, userID, _ := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		close(started)
		<-release
		return oneResult(), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Search(ctx, "health")
		done <- err
	}()

	<-started
	_, err := ctrl.Search(ctx, "education")
	if !errors.Is(err, ErrSearchInProgress) {
		t.Fatalf("got %v, want ErrSearchInProgress", err)
	}

	// The rejected submission was not charged.
	balance, _ := bank.Balance(ctx, userID)
	if balance != 100-search.CostStandard {
		t.Errorf("balance = %d, want %d", balance, 100-search.CostStandard)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	if ctrl.Status() != StatusSuccess {
		t.Errorf("status = %q, want %q", ctrl.Status(), StatusSuccess)
	}
}

func TestSearchConcurrentSubmissionsChargeOnce(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})

	ctrl, bank, userID, svc := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		<-release
		return oneResult(), nil
	})

	const submissions = 5
	errs := make(chan error, submissions)
	for i := 0; i < submissions; i++ {
		go func() {
			_, err := ctrl.Search(ctx, "health")
			errs <- err
		}()
	}

	// Exactly one submission may win the loading state; the rest are
	// rejected while it is in flight.
	for rejected := 0; rejected < submissions-1; rejected++ {
		if err := <-errs; !errors.Is(err, ErrSearchInProgress) {
			t.Fatalf("concurrent submission got %v, want ErrSearchInProgress", err)
		}
	}

	close(release)
	if err := <-errs; err != nil {
		t.Fatalf("winning submission failed: %v", err)
	}

	if svc.callCount() != 1 {
		t.Errorf("service calls = %d, want 1", svc.callCount())
	}
	balance, _ := bank.Balance(ctx, userID)
	if balance != 100-search.CostStandard {
		t.Errorf("balance = %d, want %d (only the winner is charged)", balance, 100-search.CostStandard)
	}
}

func TestResetDuringFlightDiscardsStaleResolution(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	ctrl, _, _, _ := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		close(started)
		<-release
		return oneResult(), nil
	})

	type outcome struct {
		results []models.Opportunity
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := ctrl.Search(ctx, "health")
		done <- outcome{results, err}
	}()

	<-started
	ctrl.Reset()
	close(release)

	got := <-done
	if got.err != nil {
		t.Fatalf("stale search returned error: %v", got.err)
	}
	if got.results != nil {
		t.Errorf("stale search returned results: %v", got.results)
	}

	// The reset won: the late resolution must not resurrect success state.
	if ctrl.Status() != StatusIdle {
		t.Errorf("status = %q, want %q", ctrl.Status(), StatusIdle)
	}
	if ctrl.Results() != nil {
		t.Errorf("results = %v, want nil", ctrl.Results())
	}
}

func TestSearchCancelledIsRefunded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ctrl, bank, userID, _ := newSession(t, 100, func(ctx context.Context, _ search.Request) (*search.Result, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := ctrl.Search(ctx, "health")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	if ctrl.Status() != StatusIdle {
		t.Errorf("status = %q, want prior %q", ctrl.Status(), StatusIdle)
	}

	balance, _ := bank.Balance(context.Background(), userID)
	if balance != 100 {
		t.Errorf("balance after cancel = %d, want 100 (refunded)", balance)
	}
}

func TestSearchRepeatChargesEachTime(t *testing.T) {
	ctx := context.Background()
	ctrl, bank, userID, svc := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	for i := 0; i < 3; i++ {
		if _, err := ctrl.Search(ctx, "health"); err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
	}

	// Identical queries are never cached; each resolution is billed.
	if svc.callCount() != 3 {
		t.Errorf("service calls = %d, want 3", svc.callCount())
	}
	balance, _ := bank.Balance(ctx, userID)
	if balance != 100-3*search.CostStandard {
		t.Errorf("balance = %d, want %d", balance, 100-3*search.CostStandard)
	}
}

func TestResetKeepsBookmarks(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _, _ := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	if _, err := ctrl.Search(ctx, "health"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	ctrl.ToggleBookmark("opp-1")
	ctrl.SelectForDetail(models.Opportunity{Title: "X"})

	ctrl.Reset()

	if ctrl.Status() != StatusIdle {
		t.Errorf("status = %q, want %q", ctrl.Status(), StatusIdle)
	}
	if ctrl.Results() != nil {
		t.Error("results should be cleared by reset")
	}
	if _, ok := ctrl.Selected(); ok {
		t.Error("selection should be cleared by reset")
	}
	if !ctrl.IsBookmarked("opp-1") {
		t.Error("bookmarks must survive a reset")
	}
}

func TestToggleBookmarkTwiceRestores(t *testing.T) {
	ctrl, _, _, _ := newSession(t, 0, nil)

	ctrl.ToggleBookmark("a")
	if !ctrl.IsBookmarked("a") {
		t.Fatal("expected bookmarked after first toggle")
	}
	ctrl.ToggleBookmark("a")
	if ctrl.IsBookmarked("a") {
		t.Fatal("expected unbookmarked after second toggle")
	}
	if len(ctrl.Bookmarked()) != 0 {
		t.Errorf("bookmark set = %v, want empty", ctrl.Bookmarked())
	}
}

func TestProposalExport(t *testing.T) {
	ctrl, _, _, _ := newSession(t, 0, nil)

	if _, ok := ctrl.ProposalExport(); ok {
		t.Fatal("export without selection should report false")
	}

	opp := models.Opportunity{ID: uuid.New(), Title: "Climate Fund"}
	opp.Normalize()
	ctrl.SelectForDetail(opp)

	export, ok := ctrl.ProposalExport()
	if !ok {
		t.Fatal("export with selection should report true")
	}
	if export.Title != "Climate Fund" {
		t.Errorf("export title = %q, want %q", export.Title, "Climate Fund")
	}

	ctrl.ClearSelection()
	if _, ok := ctrl.ProposalExport(); ok {
		t.Fatal("export after clearing selection should report false")
	}
}

func TestFilterEditsAreFreeUntilSearch(t *testing.T) {
	ctx := context.Background()
	ctrl, bank, userID, svc := newSession(t, 100, func(context.Context, search.Request) (*search.Result, error) {
		return oneResult(), nil
	})

	filters := search.NewFilters()
	filters.SetCountry("Kenya")
	filters.SetSector("Health")
	ctrl.ApplyFilters(filters)
	ctrl.SetQuery("maternal health")
	ctrl.SetEnhanced(true)
	ctrl.ResetFilters()

	if svc.callCount() != 0 {
		t.Fatalf("service calls = %d, want 0 (edits must not trigger searches)", svc.callCount())
	}
	balance, _ := bank.Balance(ctx, userID)
	if balance != 100 {
		t.Errorf("balance = %d, want 100 (edits are never charged)", balance)
	}

	if _, err := ctrl.Search(ctx, ""); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got := ctrl.Query(); got != "maternal health" {
		t.Errorf("query = %q, want %q", got, "maternal health")
	}
	if !ctrl.Filters().IsZero() {
		t.Errorf("filters should be reset, got %+v", ctrl.Filters())
	}
}

func TestSearchTimeoutSetsError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ctrl, _, _, _ := newSession(t, 100, func(ctx context.Context, _ search.Request) (*search.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	if _, err := ctrl.Search(ctx, "health"); err == nil {
		t.Fatal("expected a timeout error")
	}
	if ctrl.Status() != StatusError {
		t.Errorf("status = %q, want %q", ctrl.Status(), StatusError)
	}
}
