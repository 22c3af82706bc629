package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/granada/donor-discovery/internal/ai"
	"github.com/granada/donor-discovery/internal/annotate"
	"github.com/granada/donor-discovery/internal/config"
	"github.com/granada/donor-discovery/internal/credits"
	"github.com/granada/donor-discovery/internal/db"
	"github.com/granada/donor-discovery/internal/search"
	"github.com/granada/donor-discovery/internal/session"
)

func main() {
	var (
		query     = flag.String("q", "", "search query")
		country   = flag.String("country", "", "donor country filter")
		sector    = flag.String("sector", "", "sector filter")
		donorType = flag.String("donor-type", "", "donor type filter")
		minAmount = flag.Float64("min", 0, "minimum funding amount")
		maxAmount = flag.Float64("max", 0, "maximum funding amount")
		verified  = flag.Bool("verified", false, "verified donors only")
		enhanced  = flag.Bool("enhanced", false, "AI-enhanced semantic search")
		balance   = flag.Int("credits", 100, "starting credit balance")
	)
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store := db.NewStore(pool, ai.NewOllamaClient(cfg.OllamaHost, cfg.EmbedModel))

	// A throwaway in-memory account; this tool is for poking at the catalog,
	// not for real billing.
	bank := credits.NewMemoryBank()
	userID := uuid.New()
	if err := bank.CreateAccount(ctx, userID, *balance); err != nil {
		log.Fatal(err)
	}

	ctrl := session.NewController(credits.Bound(bank, userID), store)

	filters := search.NewFilters()
	filters.SetCountry(*country)
	filters.SetSector(*sector)
	filters.SetDonorType(*donorType)
	if *minAmount > 0 {
		filters.SetRange(search.BoundMin, minAmount)
	}
	if *maxAmount > 0 {
		filters.SetRange(search.BoundMax, maxAmount)
	}
	filters.SetVerified(*verified)

	ctrl.ApplyFilters(filters)
	ctrl.SetEnhanced(*enhanced)

	results, err := ctrl.Search(ctx, *query)
	if err != nil {
		log.Fatalf("Search failed: %s", ctrl.ErrorMessage())
	}

	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Match", "Title", "Donor", "Funding", "Deadline", "Verified"})

	for _, o := range results {
		match := "-"
		if o.MatchScore != nil {
			match = fmt.Sprintf("%d%% (%s)", *o.MatchScore, annotate.MatchBand(o.MatchScore))
		}
		verifiedMark := ""
		if o.IsVerified {
			verifiedMark = "yes"
		}
		t.AppendRow(table.Row{
			match,
			truncate(o.Title, 48),
			fmt.Sprintf("%s (%s)", o.Donor.Name, o.Donor.Country),
			annotate.FormatCurrency(o.FundingAmount.Min, o.FundingAmount.Max, o.FundingAmount.Currency),
			annotate.FormatDeadline(o.Deadline.Application, now),
			verifiedMark,
		})
	}
	t.Render()

	remaining, _ := bank.Balance(ctx, userID)
	fmt.Printf("\n%d results. Credits: %d spent, %d remaining.\n", len(results), *balance-remaining, remaining)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
