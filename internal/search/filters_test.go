package search

import "testing"

func f(v float64) *float64 { return &v }

func TestFiltersSingletonSelection(t *testing.T) {
	var filters Filters

	filters.SetCountry("Kenya")
	filters.SetCountry("Ghana")
	if len(filters.Countries) != 1 || filters.Countries[0] != "Ghana" {
		t.Errorf("expected single country Ghana, got %v", filters.Countries)
	}

	filters.SetCountry("")
	if len(filters.Countries) != 0 {
		t.Errorf("empty value should clear the selection, got %v", filters.Countries)
	}
}

func TestFiltersReset(t *testing.T) {
	var filters Filters
	filters.SetCountry("Kenya")
	filters.SetSector("Health")
	filters.SetDonorType("foundation")
	filters.SetRange(BoundMin, f(1000))
	filters.SetRange(BoundMax, f(50000))
	filters.SetVerified(true)

	filters.Reset()
	if !filters.IsZero() {
		t.Errorf("reset filters should be zero, got %+v", filters)
	}

	// Resetting an already-clean set is a no-op.
	filters.Reset()
	if !filters.IsZero() {
		t.Errorf("second reset should stay zero, got %+v", filters)
	}
}

func TestFiltersValidate(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
		wantErr  bool
	}{
		{name: "Empty range is valid"},
		{name: "Min only", min: f(100)},
		{name: "Max only", max: f(100)},
		{name: "Ordered range", min: f(100), max: f(200)},
		{name: "Equal bounds", min: f(100), max: f(100)},
		{name: "Inverted range", min: f(200), max: f(100), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var filters Filters
			filters.SetRange(BoundMin, tt.min)
			filters.SetRange(BoundMax, tt.max)
			err := filters.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCost(t *testing.T) {
	if got := Cost(false); got != CostStandard {
		t.Errorf("standard cost = %d, want %d", got, CostStandard)
	}
	if got := Cost(true); got != CostEnhanced {
		t.Errorf("enhanced cost = %d, want %d", got, CostEnhanced)
	}
	if CostEnhanced <= CostStandard {
		t.Errorf("enhanced tier must cost more than standard: %d <= %d", CostEnhanced, CostStandard)
	}
}
