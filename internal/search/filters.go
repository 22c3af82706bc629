package search

import "fmt"

// Bound names one end of the funding range.
type Bound string

const (
	BoundMin Bound = "min"
	BoundMax Bound = "max"
)

type FundingRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Filters is the structured predicate set applied to a search. Empty slices
// mean "no restriction", never "match nothing". The UI constrains country,
// sector and donor type to one value at a time; they are kept as slices for
// forward compatibility with multi-select.
type Filters struct {
	Countries    []string     `json:"countries"`
	Sectors      []string     `json:"sectors"`
	DonorTypes   []string     `json:"donor_types"`
	FundingRange FundingRange `json:"funding_range"`
	Verified     bool         `json:"verified"`
}

// NewFilters returns the all-empty defaults a session starts with.
func NewFilters() Filters {
	return Filters{}
}

// SetCountry replaces the country selection. An empty value clears it.
func (f *Filters) SetCountry(value string) {
	f.Countries = singleton(value)
}

// SetSector replaces the sector selection. An empty value clears it.
func (f *Filters) SetSector(value string) {
	f.Sectors = singleton(value)
}

// SetDonorType replaces the donor type selection. An empty value clears it.
func (f *Filters) SetDonorType(value string) {
	f.DonorTypes = singleton(value)
}

// SetRange sets or clears one funding bound. An inverted range is not
// corrected here; Validate reports it at execution time.
func (f *Filters) SetRange(bound Bound, value *float64) {
	switch bound {
	case BoundMin:
		f.FundingRange.Min = value
	case BoundMax:
		f.FundingRange.Max = value
	}
}

func (f *Filters) SetVerified(v bool) {
	f.Verified = v
}

// Reset returns the filter set to the all-empty defaults.
func (f *Filters) Reset() {
	*f = NewFilters()
}

// Validate checks the funding range at execution time.
func (f Filters) Validate() error {
	if f.FundingRange.Min != nil && f.FundingRange.Max != nil && *f.FundingRange.Min > *f.FundingRange.Max {
		return fmt.Errorf("funding range min %.0f exceeds max %.0f", *f.FundingRange.Min, *f.FundingRange.Max)
	}
	return nil
}

// IsZero reports whether no restriction is active.
func (f Filters) IsZero() bool {
	return len(f.Countries) == 0 && len(f.Sectors) == 0 && len(f.DonorTypes) == 0 &&
		f.FundingRange.Min == nil && f.FundingRange.Max == nil && !f.Verified
}

func singleton(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}
