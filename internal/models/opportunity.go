package models

import (
	"time"

	"github.com/google/uuid"
)

// DonorType classifies the organization behind an opportunity.
type DonorType string

const (
	DonorFoundation   DonorType = "foundation"
	DonorGovernment   DonorType = "government"
	DonorMultilateral DonorType = "multilateral"
	DonorCorporate    DonorType = "corporate"
	DonorIndividual   DonorType = "individual"
	DonorUnspecified  DonorType = "unspecified"
)

// CountryGlobal is the sentinel country for opportunities without a
// geographic restriction. Filtering treats it as matching every country.
const CountryGlobal = "Global"

type Donor struct {
	Name    string    `json:"name"`
	Country string    `json:"country"`
	Type    DonorType `json:"type"`
	Website string    `json:"website"`
}

// FundingAmount is the offered range. Nil min and max together mean the
// amount is unspecified.
type FundingAmount struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency"`
}

// Deadline holds the application cutoff. A nil Application means the call
// is open/rolling.
type Deadline struct {
	Application *time.Time `json:"application,omitempty"`
}

type ContactInfo struct {
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	ApplicationURL string `json:"application_url,omitempty"`
}

type Eligibility struct {
	Requirements []string `json:"requirements"`
}

type Opportunity struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Donor         Donor         `json:"donor"`
	FundingAmount FundingAmount `json:"funding_amount"`
	Deadline      Deadline      `json:"deadline"`
	MatchScore    *int          `json:"match_score,omitempty"` // 0-100, absent when no relevance model was applied
	IsVerified    bool          `json:"is_verified"`
	FocusAreas    []string      `json:"focus_areas"`
	Eligibility   Eligibility   `json:"eligibility"`
	ContactInfo   *ContactInfo  `json:"contact_info,omitempty"`
	SourceURL     string        `json:"source_url"`
	LastUpdated   time.Time     `json:"last_updated"`
}

// Normalize fills the sentinel donor values so every opportunity handed to
// the presentation layer has a resolvable donor country and type.
func (o *Opportunity) Normalize() {
	if o.Donor.Country == "" {
		o.Donor.Country = CountryGlobal
	}
	if o.Donor.Type == "" {
		o.Donor.Type = DonorUnspecified
	}
	if o.FundingAmount.Currency == "" {
		o.FundingAmount.Currency = "USD"
	}
}

// ProposalExport is the payload handed to the proposal-generation
// collaborator when the user applies with a generated proposal.
type ProposalExport struct {
	Title       string   `json:"title"`
	DonorName   string   `json:"donor_name"`
	Description string   `json:"description"`
	MaxAmount   *float64 `json:"max_amount,omitempty"`
	Currency    string   `json:"currency"`
}

// Export builds the navigation handoff payload for this opportunity.
func (o Opportunity) Export() ProposalExport {
	return ProposalExport{
		Title:       o.Title,
		DonorName:   o.Donor.Name,
		Description: o.Description,
		MaxAmount:   o.FundingAmount.Max,
		Currency:    o.FundingAmount.Currency,
	}
}
