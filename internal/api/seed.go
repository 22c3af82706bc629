package api

import (
	"time"

	"github.com/granada/donor-discovery/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(v float64) *float64 { return &v }

// seedOpportunities returns a small starter catalog for demos and local
// development.
func seedOpportunities() []models.Opportunity {
	return []models.Opportunity{
		{
			Title:       "Gates Foundation Grand Challenges - Global Health Innovation",
			Description: "The Bill & Melinda Gates Foundation seeks bold ideas that explore innovative approaches to global health. Awards support early-stage research and proof-of-concept projects in low-income countries.",
			Donor: models.Donor{
				Name:    "Bill & Melinda Gates Foundation",
				Country: models.CountryGlobal,
				Type:    models.DonorFoundation,
				Website: "https://www.gatesfoundation.org",
			},
			FundingAmount: models.FundingAmount{Min: floatPtr(50000), Max: floatPtr(100000), Currency: "USD"},
			IsVerified:    true,
			FocusAreas:    []string{"Health", "Technology"},
			Eligibility:   models.Eligibility{Requirements: []string{"Registered nonprofit or research institution"}},
			ContactInfo: &models.ContactInfo{
				ApplicationURL: "https://gcgh.grandchallenges.org/grants",
			},
			SourceURL: "https://gcgh.grandchallenges.org/grants",
		},
		{
			Title:       "EU Horizon Europe - Climate Neutral Cities 2030",
			Description: "Part of the European Commission's Horizon Europe programme. Supports urban transformation projects including clean energy, sustainable mobility, and circular economy initiatives across EU member states.",
			Donor: models.Donor{
				Name:    "European Commission",
				Country: "Germany",
				Type:    models.DonorMultilateral,
				Website: "https://ec.europa.eu",
			},
			FundingAmount: models.FundingAmount{Min: floatPtr(500000), Max: floatPtr(2000000), Currency: "EUR"},
			Deadline:      models.Deadline{Application: timePtr(time.Date(2027, 6, 15, 17, 0, 0, 0, time.UTC))},
			IsVerified:    true,
			FocusAreas:    []string{"Climate", "Environment"},
			Eligibility:   models.Eligibility{Requirements: []string{"Municipality or consortium in an EU member state"}},
			SourceURL:     "https://ec.europa.eu/info/funding-tenders/opportunities/portal/screen/opportunities/climate-neutral-cities",
		},
		{
			Title:       "USAID Development Innovation Ventures",
			Description: "DIV invests in breakthrough solutions to the world's most intractable development challenges. Funding ranges from pilot to scale across sectors including agriculture, education, health, and economic growth.",
			Donor: models.Donor{
				Name:    "USAID",
				Country: "United States",
				Type:    models.DonorGovernment,
				Website: "https://www.usaid.gov",
			},
			FundingAmount: models.FundingAmount{Min: floatPtr(25000), Max: floatPtr(15000000), Currency: "USD"},
			Deadline:      models.Deadline{Application: timePtr(time.Date(2027, 9, 30, 23, 59, 0, 0, time.UTC))},
			IsVerified:    true,
			FocusAreas:    []string{"Agriculture", "Education", "Health"},
			Eligibility:   models.Eligibility{Requirements: []string{"Evidence of cost-effectiveness", "Path to scale"}},
			SourceURL:     "https://www.usaid.gov/div",
		},
		{
			Title:       "Mastercard Foundation Young Africa Works",
			Description: "Supports programs that enable young people in Africa, especially young women, to access dignified and fulfilling work. Partners include training providers, employers, and financial institutions.",
			Donor: models.Donor{
				Name:    "Mastercard Foundation",
				Country: "Kenya",
				Type:    models.DonorFoundation,
				Website: "https://mastercardfdn.org",
			},
			FundingAmount: models.FundingAmount{Min: floatPtr(100000), Max: floatPtr(5000000), Currency: "USD"},
			Deadline:      models.Deadline{Application: timePtr(time.Date(2027, 3, 31, 23, 59, 0, 0, time.UTC))},
			IsVerified:    true,
			FocusAreas:    []string{"Education", "Women Empowerment"},
			Eligibility:   models.Eligibility{Requirements: []string{"Operations in Kenya, Nigeria, Ghana, or Ethiopia"}},
			SourceURL:     "https://mastercardfdn.org/all/young-africa-works",
		},
		{
			Title:       "UNDP Small Grants Programme",
			Description: "Provides financial and technical support to community-based organizations for projects that conserve the environment while improving livelihoods.",
			Donor: models.Donor{
				Name:    "United Nations Development Programme",
				Country: models.CountryGlobal,
				Type:    models.DonorMultilateral,
				Website: "https://www.undp.org",
			},
			FundingAmount: models.FundingAmount{Min: floatPtr(10000), Max: floatPtr(50000), Currency: "USD"},
			IsVerified:    true,
			FocusAreas:    []string{"Environment", "Climate"},
			Eligibility:   models.Eligibility{Requirements: []string{"Community-based organization", "Located in a participating country"}},
			SourceURL:     "https://sgp.undp.org",
		},
		{
			Title:       "Wellcome Trust Discovery Research Grants",
			Description: "Funds bold and creative research that has the potential to improve human life, health and wellbeing. Open to researchers at any career stage.",
			Donor: models.Donor{
				Name:    "Wellcome Trust",
				Country: "United Kingdom",
				Type:    models.DonorFoundation,
				Website: "https://wellcome.org",
			},
			FundingAmount: models.FundingAmount{Min: floatPtr(400000), Max: floatPtr(400000), Currency: "GBP"},
			Deadline:      models.Deadline{Application: timePtr(time.Date(2026, 11, 12, 17, 0, 0, 0, time.UTC))},
			IsVerified:    false,
			FocusAreas:    []string{"Health", "Technology"},
			Eligibility:   models.Eligibility{Requirements: []string{"Host organization with research capability"}},
			SourceURL:     "https://wellcome.org/grant-funding/schemes/discovery-awards",
		},
	}
}
