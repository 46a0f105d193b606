package workflow

import "context"

// SeedSummary reports what demo data was created.
type SeedSummary struct {
	Leads    []string `json:"leads"`
	Requests []string `json:"requests"`
}

// Seed populates the tenant with demo workflow data: leads across the
// qualification spectrum and a couple of purchase requests. Meant for demos
// and local development, not production orgs.
func (e Engine) Seed(ctx context.Context, t Tenant) (SeedSummary, error) {
	var sum SeedSummary
	leads := []LeadCreateOptions{
		{
			CompanyName:        "Meridian Textiles Pvt Ltd",
			Country:            "India",
			Industry:           "Manufacturing",
			ContactName:        "Asha Rao",
			ContactEmail:       "asha.rao@meridiantextiles.example",
			LeadSource:         "referral",
			EstimatedDealValue: 2_500_000,
			ExpectedTimeline:   "Q2",
			ProblemIdentified:  true,
			BudgetMentioned:    "confirmed",
			AuthorityKnown:     true,
			NeedTimeline:       true,
		},
		{
			CompanyName:        "Northgate Logistics",
			Country:            "India",
			Industry:           "Logistics",
			ContactName:        "Vikram Shetty",
			ContactEmail:       "vikram@northgate.example",
			LeadSource:         "website",
			EstimatedDealValue: 6_000_000,
			ProblemIdentified:  true,
			BudgetMentioned:    "indicative",
		},
		{
			CompanyName:        "Halcyon Health Labs",
			Country:            "India",
			Industry:           "Healthcare",
			ContactName:        "Priya Menon",
			ContactEmail:       "priya@halcyonhealth.example",
			LeadSource:         "event",
			EstimatedDealValue: 12_000_000,
			ProblemIdentified:  true,
			BudgetMentioned:    "confirmed",
			AuthorityKnown:     true,
		},
	}
	for _, opts := range leads {
		l, err := e.CreateLead(ctx, t, opts)
		if err != nil {
			return sum, err
		}
		sum.Leads = append(sum.Leads, l.ID)
	}
	requests := []RequestCreateOptions{
		{
			Title:                "Warehouse racking system",
			RequestType:          "equipment",
			Priority:             "high",
			RequestingDepartment: "Operations",
			CostCenter:           "OPS-01",
			EstimatedCost:        7_500_000,
		},
		{
			Title:                "Annual software licenses",
			RequestType:          "services",
			Priority:             "medium",
			RequestingDepartment: "IT",
			CostCenter:           "IT-02",
			EstimatedCost:        1_800_000,
			IsRecurring:          true,
		},
	}
	for _, opts := range requests {
		pr, err := e.CreateRequest(ctx, t, opts)
		if err != nil {
			return sum, err
		}
		sum.Requests = append(sum.Requests, pr.ID)
	}
	return sum, nil
}
