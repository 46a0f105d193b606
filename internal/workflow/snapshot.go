package workflow

import (
	"dealflow/internal/config"
	"dealflow/internal/domain"
)

// Snapshot blocks returned with evaluation detail. Derived on read from the
// source entity's qualification fields; nothing here is persisted.

type ReadinessSnapshot struct {
	Score             int    `json:"score"`
	MaxScore          int    `json:"max_score"`
	Level             string `json:"level" enum:"ready,partial,not_ready"`
	ProblemIdentified bool   `json:"problem_identified"`
	BudgetMentioned   bool   `json:"budget_mentioned"`
	AuthorityKnown    bool   `json:"authority_known"`
	NeedTimeline      bool   `json:"need_timeline"`
}

type RiskAssessment struct {
	Level   string   `json:"level" enum:"low,medium,high"`
	Factors []string `json:"factors"`
}

type BudgetValidation struct {
	EstimatedCost    int64    `json:"estimated_cost"`
	RequiresApproval bool     `json:"requires_approval"`
	ApproverRoles    []string `json:"approver_roles"`
}

// leadReadiness scores the BANT-style qualification checklist.
func leadReadiness(l domain.Lead) ReadinessSnapshot {
	s := ReadinessSnapshot{
		MaxScore:          4,
		ProblemIdentified: l.ProblemIdentified,
		BudgetMentioned:   l.BudgetMentioned != "",
		AuthorityKnown:    l.AuthorityKnown,
		NeedTimeline:      l.NeedTimeline,
	}
	for _, ok := range []bool{s.ProblemIdentified, s.BudgetMentioned, s.AuthorityKnown, s.NeedTimeline} {
		if ok {
			s.Score++
		}
	}
	switch {
	case s.Score >= 3:
		s.Level = "ready"
	case s.Score >= 2:
		s.Level = "partial"
	default:
		s.Level = "not_ready"
	}
	return s
}

func leadRisk(l domain.Lead, tiers []config.ApprovalTier) RiskAssessment {
	r := RiskAssessment{Level: "low", Factors: []string{}}
	required := RequiredApprovers(tiers, l.EstimatedDealValue)
	if len(required) > 0 {
		r.Level = "medium"
		r.Factors = append(r.Factors, "deal value requires approval")
	}
	if len(required) > 1 {
		r.Level = "high"
	}
	if !l.AuthorityKnown {
		r.Factors = append(r.Factors, "decision authority unknown")
	}
	if l.BudgetMentioned == "" {
		r.Factors = append(r.Factors, "budget not discussed")
	}
	if len(r.Factors) >= 3 {
		r.Level = "high"
	}
	return r
}

func requestBudget(pr domain.ProcureRequest, tiers []config.ApprovalTier) BudgetValidation {
	required := RequiredApprovers(tiers, pr.EstimatedCost)
	return BudgetValidation{
		EstimatedCost:    pr.EstimatedCost,
		RequiresApproval: len(required) > 0,
		ApproverRoles:    approverRoles(required),
	}
}

// leadRating buckets qualification strength into the hot/warm/cold label the
// sales views filter on.
func leadRating(l domain.Lead) string {
	switch leadReadiness(l).Level {
	case "ready":
		return "hot"
	case "partial":
		return "warm"
	default:
		return "cold"
	}
}
