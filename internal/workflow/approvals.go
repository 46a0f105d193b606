package workflow

import (
	"dealflow/internal/config"
	"dealflow/internal/domain"
)

// RequiredApprovers maps a deal value to the ordered approver roles the org's
// tiering demands. Pure and deterministic: it is called once at submit time to
// stamp the commit, and freely by callers previewing a submission. An amount
// exactly at a threshold stays in the lower tier; strict > enters the next.
func RequiredApprovers(tiers []config.ApprovalTier, amount int64) []domain.Approver {
	var out []domain.Approver
	for _, tier := range tiers {
		if amount > tier.Threshold {
			out = append(out, domain.Approver{Role: tier.Role, Reason: tier.Reason})
		}
	}
	return out
}

func approverRoles(approvers []domain.Approver) []string {
	roles := make([]string, 0, len(approvers))
	for _, a := range approvers {
		roles = append(roles, a.Role)
	}
	return roles
}

func hasRole(approvers []domain.Approver, role string) bool {
	for _, a := range approvers {
		if a.Role == role {
			return true
		}
	}
	return false
}
