// Package ids generates the human-readable prefixed identifiers used across
// the workflow pipeline (LEAD-..., REV-CMT-..., WO-...). Suffixes are random
// UUIDs rather than timestamps so rapid successive calls cannot collide.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

const (
	Lead          = "LEAD"
	ProcureReq    = "PR"
	RevenueEval   = "REV-EVAL"
	ProcureEval   = "PRO-EVAL"
	RevenueCommit = "REV-CMT"
	ProcureCommit = "PRO-CMT"
	RevenueCon    = "REV-CON"
	ProcureCon    = "PRO-CON"
	RevenueHO     = "REV-HO"
	ProcureHO     = "PRO-HO"
	WorkOrder     = "WO"
	Party         = "PTY"
	WorkspaceTask = "WT"
	Approval      = "APV"
	Activity      = "ACT"
	Signal        = "SIG"
	APIKey        = "AK"
)

// New returns "<prefix>-<12 hex chars>".
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:12])
}
