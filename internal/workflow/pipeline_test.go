package workflow_test

import (
	"testing"

	"dealflow/internal/config"
	"dealflow/internal/domain"
	"dealflow/internal/repo"
	"dealflow/internal/workflow"
)

// openEvaluation walks a lead with the given deal value up to an open revenue
// evaluation.
func openEvaluation(t *testing.T, env testEnv, value int64) domain.Evaluation {
	t.Helper()
	l := qualifiedLead(t, env, workflow.LeadCreateOptions{
		CompanyName:        "Zenith Systems",
		Country:            "IN",
		ContactName:        "Ravi",
		EstimatedDealValue: value,
	})
	res, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, l.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return res.Evaluation
}

func TestRequiredApproversThresholds(t *testing.T) {
	tiers := config.Default("acme").TiersFor(domain.DomainRevenue)
	cases := []struct {
		amount int64
		roles  []string
	}{
		{4_999_999, nil},
		{5_000_000, nil}, // at the threshold stays in the lower tier
		{5_000_001, []string{"Finance Head"}},
		{10_000_000, []string{"Finance Head"}},
		{10_000_001, []string{"Finance Head", "CFO"}},
	}
	for _, tc := range cases {
		got := workflow.RequiredApprovers(tiers, tc.amount)
		if len(got) != len(tc.roles) {
			t.Fatalf("amount %d: expected %d approvers, got %+v", tc.amount, len(tc.roles), got)
		}
		for i, role := range tc.roles {
			if got[i].Role != role {
				t.Fatalf("amount %d: expected %s at %d, got %+v", tc.amount, role, i, got)
			}
		}
	}
}

func TestSubmitEvaluationBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	ev := openEvaluation(t, env, 1_000_000)
	res, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainRevenue, ev.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.RequiresApproval {
		t.Fatalf("expected auto-approval below threshold")
	}
	if res.Commit.Status != "approved" || len(res.Commit.Approvers) != 0 {
		t.Fatalf("unexpected commit: %+v", res.Commit)
	}
	ev, err = env.Engine.Repo.GetEvaluation(env.Ctx, "acme", ev.ID)
	if err != nil {
		t.Fatalf("reload evaluation: %v", err)
	}
	if ev.Status != "submitted" || ev.CommitID == nil || *ev.CommitID != res.Commit.ID {
		t.Fatalf("evaluation not closed out: %+v", ev)
	}
	// resubmission is rejected
	if _, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainRevenue, ev.ID); !isRejection(err) {
		t.Fatalf("expected rejection for resubmit, got %v", err)
	}
}

func TestSubmitEvaluationStampsApprovers(t *testing.T) {
	env := newTestEnv(t)
	ev := openEvaluation(t, env, 12_000_000)
	res, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainRevenue, ev.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.RequiresApproval || res.Commit.Status != "pending_approval" {
		t.Fatalf("expected pending commit, got %+v", res.Commit)
	}
	if len(res.Commit.Approvers) != 2 || res.Commit.Approvers[0].Role != "Finance Head" || res.Commit.Approvers[1].Role != "CFO" {
		t.Fatalf("unexpected approvers: %+v", res.Commit.Approvers)
	}
	// one pending workspace approval per stamped role
	pending, err := env.Engine.Repo.ListApprovals(env.Ctx, "acme", repo.ApprovalFilters{ContextID: res.Commit.ID})
	if err != nil {
		t.Fatalf("list approvals: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 approval requests, got %d", len(pending))
	}
	for _, a := range pending {
		if a.Decision != "pending" || a.ContextType != "commit" {
			t.Fatalf("unexpected approval: %+v", a)
		}
	}
}

func TestSubmitEvaluationWrongDomain(t *testing.T) {
	env := newTestEnv(t)
	ev := openEvaluation(t, env, 1_000_000)
	if _, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainProcurement, ev.ID); !isRejection(err) {
		t.Fatalf("expected domain mismatch rejection, got %v", err)
	}
}

func TestApproveCommit(t *testing.T) {
	env := newTestEnv(t)
	ev := openEvaluation(t, env, 12_000_000)
	sub, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainRevenue, ev.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := sub.Commit.ID

	// role not on the commit
	if _, err := env.Engine.ApproveCommit(env.Ctx, env.Tenant, domain.DomainRevenue, id, "CTO"); !isRejection(err) {
		t.Fatalf("expected rejection for unknown role, got %v", err)
	}
	res, err := env.Engine.ApproveCommit(env.Ctx, env.Tenant, domain.DomainRevenue, id, "Finance Head")
	if err != nil {
		t.Fatalf("first approval: %v", err)
	}
	if res.AllApproved || res.Commit.Status != "pending_approval" {
		t.Fatalf("expected still pending, got %+v", res)
	}
	// repeat approval by the same role
	if _, err := env.Engine.ApproveCommit(env.Ctx, env.Tenant, domain.DomainRevenue, id, "Finance Head"); !isRejection(err) {
		t.Fatalf("expected rejection for repeat approval, got %v", err)
	}
	res, err = env.Engine.ApproveCommit(env.Ctx, env.Tenant, domain.DomainRevenue, id, "CFO")
	if err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if !res.AllApproved || res.Commit.Status != "approved" {
		t.Fatalf("expected approved commit, got %+v", res)
	}
	// workspace approvals flipped to approved
	decided, err := env.Engine.Repo.ListApprovals(env.Ctx, "acme", repo.ApprovalFilters{ContextID: id, Decision: "approved"})
	if err != nil {
		t.Fatalf("list approvals: %v", err)
	}
	if len(decided) != 2 {
		t.Fatalf("expected 2 approved decisions, got %d", len(decided))
	}
	// approving a settled commit is rejected
	if _, err := env.Engine.ApproveCommit(env.Ctx, env.Tenant, domain.DomainRevenue, id, "CFO"); !isRejection(err) {
		t.Fatalf("expected rejection once approved, got %v", err)
	}
}

func TestContractLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ev := openEvaluation(t, env, 6_000_000)
	sub, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainRevenue, ev.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// contract before approval is rejected
	if _, err := env.Engine.CreateContract(env.Ctx, env.Tenant, domain.DomainRevenue, sub.Commit.ID); !isRejection(err) {
		t.Fatalf("expected rejection before approval, got %v", err)
	}
	if _, err := env.Engine.ApproveCommit(env.Ctx, env.Tenant, domain.DomainRevenue, sub.Commit.ID, "Finance Head"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	con, err := env.Engine.CreateContract(env.Ctx, env.Tenant, domain.DomainRevenue, sub.Commit.ID)
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if con.Status != "draft" || con.Value != 6_000_000 || con.CommitID != sub.Commit.ID {
		t.Fatalf("unexpected contract: %+v", con)
	}
	// one contract per commit
	if _, err := env.Engine.CreateContract(env.Ctx, env.Tenant, domain.DomainRevenue, sub.Commit.ID); !isRejection(err) {
		t.Fatalf("expected rejection for second contract, got %v", err)
	}
	tasks, err := env.Engine.Repo.ListWorkspaceTasks(env.Ctx, "acme", repo.TaskFilters{ContextID: con.ID})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Review Contract: Zenith Systems" {
		t.Fatalf("expected review task, got %+v", tasks)
	}
	con, err = env.Engine.SignContract(env.Ctx, env.Tenant, domain.DomainRevenue, con.ID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if con.Status != "signed" || con.SignedAt == nil {
		t.Fatalf("unexpected signed contract: %+v", con)
	}
	// signing twice is rejected
	if _, err := env.Engine.SignContract(env.Ctx, env.Tenant, domain.DomainRevenue, con.ID); !isRejection(err) {
		t.Fatalf("expected rejection for double sign, got %v", err)
	}
}

func TestHandoffFanout(t *testing.T) {
	env := newTestEnv(t)
	ev := openEvaluation(t, env, 1_000_000)
	sub, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainRevenue, ev.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	con, err := env.Engine.CreateContract(env.Ctx, env.Tenant, domain.DomainRevenue, sub.Commit.ID)
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	// handoff requires a signed contract
	if _, err := env.Engine.CreateHandoff(env.Ctx, env.Tenant, domain.DomainRevenue, con.ID); !isRejection(err) {
		t.Fatalf("expected rejection before signing, got %v", err)
	}
	if _, err := env.Engine.SignContract(env.Ctx, env.Tenant, domain.DomainRevenue, con.ID); err != nil {
		t.Fatalf("sign: %v", err)
	}
	res, err := env.Engine.CreateHandoff(env.Ctx, env.Tenant, domain.DomainRevenue, con.ID)
	if err != nil {
		t.Fatalf("handoff: %v", err)
	}
	if res.Handoff.ContractID != con.ID || res.Handoff.WorkOrderID != res.WorkOrder.ID {
		t.Fatalf("handoff not linked: %+v", res.Handoff)
	}
	if res.WorkOrder.SourceContractID != con.ID || res.WorkOrder.SourceType != domain.DomainRevenue {
		t.Fatalf("unexpected work order: %+v", res.WorkOrder)
	}
	tasks, err := env.Engine.Repo.ListWorkspaceTasks(env.Ctx, "acme", repo.TaskFilters{ContextID: res.Handoff.ID})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Start Delivery: Zenith Systems" {
		t.Fatalf("expected delivery task, got %+v", tasks)
	}
	signals, err := env.Engine.Repo.ListSignals(env.Ctx, "acme", "deal_won", 10)
	if err != nil {
		t.Fatalf("list signals: %v", err)
	}
	if len(signals) != 1 || signals[0].EntityID != con.ID {
		t.Fatalf("expected deal_won signal for contract, got %+v", signals)
	}
	if signals[0].Source != "workflow_engine" {
		t.Fatalf("expected workflow_engine source, got %q", signals[0].Source)
	}
	// one handoff per contract
	if _, err := env.Engine.CreateHandoff(env.Ctx, env.Tenant, domain.DomainRevenue, con.ID); !isRejection(err) {
		t.Fatalf("expected rejection for second handoff, got %v", err)
	}
}

func TestProcurementPipelineEmitsNoDealSignal(t *testing.T) {
	env := newTestEnv(t)
	pr, err := env.Engine.CreateRequest(env.Ctx, env.Tenant, workflow.RequestCreateOptions{
		Title:         "Warehouse racking",
		RequestType:   "goods",
		Priority:      "medium",
		EstimatedCost: 2_000_000,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	conv, err := env.Engine.SubmitRequest(env.Ctx, env.Tenant, pr.ID)
	if err != nil {
		t.Fatalf("submit request: %v", err)
	}
	sub, err := env.Engine.SubmitEvaluation(env.Ctx, env.Tenant, domain.DomainProcurement, conv.Evaluation.ID)
	if err != nil {
		t.Fatalf("submit evaluation: %v", err)
	}
	con, err := env.Engine.CreateContract(env.Ctx, env.Tenant, domain.DomainProcurement, sub.Commit.ID)
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if _, err := env.Engine.SignContract(env.Ctx, env.Tenant, domain.DomainProcurement, con.ID); err != nil {
		t.Fatalf("sign: %v", err)
	}
	res, err := env.Engine.CreateHandoff(env.Ctx, env.Tenant, domain.DomainProcurement, con.ID)
	if err != nil {
		t.Fatalf("handoff: %v", err)
	}
	if res.WorkOrder.SourceType != domain.DomainProcurement {
		t.Fatalf("unexpected work order: %+v", res.WorkOrder)
	}
	signals, err := env.Engine.Repo.ListSignals(env.Ctx, "acme", "deal_won", 10)
	if err != nil {
		t.Fatalf("list signals: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("deal_won is revenue-only, got %+v", signals)
	}
}

func TestEvaluationDetailSnapshots(t *testing.T) {
	env := newTestEnv(t)
	l := qualifiedLead(t, env, workflow.LeadCreateOptions{
		CompanyName:        "Zenith Systems",
		Country:            "IN",
		ContactName:        "Ravi",
		EstimatedDealValue: 12_000_000,
		ProblemIdentified:  true,
		BudgetMentioned:    "1.2Cr budgeted",
	})
	conv, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, l.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	detail, err := env.Engine.GetEvaluationDetail(env.Ctx, env.Tenant, domain.DomainRevenue, conv.Evaluation.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.PartyReadiness == nil || detail.RiskAssessment == nil || detail.BudgetValidation != nil {
		t.Fatalf("expected revenue snapshot blocks, got %+v", detail)
	}
	if detail.PartyReadiness.Score != 2 || detail.PartyReadiness.Level != "partial" {
		t.Fatalf("unexpected readiness: %+v", detail.PartyReadiness)
	}
	// two approver tiers plus unknown authority pushes risk to high
	if detail.RiskAssessment.Level != "high" {
		t.Fatalf("unexpected risk: %+v", detail.RiskAssessment)
	}

	pr, err := env.Engine.CreateRequest(env.Ctx, env.Tenant, workflow.RequestCreateOptions{
		Title:         "ERP licenses",
		RequestType:   "services",
		EstimatedCost: 7_000_000,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	pconv, err := env.Engine.SubmitRequest(env.Ctx, env.Tenant, pr.ID)
	if err != nil {
		t.Fatalf("submit request: %v", err)
	}
	pdetail, err := env.Engine.GetEvaluationDetail(env.Ctx, env.Tenant, domain.DomainProcurement, pconv.Evaluation.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if pdetail.BudgetValidation == nil || pdetail.PartyReadiness != nil {
		t.Fatalf("expected procurement snapshot block, got %+v", pdetail)
	}
	if !pdetail.BudgetValidation.RequiresApproval || len(pdetail.BudgetValidation.ApproverRoles) != 1 {
		t.Fatalf("unexpected budget validation: %+v", pdetail.BudgetValidation)
	}
}
