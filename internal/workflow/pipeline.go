package workflow

import (
	"context"
	"fmt"

	"dealflow/internal/domain"
	"dealflow/internal/ids"
)

func commitPrefix(dom string) string {
	if dom == domain.DomainProcurement {
		return ids.ProcureCommit
	}
	return ids.RevenueCommit
}

func contractPrefix(dom string) string {
	if dom == domain.DomainProcurement {
		return ids.ProcureCon
	}
	return ids.RevenueCon
}

func handoffPrefix(dom string) string {
	if dom == domain.DomainProcurement {
		return ids.ProcureHO
	}
	return ids.RevenueHO
}

// SubmitResult is the outcome of submitting an evaluation.
type SubmitResult struct {
	Commit           domain.Commit
	RequiresApproval bool
}

// SubmitEvaluation closes the evaluation and opens a commit, stamping the
// approver roles the deal value requires. A commit with no required approvers
// is approved immediately; otherwise one pending workspace approval is created
// per role.
func (e Engine) SubmitEvaluation(ctx context.Context, t Tenant, dom, id string) (SubmitResult, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return SubmitResult{}, err
	}
	defer tx.Rollback()

	ev, err := e.Repo.GetEvaluationTx(ctx, tx, t.OrgID, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if ev.Domain != dom {
		return SubmitResult{}, reject("evaluation %s is not a %s evaluation", id, dom)
	}
	if ev.Status != "open" {
		return SubmitResult{}, reject("evaluation already submitted")
	}
	approvers := RequiredApprovers(e.tiers(dom), ev.DealValue)
	status := "approved"
	if len(approvers) > 0 {
		status = "pending_approval"
	}
	c := domain.Commit{
		ID:           ids.New(commitPrefix(dom)),
		OrgID:        t.OrgID,
		Domain:       dom,
		EvaluationID: ev.ID,
		PartyID:      ev.PartyID,
		DealValue:    ev.DealValue,
		Approvers:    approvers,
		Status:       status,
		CreatedAt:    e.nowStr(),
	}
	if c.Approvers == nil {
		c.Approvers = []domain.Approver{}
	}
	if err := e.Repo.InsertCommitTx(ctx, tx, c); err != nil {
		return SubmitResult{}, err
	}
	if err := e.Repo.SetEvaluationCommitTx(ctx, tx, t.OrgID, ev.ID, c.ID, "submitted"); err != nil {
		return SubmitResult{}, err
	}
	for _, a := range approvers {
		if _, err := e.Effects.ApprovalRequest(ctx, tx, t.OrgID,
			fmt.Sprintf("Approve commit %s", c.ID), a.Role, "commit", c.ID, ev.ID); err != nil {
			return SubmitResult{}, err
		}
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, dom, "submitted", "evaluation", ev.ID,
		fmt.Sprintf("Evaluation %s submitted, commit %s %s", ev.ID, c.ID, status), t.ActorID); err != nil {
		return SubmitResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Commit: c, RequiresApproval: status == "pending_approval"}, nil
}

// ApproveResult is the outcome of recording one approval.
type ApproveResult struct {
	Commit      domain.Commit
	AllApproved bool
}

// ApproveCommit records one role's approval. Unknown roles and repeat
// approvals are rejected outright. The commit flips to approved only when
// every stamped role has a recorded approval.
func (e Engine) ApproveCommit(ctx context.Context, t Tenant, dom, id, role string) (ApproveResult, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ApproveResult{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCommitTx(ctx, tx, t.OrgID, id)
	if err != nil {
		return ApproveResult{}, err
	}
	if c.Domain != dom {
		return ApproveResult{}, reject("commit %s is not a %s commit", id, dom)
	}
	if c.Status == "approved" {
		return ApproveResult{}, reject("commit already approved")
	}
	if !hasRole(c.Approvers, role) {
		return ApproveResult{}, reject("unknown approver role: %s", role)
	}
	inserted, err := e.Repo.InsertCommitApprovalTx(ctx, tx, domain.CommitApproval{
		CommitID:   c.ID,
		Role:       role,
		ApprovedBy: t.ActorID,
		ApprovedAt: e.nowStr(),
	})
	if err != nil {
		return ApproveResult{}, err
	}
	if !inserted {
		return ApproveResult{}, reject("role already approved: %s", role)
	}
	if err := e.Repo.SetApprovalDecisionTx(ctx, tx, t.OrgID, c.ID, role, "approved"); err != nil {
		return ApproveResult{}, err
	}
	recorded, err := e.Repo.ListCommitApprovalsTx(ctx, tx, c.ID)
	if err != nil {
		return ApproveResult{}, err
	}
	have := map[string]bool{}
	for _, a := range recorded {
		have[a.Role] = true
	}
	all := true
	for _, a := range c.Approvers {
		if !have[a.Role] {
			all = false
			break
		}
	}
	if all {
		if err := ensureTransition(commitTransitions, "commit status", c.Status, "approved"); err != nil {
			return ApproveResult{}, err
		}
		if err := e.Repo.SetCommitStatusTx(ctx, tx, t.OrgID, c.ID, "approved"); err != nil {
			return ApproveResult{}, err
		}
		c.Status = "approved"
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, dom, "approved", "commit", c.ID,
		fmt.Sprintf("Commit %s approved by %s", c.ID, role), t.ActorID); err != nil {
		return ApproveResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ApproveResult{}, err
	}
	return ApproveResult{Commit: c, AllApproved: all}, nil
}

// CreateContract issues the draft contract for a fully approved commit.
// One contract per commit.
func (e Engine) CreateContract(ctx context.Context, t Tenant, dom, commitID string) (domain.Contract, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Contract{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCommitTx(ctx, tx, t.OrgID, commitID)
	if err != nil {
		return domain.Contract{}, err
	}
	if c.Domain != dom {
		return domain.Contract{}, reject("commit %s is not a %s commit", commitID, dom)
	}
	if c.Status != "approved" {
		return domain.Contract{}, reject("commit not approved")
	}
	if c.ContractID != nil {
		return domain.Contract{}, reject("contract already exists for commit")
	}
	con := domain.Contract{
		ID:        ids.New(contractPrefix(dom)),
		OrgID:     t.OrgID,
		Domain:    dom,
		CommitID:  c.ID,
		PartyID:   c.PartyID,
		Value:     c.DealValue,
		Status:    "draft",
		CreatedAt: e.nowStr(),
	}
	if err := e.Repo.InsertContractTx(ctx, tx, con); err != nil {
		return domain.Contract{}, err
	}
	if err := e.Repo.SetCommitContractTx(ctx, tx, t.OrgID, c.ID, con.ID); err != nil {
		return domain.Contract{}, err
	}
	party, err := e.Repo.GetParty(ctx, t.OrgID, c.PartyID)
	if err != nil {
		return domain.Contract{}, err
	}
	if _, err := e.Effects.Task(ctx, tx, t.OrgID, "Review Contract: "+party.Name, "high", "contract", con.ID); err != nil {
		return domain.Contract{}, err
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, dom, "contract_created", "contract", con.ID,
		fmt.Sprintf("Contract %s created from commit %s", con.ID, c.ID), t.ActorID); err != nil {
		return domain.Contract{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Contract{}, err
	}
	return con, nil
}

func (e Engine) SignContract(ctx context.Context, t Tenant, dom, id string) (domain.Contract, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Contract{}, err
	}
	defer tx.Rollback()

	con, err := e.Repo.GetContractTx(ctx, tx, t.OrgID, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if con.Domain != dom {
		return domain.Contract{}, reject("contract %s is not a %s contract", id, dom)
	}
	if err := ensureTransition(contractTransitions, "contract status", con.Status, "signed"); err != nil {
		return domain.Contract{}, err
	}
	signedAt := e.nowStr()
	if err := e.Repo.SetContractSignedTx(ctx, tx, t.OrgID, con.ID, signedAt); err != nil {
		return domain.Contract{}, err
	}
	con.Status = "signed"
	con.SignedAt = &signedAt
	if err := e.Effects.Activity(ctx, tx, t.OrgID, dom, "signed", "contract", con.ID,
		fmt.Sprintf("Contract %s signed", con.ID), t.ActorID); err != nil {
		return domain.Contract{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Contract{}, err
	}
	return con, nil
}

// HandoffResult is the outcome of an operational handoff.
type HandoffResult struct {
	Handoff   domain.Handoff
	WorkOrder domain.WorkOrder
}

// CreateHandoff kicks off delivery for a signed contract: the handoff record,
// its work order, the delivery task, and (revenue only) an intelligence
// signal, all in one transaction so operations always sees what revenue wrote.
func (e Engine) CreateHandoff(ctx context.Context, t Tenant, dom, contractID string) (HandoffResult, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return HandoffResult{}, err
	}
	defer tx.Rollback()

	con, err := e.Repo.GetContractTx(ctx, tx, t.OrgID, contractID)
	if err != nil {
		return HandoffResult{}, err
	}
	if con.Domain != dom {
		return HandoffResult{}, reject("contract %s is not a %s contract", contractID, dom)
	}
	if con.Status != "signed" {
		return HandoffResult{}, reject("contract not signed")
	}
	if con.HandoffID != nil {
		return HandoffResult{}, reject("handoff already exists for contract")
	}
	party, err := e.Repo.GetParty(ctx, t.OrgID, con.PartyID)
	if err != nil {
		return HandoffResult{}, err
	}
	wo, err := e.Effects.WorkOrder(ctx, tx, t.OrgID, con.ID, dom, "Delivery: "+party.Name)
	if err != nil {
		return HandoffResult{}, err
	}
	h := domain.Handoff{
		ID:          ids.New(handoffPrefix(dom)),
		OrgID:       t.OrgID,
		Domain:      dom,
		ContractID:  con.ID,
		PartyID:     con.PartyID,
		WorkOrderID: wo.ID,
		CreatedAt:   e.nowStr(),
	}
	if err := e.Repo.InsertHandoffTx(ctx, tx, h); err != nil {
		return HandoffResult{}, err
	}
	if err := e.Repo.SetContractHandoffTx(ctx, tx, t.OrgID, con.ID, h.ID); err != nil {
		return HandoffResult{}, err
	}
	if _, err := e.Effects.Task(ctx, tx, t.OrgID, "Start Delivery: "+party.Name, "high", "handoff", h.ID); err != nil {
		return HandoffResult{}, err
	}
	if dom == domain.DomainRevenue {
		if err := e.Effects.Signal(ctx, tx, t.OrgID, "deal_won", con.ID,
			fmt.Sprintf("Contract %s with %s moved to delivery", con.ID, party.Name)); err != nil {
			return HandoffResult{}, err
		}
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, dom, "handoff", "handoff", h.ID,
		fmt.Sprintf("Handoff %s created for contract %s", h.ID, con.ID), t.ActorID); err != nil {
		return HandoffResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return HandoffResult{}, err
	}
	return HandoffResult{Handoff: h, WorkOrder: wo}, nil
}

// EvaluationDetail pairs an evaluation with the snapshot blocks its detail
// endpoint returns.
type EvaluationDetail struct {
	Evaluation       domain.Evaluation
	PartyReadiness   *ReadinessSnapshot
	RiskAssessment   *RiskAssessment
	BudgetValidation *BudgetValidation
}

// GetEvaluationDetail loads an evaluation with the readiness/risk snapshot
// (revenue) or budget validation (procurement) derived from its source entity.
func (e Engine) GetEvaluationDetail(ctx context.Context, t Tenant, dom, id string) (EvaluationDetail, error) {
	ev, err := e.Repo.GetEvaluation(ctx, t.OrgID, id)
	if err != nil {
		return EvaluationDetail{}, err
	}
	if ev.Domain != dom {
		return EvaluationDetail{}, reject("evaluation %s is not a %s evaluation", id, dom)
	}
	detail := EvaluationDetail{Evaluation: ev}
	switch dom {
	case domain.DomainRevenue:
		l, err := e.Repo.GetLead(ctx, t.OrgID, ev.SourceID)
		if err != nil {
			return detail, err
		}
		readiness := leadReadiness(l)
		risk := leadRisk(l, e.tiers(dom))
		detail.PartyReadiness = &readiness
		detail.RiskAssessment = &risk
	case domain.DomainProcurement:
		pr, err := e.Repo.GetRequest(ctx, t.OrgID, ev.SourceID)
		if err != nil {
			return detail, err
		}
		budget := requestBudget(pr, e.tiers(dom))
		detail.BudgetValidation = &budget
	}
	return detail, nil
}
