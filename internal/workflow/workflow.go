// Package workflow advances commercial opportunities through the five-stage
// pipeline: intake (lead or purchase request), evaluation, commit with tiered
// approval, contract, and operational handoff. Every operation is scoped to an
// explicit tenant and commits its entity mutation together with the companion
// records it fans out.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealflow/internal/config"
	"dealflow/internal/domain"
	"dealflow/internal/effects"
	"dealflow/internal/ids"
	"dealflow/internal/repo"
)

// Tenant identifies the org and acting user for one operation. There is no
// ambient tenant state anywhere; callers thread this through explicitly.
type Tenant struct {
	OrgID   string
	ActorID string
}

type Engine struct {
	DB      *sql.DB
	Repo    repo.Repo
	Effects effects.Emitter
	Config  *config.Config
	Now     func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	r := repo.Repo{DB: db}
	return Engine{
		DB:      db,
		Repo:    r,
		Effects: effects.Emitter{Repo: r},
		Config:  cfg,
		Now:     time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowStr() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) tiers(dom string) []config.ApprovalTier {
	if e.Config == nil {
		return nil
	}
	return e.Config.TiersFor(dom)
}

// LeadCreateOptions are the caller-supplied lead fields.
type LeadCreateOptions struct {
	CompanyName        string
	Website            string
	Country            string
	Industry           string
	ContactName        string
	ContactEmail       string
	ContactPhone       string
	LeadSource         string
	EstimatedDealValue int64
	ExpectedTimeline   string
	ProblemIdentified  bool
	BudgetMentioned    string
	AuthorityKnown     bool
	NeedTimeline       bool
	Notes              string
}

func (e Engine) CreateLead(ctx context.Context, t Tenant, opts LeadCreateOptions) (domain.Lead, error) {
	if e.Config == nil {
		return domain.Lead{}, errors.New("config not loaded")
	}
	if opts.CompanyName == "" {
		return domain.Lead{}, reject("company_name is required")
	}
	if opts.ContactName == "" {
		return domain.Lead{}, reject("contact_name is required")
	}
	now := e.nowStr()
	l := domain.Lead{
		ID:                 ids.New(ids.Lead),
		OrgID:              t.OrgID,
		CompanyName:        opts.CompanyName,
		Website:            opts.Website,
		Country:            opts.Country,
		Industry:           opts.Industry,
		ContactName:        opts.ContactName,
		ContactEmail:       opts.ContactEmail,
		ContactPhone:       opts.ContactPhone,
		LeadSource:         opts.LeadSource,
		EstimatedDealValue: opts.EstimatedDealValue,
		ExpectedTimeline:   opts.ExpectedTimeline,
		ProblemIdentified:  opts.ProblemIdentified,
		BudgetMentioned:    opts.BudgetMentioned,
		AuthorityKnown:     opts.AuthorityKnown,
		NeedTimeline:       opts.NeedTimeline,
		Stage:              "new",
		Status:             "active",
		Notes:              opts.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	l.Rating = leadRating(l)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Lead{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertLeadTx(ctx, tx, l); err != nil {
		return domain.Lead{}, err
	}
	if _, err := e.Effects.Task(ctx, tx, t.OrgID, "Initial Contact: "+l.CompanyName, "medium", "lead", l.ID); err != nil {
		return domain.Lead{}, err
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, domain.DomainRevenue, "created", "lead", l.ID,
		fmt.Sprintf("Lead created for %s", l.CompanyName), t.ActorID); err != nil {
		return domain.Lead{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Lead{}, err
	}
	return l, nil
}

// LeadUpdateOptions carries the mutable lead fields. Nil means leave as-is.
type LeadUpdateOptions struct {
	CompanyName        *string
	Website            *string
	Country            *string
	Industry           *string
	ContactName        *string
	ContactEmail       *string
	ContactPhone       *string
	LeadSource         *string
	EstimatedDealValue *int64
	ExpectedTimeline   *string
	ProblemIdentified  *bool
	BudgetMentioned    *string
	AuthorityKnown     *bool
	NeedTimeline       *bool
	Notes              *string
}

func (e Engine) UpdateLead(ctx context.Context, t Tenant, id string, opts LeadUpdateOptions) (domain.Lead, error) {
	l, err := e.Repo.GetLead(ctx, t.OrgID, id)
	if err != nil {
		return l, err
	}
	if l.IsConverted {
		return l, reject("converted lead cannot be updated")
	}
	applyString(&l.CompanyName, opts.CompanyName)
	applyString(&l.Website, opts.Website)
	applyString(&l.Country, opts.Country)
	applyString(&l.Industry, opts.Industry)
	applyString(&l.ContactName, opts.ContactName)
	applyString(&l.ContactEmail, opts.ContactEmail)
	applyString(&l.ContactPhone, opts.ContactPhone)
	applyString(&l.LeadSource, opts.LeadSource)
	applyString(&l.ExpectedTimeline, opts.ExpectedTimeline)
	applyString(&l.BudgetMentioned, opts.BudgetMentioned)
	applyString(&l.Notes, opts.Notes)
	if opts.EstimatedDealValue != nil {
		l.EstimatedDealValue = *opts.EstimatedDealValue
	}
	applyBool(&l.ProblemIdentified, opts.ProblemIdentified)
	applyBool(&l.AuthorityKnown, opts.AuthorityKnown)
	applyBool(&l.NeedTimeline, opts.NeedTimeline)
	l.Rating = leadRating(l)
	l.UpdatedAt = e.nowStr()
	if err := e.Repo.UpdateLead(ctx, l); err != nil {
		return l, err
	}
	return l, nil
}

func (e Engine) ChangeLeadStage(ctx context.Context, t Tenant, id, newStage string) (domain.Lead, error) {
	l, err := e.Repo.GetLead(ctx, t.OrgID, id)
	if err != nil {
		return l, err
	}
	if newStage == "converted" {
		return l, reject("use convert-to-evaluate to convert a lead")
	}
	if err := ensureTransition(leadTransitions, "lead stage", l.Stage, newStage); err != nil {
		return l, err
	}
	from := l.Stage
	l.Stage = newStage
	l.UpdatedAt = e.nowStr()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return l, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateLeadTx(ctx, tx, l); err != nil {
		return l, err
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, domain.DomainRevenue, "stage_changed", "lead", l.ID,
		fmt.Sprintf("Lead %s moved %s -> %s", l.CompanyName, from, newStage), t.ActorID); err != nil {
		return l, err
	}
	if err := tx.Commit(); err != nil {
		return l, err
	}
	return l, nil
}

// ConvertResult is the outcome of a lead or request conversion.
type ConvertResult struct {
	Evaluation domain.Evaluation
	Party      domain.Party
}

// ConvertLead resolves the counterparty and opens an evaluation. Only a
// qualified, unconverted lead may convert; the check re-runs inside the
// transaction so concurrent conversions cannot both pass.
func (e Engine) ConvertLead(ctx context.Context, t Tenant, id string) (ConvertResult, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ConvertResult{}, err
	}
	defer tx.Rollback()

	l, err := e.Repo.GetLeadTx(ctx, tx, t.OrgID, id)
	if err != nil {
		return ConvertResult{}, err
	}
	if l.IsConverted {
		return ConvertResult{}, reject("lead already converted")
	}
	if l.Stage != "qualified" {
		return ConvertResult{}, reject("lead must be qualified before conversion, current stage: %s", l.Stage)
	}
	party, err := e.resolveOrCreateParty(ctx, tx, t, partyIdentity{
		Name:         l.CompanyName,
		Country:      l.Country,
		Kind:         "customer",
		ContactName:  l.ContactName,
		ContactEmail: l.ContactEmail,
		ContactPhone: l.ContactPhone,
	})
	if err != nil {
		return ConvertResult{}, err
	}
	ev := domain.Evaluation{
		ID:        ids.New(ids.RevenueEval),
		OrgID:     t.OrgID,
		Domain:    domain.DomainRevenue,
		SourceID:  l.ID,
		PartyID:   party.ID,
		DealValue: l.EstimatedDealValue,
		Status:    "open",
		CreatedAt: e.nowStr(),
	}
	if err := e.Repo.InsertEvaluationTx(ctx, tx, ev); err != nil {
		return ConvertResult{}, err
	}
	l.Stage = "converted"
	l.IsConverted = true
	l.EvaluationID = &ev.ID
	l.UpdatedAt = e.nowStr()
	if err := e.Repo.UpdateLeadTx(ctx, tx, l); err != nil {
		return ConvertResult{}, err
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, domain.DomainRevenue, "converted", "lead", l.ID,
		fmt.Sprintf("Lead %s converted to evaluation %s", l.CompanyName, ev.ID), t.ActorID); err != nil {
		return ConvertResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ConvertResult{}, err
	}
	return ConvertResult{Evaluation: ev, Party: party}, nil
}

// RequestCreateOptions are the caller-supplied purchase request fields.
type RequestCreateOptions struct {
	Title                string
	Description          string
	RequestType          string
	Priority             string
	NeededByDate         string
	RequestingDepartment string
	CostCenter           string
	ProjectCode          string
	EstimatedCost        int64
	IsRecurring          bool
	Notes                string
}

func (e Engine) CreateRequest(ctx context.Context, t Tenant, opts RequestCreateOptions) (domain.ProcureRequest, error) {
	if e.Config == nil {
		return domain.ProcureRequest{}, errors.New("config not loaded")
	}
	if opts.Title == "" {
		return domain.ProcureRequest{}, reject("title is required")
	}
	now := e.nowStr()
	pr := domain.ProcureRequest{
		ID:                   ids.New(ids.ProcureReq),
		OrgID:                t.OrgID,
		Title:                opts.Title,
		Description:          opts.Description,
		RequestType:          opts.RequestType,
		Priority:             opts.Priority,
		NeededByDate:         opts.NeededByDate,
		RequestingDepartment: opts.RequestingDepartment,
		CostCenter:           opts.CostCenter,
		ProjectCode:          opts.ProjectCode,
		EstimatedCost:        opts.EstimatedCost,
		IsRecurring:          opts.IsRecurring,
		Status:               "draft",
		Notes:                opts.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return pr, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertRequestTx(ctx, tx, pr); err != nil {
		return pr, err
	}
	if _, err := e.Effects.Task(ctx, tx, t.OrgID, "Initial Contact: "+pr.Title, pr.Priority, "procure_request", pr.ID); err != nil {
		return pr, err
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, domain.DomainProcurement, "created", "procure_request", pr.ID,
		fmt.Sprintf("Purchase request %s created", pr.Title), t.ActorID); err != nil {
		return pr, err
	}
	if err := tx.Commit(); err != nil {
		return pr, err
	}
	return pr, nil
}

// RequestUpdateOptions carries the mutable request fields. Updates are allowed
// only while the request is still a draft.
type RequestUpdateOptions struct {
	Title                *string
	Description          *string
	RequestType          *string
	Priority             *string
	NeededByDate         *string
	RequestingDepartment *string
	CostCenter           *string
	ProjectCode          *string
	EstimatedCost        *int64
	IsRecurring          *bool
	Notes                *string
}

func (e Engine) UpdateRequest(ctx context.Context, t Tenant, id string, opts RequestUpdateOptions) (domain.ProcureRequest, error) {
	pr, err := e.Repo.GetRequest(ctx, t.OrgID, id)
	if err != nil {
		return pr, err
	}
	if pr.Status != "draft" {
		return pr, reject("non-draft update not allowed")
	}
	applyString(&pr.Title, opts.Title)
	applyString(&pr.Description, opts.Description)
	applyString(&pr.RequestType, opts.RequestType)
	applyString(&pr.Priority, opts.Priority)
	applyString(&pr.NeededByDate, opts.NeededByDate)
	applyString(&pr.RequestingDepartment, opts.RequestingDepartment)
	applyString(&pr.CostCenter, opts.CostCenter)
	applyString(&pr.ProjectCode, opts.ProjectCode)
	applyString(&pr.Notes, opts.Notes)
	if opts.EstimatedCost != nil {
		pr.EstimatedCost = *opts.EstimatedCost
	}
	applyBool(&pr.IsRecurring, opts.IsRecurring)
	pr.UpdatedAt = e.nowStr()
	if err := e.Repo.UpdateRequest(ctx, pr); err != nil {
		return pr, err
	}
	return pr, nil
}

// SubmitRequest moves a draft to submitted and opens its evaluation against
// the requesting counterparty.
func (e Engine) SubmitRequest(ctx context.Context, t Tenant, id string) (ConvertResult, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ConvertResult{}, err
	}
	defer tx.Rollback()

	pr, err := e.Repo.GetRequestTx(ctx, tx, t.OrgID, id)
	if err != nil {
		return ConvertResult{}, err
	}
	if err := ensureTransition(requestTransitions, "request status", pr.Status, "submitted"); err != nil {
		return ConvertResult{}, err
	}
	party, err := e.resolveOrCreateParty(ctx, tx, t, partyIdentity{
		Name:    pr.Title,
		Country: "",
		Kind:    "vendor",
	})
	if err != nil {
		return ConvertResult{}, err
	}
	ev := domain.Evaluation{
		ID:        ids.New(ids.ProcureEval),
		OrgID:     t.OrgID,
		Domain:    domain.DomainProcurement,
		SourceID:  pr.ID,
		PartyID:   party.ID,
		DealValue: pr.EstimatedCost,
		Status:    "open",
		CreatedAt: e.nowStr(),
	}
	if err := e.Repo.InsertEvaluationTx(ctx, tx, ev); err != nil {
		return ConvertResult{}, err
	}
	pr.Status = "submitted"
	pr.EvaluationID = &ev.ID
	pr.UpdatedAt = e.nowStr()
	if err := e.Repo.UpdateRequestTx(ctx, tx, pr); err != nil {
		return ConvertResult{}, err
	}
	if err := e.Effects.Activity(ctx, tx, t.OrgID, domain.DomainProcurement, "submitted", "procure_request", pr.ID,
		fmt.Sprintf("Purchase request %s submitted for evaluation %s", pr.Title, ev.ID), t.ActorID); err != nil {
		return ConvertResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ConvertResult{}, err
	}
	return ConvertResult{Evaluation: ev, Party: party}, nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
