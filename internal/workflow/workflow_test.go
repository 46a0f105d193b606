package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealflow/internal/config"
	"dealflow/internal/db"
	"dealflow/internal/domain"
	"dealflow/internal/migrate"
	"dealflow/internal/repo"
	"dealflow/internal/workflow"
)

type testEnv struct {
	Engine workflow.Engine
	Tenant workflow.Tenant
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("acme")
	eng := workflow.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	seedOrg(t, ctx, eng, "acme", cfg)
	return testEnv{
		Engine: eng,
		Tenant: workflow.Tenant{OrgID: "acme", ActorID: "tester"},
		Ctx:    ctx,
	}
}

func seedOrg(t *testing.T, ctx context.Context, eng workflow.Engine, orgID string, cfg *config.Config) {
	t.Helper()
	err := eng.Repo.InsertOrg(ctx, domain.Org{
		ID:        orgID,
		Name:      orgID,
		Status:    "active",
		CreatedAt: eng.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("insert org: %v", err)
	}
	if err := eng.Repo.UpsertOrgConfig(ctx, orgID, cfg); err != nil {
		t.Fatalf("seed config: %v", err)
	}
}

func mustCreateLead(t *testing.T, env testEnv, opts workflow.LeadCreateOptions) domain.Lead {
	t.Helper()
	l, err := env.Engine.CreateLead(env.Ctx, env.Tenant, opts)
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return l
}

func qualifiedLead(t *testing.T, env testEnv, opts workflow.LeadCreateOptions) domain.Lead {
	t.Helper()
	l := mustCreateLead(t, env, opts)
	for _, stage := range []string{"contacted", "qualified"} {
		var err error
		l, err = env.Engine.ChangeLeadStage(env.Ctx, env.Tenant, l.ID, stage)
		if err != nil {
			t.Fatalf("to %s: %v", stage, err)
		}
	}
	return l
}

func isRejection(err error) bool {
	var re workflow.RejectionError
	return errors.As(err, &re)
}

func TestCreateLeadSideEffects(t *testing.T) {
	env := newTestEnv(t)
	l := mustCreateLead(t, env, workflow.LeadCreateOptions{
		CompanyName: "Acme Pvt Ltd",
		ContactName: "Asha",
		LeadSource:  "referral",
	})
	if l.Stage != "new" || l.Status != "active" {
		t.Fatalf("unexpected initial state: %s/%s", l.Stage, l.Status)
	}
	tasks, err := env.Engine.Repo.ListWorkspaceTasks(env.Ctx, "acme", repo.TaskFilters{ContextID: l.ID})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Initial Contact: Acme Pvt Ltd" {
		t.Fatalf("expected initial contact task, got %+v", tasks)
	}
	if tasks[0].Status != "open" || tasks[0].Priority != "medium" || tasks[0].ContextType != "lead" {
		t.Fatalf("unexpected task fields: %+v", tasks[0])
	}
	entries, err := env.Engine.Repo.ListActivity(env.Ctx, "acme", repo.ActivityFilters{EntityID: l.ID})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "created" || entries[0].Module != domain.DomainRevenue {
		t.Fatalf("expected created activity, got %+v", entries)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateLead(env.Ctx, env.Tenant, workflow.LeadCreateOptions{ContactName: "Asha"})
	if !isRejection(err) {
		t.Fatalf("expected rejection for missing company, got %v", err)
	}
	_, err = env.Engine.CreateLead(env.Ctx, env.Tenant, workflow.LeadCreateOptions{CompanyName: "Acme"})
	if !isRejection(err) {
		t.Fatalf("expected rejection for missing contact, got %v", err)
	}
}

func TestLeadRatingBuckets(t *testing.T) {
	env := newTestEnv(t)
	hot := mustCreateLead(t, env, workflow.LeadCreateOptions{
		CompanyName:       "Hot Co",
		ContactName:       "A",
		ProblemIdentified: true,
		BudgetMentioned:   "50L",
		AuthorityKnown:    true,
		NeedTimeline:      true,
	})
	if hot.Rating != "hot" {
		t.Fatalf("expected hot, got %s", hot.Rating)
	}
	warm := mustCreateLead(t, env, workflow.LeadCreateOptions{
		CompanyName:       "Warm Co",
		ContactName:       "B",
		ProblemIdentified: true,
		BudgetMentioned:   "10L",
	})
	if warm.Rating != "warm" {
		t.Fatalf("expected warm, got %s", warm.Rating)
	}
	cold := mustCreateLead(t, env, workflow.LeadCreateOptions{
		CompanyName:    "Cold Co",
		ContactName:    "C",
		AuthorityKnown: true,
	})
	if cold.Rating != "cold" {
		t.Fatalf("expected cold, got %s", cold.Rating)
	}
}

func TestLeadRatingRecomputedOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	l := mustCreateLead(t, env, workflow.LeadCreateOptions{CompanyName: "Acme", ContactName: "A"})
	if l.Rating != "cold" {
		t.Fatalf("expected cold, got %s", l.Rating)
	}
	yes := true
	budget := "approved internally"
	l, err := env.Engine.UpdateLead(env.Ctx, env.Tenant, l.ID, workflow.LeadUpdateOptions{
		ProblemIdentified: &yes,
		BudgetMentioned:   &budget,
		AuthorityKnown:    &yes,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if l.Rating != "hot" {
		t.Fatalf("expected hot after qualification, got %s", l.Rating)
	}
}

func TestLeadStageTransitions(t *testing.T) {
	env := newTestEnv(t)
	l := mustCreateLead(t, env, workflow.LeadCreateOptions{CompanyName: "Acme", ContactName: "A"})

	// skipping a stage is rejected
	if _, err := env.Engine.ChangeLeadStage(env.Ctx, env.Tenant, l.ID, "qualified"); !isRejection(err) {
		t.Fatalf("expected rejection for new -> qualified, got %v", err)
	}
	l, err := env.Engine.ChangeLeadStage(env.Ctx, env.Tenant, l.ID, "contacted")
	if err != nil || l.Stage != "contacted" {
		t.Fatalf("to contacted: %v", err)
	}
	// regression is rejected
	if _, err := env.Engine.ChangeLeadStage(env.Ctx, env.Tenant, l.ID, "new"); !isRejection(err) {
		t.Fatalf("expected rejection for regression, got %v", err)
	}
	// converted is reserved for the conversion operation
	l, err = env.Engine.ChangeLeadStage(env.Ctx, env.Tenant, l.ID, "qualified")
	if err != nil || l.Stage != "qualified" {
		t.Fatalf("to qualified: %v", err)
	}
	if _, err := env.Engine.ChangeLeadStage(env.Ctx, env.Tenant, l.ID, "converted"); !isRejection(err) {
		t.Fatalf("expected rejection for direct converted, got %v", err)
	}
	entries, err := env.Engine.Repo.ListActivity(env.Ctx, "acme", repo.ActivityFilters{Action: "stage_changed", EntityID: l.ID})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 stage_changed entries, got %d", len(entries))
	}
}

func TestConvertLeadRequiresQualified(t *testing.T) {
	env := newTestEnv(t)
	l := mustCreateLead(t, env, workflow.LeadCreateOptions{CompanyName: "Acme", ContactName: "A"})
	_, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, l.ID)
	if !isRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if err.Error() != "lead must be qualified before conversion, current stage: new" {
		t.Fatalf("unexpected reason: %v", err)
	}
}

func TestConvertLead(t *testing.T) {
	env := newTestEnv(t)
	l := qualifiedLead(t, env, workflow.LeadCreateOptions{
		CompanyName:        "Acme Pvt Ltd",
		Country:            "IN",
		ContactName:        "Asha",
		ContactEmail:       "asha@acme.example",
		EstimatedDealValue: 1_000_000,
	})
	res, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, l.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Party.Kind != "customer" || res.Party.Status != "unverified" {
		t.Fatalf("unexpected party: %+v", res.Party)
	}
	if res.Evaluation.Domain != domain.DomainRevenue || res.Evaluation.Status != "open" {
		t.Fatalf("unexpected evaluation: %+v", res.Evaluation)
	}
	if res.Evaluation.SourceID != l.ID || res.Evaluation.DealValue != 1_000_000 {
		t.Fatalf("evaluation not linked to lead: %+v", res.Evaluation)
	}
	l, err = env.Engine.Repo.GetLead(env.Ctx, "acme", l.ID)
	if err != nil {
		t.Fatalf("reload lead: %v", err)
	}
	if l.Stage != "converted" || !l.IsConverted || l.EvaluationID == nil || *l.EvaluationID != res.Evaluation.ID {
		t.Fatalf("lead not marked converted: %+v", l)
	}
	// second conversion is rejected
	if _, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, l.ID); !isRejection(err) {
		t.Fatalf("expected rejection for double convert, got %v", err)
	}
	// converted lead is frozen
	name := "Acme Renamed"
	if _, err := env.Engine.UpdateLead(env.Ctx, env.Tenant, l.ID, workflow.LeadUpdateOptions{CompanyName: &name}); !isRejection(err) {
		t.Fatalf("expected rejection for update after convert, got %v", err)
	}
}

func TestPartyDedupAcrossConversions(t *testing.T) {
	env := newTestEnv(t)
	first := qualifiedLead(t, env, workflow.LeadCreateOptions{CompanyName: "Acme Pvt Ltd", Country: "IN", ContactName: "A"})
	second := qualifiedLead(t, env, workflow.LeadCreateOptions{CompanyName: "ACME Private Limited", Country: "IN", ContactName: "B"})

	r1, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, first.ID)
	if err != nil {
		t.Fatalf("convert first: %v", err)
	}
	r2, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, second.ID)
	if err != nil {
		t.Fatalf("convert second: %v", err)
	}
	if r1.Party.ID != r2.Party.ID {
		t.Fatalf("expected one canonical party, got %s and %s", r1.Party.ID, r2.Party.ID)
	}
	// different country means a different party
	third := qualifiedLead(t, env, workflow.LeadCreateOptions{CompanyName: "Acme Pvt Ltd", Country: "DE", ContactName: "C"})
	r3, err := env.Engine.ConvertLead(env.Ctx, env.Tenant, third.ID)
	if err != nil {
		t.Fatalf("convert third: %v", err)
	}
	if r3.Party.ID == r1.Party.ID {
		t.Fatalf("expected distinct party per country")
	}
}

func TestRequestDraftLifecycle(t *testing.T) {
	env := newTestEnv(t)
	pr, err := env.Engine.CreateRequest(env.Ctx, env.Tenant, workflow.RequestCreateOptions{
		Title:         "Laptops for data team",
		RequestType:   "goods",
		Priority:      "high",
		EstimatedCost: 800_000,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if pr.Status != "draft" {
		t.Fatalf("expected draft, got %s", pr.Status)
	}
	cost := int64(900_000)
	pr, err = env.Engine.UpdateRequest(env.Ctx, env.Tenant, pr.ID, workflow.RequestUpdateOptions{EstimatedCost: &cost})
	if err != nil || pr.EstimatedCost != 900_000 {
		t.Fatalf("draft update: %v", err)
	}
	res, err := env.Engine.SubmitRequest(env.Ctx, env.Tenant, pr.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Party.Kind != "vendor" {
		t.Fatalf("expected vendor party, got %+v", res.Party)
	}
	if res.Evaluation.Domain != domain.DomainProcurement || res.Evaluation.DealValue != 900_000 {
		t.Fatalf("unexpected evaluation: %+v", res.Evaluation)
	}
	// submitted requests are frozen and cannot re-submit
	title := "changed"
	if _, err := env.Engine.UpdateRequest(env.Ctx, env.Tenant, pr.ID, workflow.RequestUpdateOptions{Title: &title}); !isRejection(err) {
		t.Fatalf("expected rejection for post-submit update, got %v", err)
	}
	if _, err := env.Engine.SubmitRequest(env.Ctx, env.Tenant, pr.ID); !isRejection(err) {
		t.Fatalf("expected rejection for double submit, got %v", err)
	}
}

func TestNotFoundScopedToTenant(t *testing.T) {
	env := newTestEnv(t)
	otherCfg := config.Default("other")
	seedOrg(t, env.Ctx, env.Engine, "other", otherCfg)
	l := mustCreateLead(t, env, workflow.LeadCreateOptions{CompanyName: "Acme", ContactName: "A"})

	other := workflow.Tenant{OrgID: "other", ActorID: "intruder"}
	if _, err := env.Engine.Repo.GetLead(env.Ctx, other.OrgID, l.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found across orgs, got %v", err)
	}
	if _, err := env.Engine.ChangeLeadStage(env.Ctx, other, l.ID, "contacted"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for cross-org mutation, got %v", err)
	}
	tasks, err := env.Engine.Repo.ListWorkspaceTasks(env.Ctx, "other", repo.TaskFilters{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty workspace for other org, got %d", len(tasks))
	}
}
