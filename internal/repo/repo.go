package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dealflow/internal/config"
	"dealflow/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertOrg(ctx context.Context, o domain.Org) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO orgs(id,name,status,created_at) VALUES (?,?,?,?)`,
		o.ID, o.Name, o.Status, o.CreatedAt)
	return err
}

func (r Repo) GetOrg(ctx context.Context, id string) (domain.Org, error) {
	var o domain.Org
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,status,created_at FROM orgs WHERE id=?`, id).
		Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	return o, err
}

func (r Repo) SingleOrg(ctx context.Context) (domain.Org, error) {
	orgs, err := r.ListOrgs(ctx)
	if err != nil {
		return domain.Org{}, err
	}
	if len(orgs) == 0 {
		return domain.Org{}, ErrNotFound
	}
	if len(orgs) > 1 {
		return domain.Org{}, fmt.Errorf("multiple orgs exist; specify --org")
	}
	return orgs[0], nil
}

func (r Repo) ListOrgs(ctx context.Context) ([]domain.Org, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,status,created_at FROM orgs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Org
	for rows.Next() {
		var o domain.Org
		if err := rows.Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, nil
}

func (r Repo) UpsertOrgConfig(ctx context.Context, orgID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Org.ID = orgID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.DB.ExecContext(ctx, `INSERT INTO org_configs(org_id,yaml,updated_at) VALUES (?,?,?)
ON CONFLICT(org_id) DO UPDATE SET yaml=excluded.yaml, updated_at=excluded.updated_at`, orgID, string(payload), now)
	return err
}

func (r Repo) GetOrgConfig(ctx context.Context, orgID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT yaml FROM org_configs WHERE org_id=?`, orgID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cfg, err := config.FromYAML([]byte(payload))
	if err != nil {
		return nil, err
	}
	if cfg.Org.ID == "" {
		cfg.Org.ID = orgID
	}
	return cfg, nil
}

const leadColumns = `id,org_id,company_name,website,country,industry,contact_name,contact_email,contact_phone,lead_source,estimated_deal_value,expected_timeline,problem_identified,budget_mentioned,authority_known,need_timeline,rating,stage,status,is_converted,evaluation_id,notes,created_at,updated_at`

func scanLead(scan func(dest ...any) error) (domain.Lead, error) {
	var l domain.Lead
	var evaluationID sql.NullString
	err := scan(&l.ID, &l.OrgID, &l.CompanyName, &l.Website, &l.Country, &l.Industry,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.LeadSource, &l.EstimatedDealValue,
		&l.ExpectedTimeline, &l.ProblemIdentified, &l.BudgetMentioned, &l.AuthorityKnown,
		&l.NeedTimeline, &l.Rating, &l.Stage, &l.Status, &l.IsConverted, &evaluationID,
		&l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	if evaluationID.Valid {
		l.EvaluationID = &evaluationID.String
	}
	return l, err
}

func (r Repo) InsertLeadTx(ctx context.Context, tx *sql.Tx, l domain.Lead) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO leads(`+leadColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.OrgID, l.CompanyName, l.Website, l.Country, l.Industry,
		l.ContactName, l.ContactEmail, l.ContactPhone, l.LeadSource, l.EstimatedDealValue,
		l.ExpectedTimeline, l.ProblemIdentified, l.BudgetMentioned, l.AuthorityKnown,
		l.NeedTimeline, l.Rating, l.Stage, l.Status, l.IsConverted, nullableStringPtr(l.EvaluationID),
		l.Notes, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r Repo) GetLead(ctx context.Context, orgID, id string) (domain.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE org_id=? AND id=?`, orgID, id)
	return scanLead(row.Scan)
}

func (r Repo) GetLeadTx(ctx context.Context, tx *sql.Tx, orgID, id string) (domain.Lead, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE org_id=? AND id=?`, orgID, id)
	return scanLead(row.Scan)
}

func (r Repo) UpdateLead(ctx context.Context, l domain.Lead) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET company_name=?, website=?, country=?, industry=?, contact_name=?, contact_email=?, contact_phone=?, lead_source=?, estimated_deal_value=?, expected_timeline=?, problem_identified=?, budget_mentioned=?, authority_known=?, need_timeline=?, rating=?, stage=?, status=?, is_converted=?, evaluation_id=?, notes=?, updated_at=? WHERE org_id=? AND id=?`,
		l.CompanyName, l.Website, l.Country, l.Industry, l.ContactName, l.ContactEmail, l.ContactPhone,
		l.LeadSource, l.EstimatedDealValue, l.ExpectedTimeline, l.ProblemIdentified, l.BudgetMentioned,
		l.AuthorityKnown, l.NeedTimeline, l.Rating, l.Stage, l.Status, l.IsConverted,
		nullableStringPtr(l.EvaluationID), l.Notes, l.UpdatedAt, l.OrgID, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateLeadTx(ctx context.Context, tx *sql.Tx, l domain.Lead) error {
	res, err := tx.ExecContext(ctx, `UPDATE leads SET stage=?, status=?, is_converted=?, evaluation_id=?, updated_at=? WHERE org_id=? AND id=?`,
		l.Stage, l.Status, l.IsConverted, nullableStringPtr(l.EvaluationID), l.UpdatedAt, l.OrgID, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type LeadFilters struct {
	Stage           string
	LeadSource      string
	Rating          string
	Status          string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListLeads(ctx context.Context, orgID string, f LeadFilters) ([]domain.Lead, error) {
	clauses := []string{"org_id=?"}
	args := []any{orgID}
	if f.Stage != "" {
		clauses = append(clauses, "stage=?")
		args = append(args, f.Stage)
	}
	if f.LeadSource != "" {
		clauses = append(clauses, "lead_source=?")
		args = append(args, f.LeadSource)
	}
	if f.Rating != "" {
		clauses = append(clauses, "rating=?")
		args = append(args, f.Rating)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + leadColumns + ` FROM leads ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, nil
}

const requestColumns = `id,org_id,title,description,request_type,priority,needed_by_date,requesting_department,cost_center,project_code,estimated_cost,is_recurring,status,evaluation_id,notes,created_at,updated_at`

func scanRequest(scan func(dest ...any) error) (domain.ProcureRequest, error) {
	var pr domain.ProcureRequest
	var evaluationID sql.NullString
	err := scan(&pr.ID, &pr.OrgID, &pr.Title, &pr.Description, &pr.RequestType, &pr.Priority,
		&pr.NeededByDate, &pr.RequestingDepartment, &pr.CostCenter, &pr.ProjectCode,
		&pr.EstimatedCost, &pr.IsRecurring, &pr.Status, &evaluationID, &pr.Notes,
		&pr.CreatedAt, &pr.UpdatedAt)
	if err == sql.ErrNoRows {
		return pr, ErrNotFound
	}
	if evaluationID.Valid {
		pr.EvaluationID = &evaluationID.String
	}
	return pr, err
}

func (r Repo) InsertRequestTx(ctx context.Context, tx *sql.Tx, pr domain.ProcureRequest) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO procure_requests(`+requestColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		pr.ID, pr.OrgID, pr.Title, pr.Description, pr.RequestType, pr.Priority,
		pr.NeededByDate, pr.RequestingDepartment, pr.CostCenter, pr.ProjectCode,
		pr.EstimatedCost, pr.IsRecurring, pr.Status, nullableStringPtr(pr.EvaluationID), pr.Notes,
		pr.CreatedAt, pr.UpdatedAt)
	return err
}

func (r Repo) GetRequest(ctx context.Context, orgID, id string) (domain.ProcureRequest, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM procure_requests WHERE org_id=? AND id=?`, orgID, id)
	return scanRequest(row.Scan)
}

func (r Repo) GetRequestTx(ctx context.Context, tx *sql.Tx, orgID, id string) (domain.ProcureRequest, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM procure_requests WHERE org_id=? AND id=?`, orgID, id)
	return scanRequest(row.Scan)
}

func (r Repo) UpdateRequest(ctx context.Context, pr domain.ProcureRequest) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE procure_requests SET title=?, description=?, request_type=?, priority=?, needed_by_date=?, requesting_department=?, cost_center=?, project_code=?, estimated_cost=?, is_recurring=?, status=?, evaluation_id=?, notes=?, updated_at=? WHERE org_id=? AND id=?`,
		pr.Title, pr.Description, pr.RequestType, pr.Priority, pr.NeededByDate,
		pr.RequestingDepartment, pr.CostCenter, pr.ProjectCode, pr.EstimatedCost, pr.IsRecurring,
		pr.Status, nullableStringPtr(pr.EvaluationID), pr.Notes, pr.UpdatedAt, pr.OrgID, pr.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateRequestTx(ctx context.Context, tx *sql.Tx, pr domain.ProcureRequest) error {
	res, err := tx.ExecContext(ctx, `UPDATE procure_requests SET status=?, evaluation_id=?, updated_at=? WHERE org_id=? AND id=?`,
		pr.Status, nullableStringPtr(pr.EvaluationID), pr.UpdatedAt, pr.OrgID, pr.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type RequestFilters struct {
	Status          string
	RequestType     string
	Priority        string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListRequests(ctx context.Context, orgID string, f RequestFilters) ([]domain.ProcureRequest, error) {
	clauses := []string{"org_id=?"}
	args := []any{orgID}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.RequestType != "" {
		clauses = append(clauses, "request_type=?")
		args = append(args, f.RequestType)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, f.Priority)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + requestColumns + ` FROM procure_requests ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ProcureRequest
	for rows.Next() {
		pr, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, pr)
	}
	return res, nil
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
