package repo

import (
	"context"
	"database/sql"
	"strings"

	"dealflow/internal/domain"
)

// Companion record queries. Writes happen only through the side-effect
// emitter, inside the transaction that mutates the pipeline entity.

func (r Repo) InsertWorkOrderTx(ctx context.Context, tx *sql.Tx, w domain.WorkOrder) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO work_orders(id,org_id,source_contract_id,source_type,title,status,created_at) VALUES (?,?,?,?,?,?,?)`,
		w.ID, w.OrgID, w.SourceContractID, w.SourceType, w.Title, w.Status, w.CreatedAt)
	return err
}

func (r Repo) GetWorkOrder(ctx context.Context, orgID, id string) (domain.WorkOrder, error) {
	var w domain.WorkOrder
	err := r.DB.QueryRowContext(ctx, `SELECT id,org_id,source_contract_id,source_type,title,status,created_at FROM work_orders WHERE org_id=? AND id=?`, orgID, id).
		Scan(&w.ID, &w.OrgID, &w.SourceContractID, &w.SourceType, &w.Title, &w.Status, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	return w, err
}

func (r Repo) ListWorkOrders(ctx context.Context, orgID, sourceType string) ([]domain.WorkOrder, error) {
	query := `SELECT id,org_id,source_contract_id,source_type,title,status,created_at FROM work_orders WHERE org_id=?`
	args := []any{orgID}
	if sourceType != "" {
		query += ` AND source_type=?`
		args = append(args, sourceType)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkOrder
	for rows.Next() {
		var w domain.WorkOrder
		if err := rows.Scan(&w.ID, &w.OrgID, &w.SourceContractID, &w.SourceType, &w.Title, &w.Status, &w.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, nil
}

func (r Repo) InsertWorkspaceTaskTx(ctx context.Context, tx *sql.Tx, t domain.WorkspaceTask) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO workspace_tasks(id,org_id,title,status,source,priority,context_type,context_id,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.OrgID, t.Title, t.Status, t.Source, t.Priority, t.ContextType, t.ContextID, t.CreatedAt)
	return err
}

type TaskFilters struct {
	Status      string
	ContextType string
	ContextID   string
	Limit       int
}

func (r Repo) ListWorkspaceTasks(ctx context.Context, orgID string, f TaskFilters) ([]domain.WorkspaceTask, error) {
	clauses := []string{"org_id=?"}
	args := []any{orgID}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.ContextType != "" {
		clauses = append(clauses, "context_type=?")
		args = append(args, f.ContextType)
	}
	if f.ContextID != "" {
		clauses = append(clauses, "context_id=?")
		args = append(args, f.ContextID)
	}
	query := `SELECT id,org_id,title,status,source,priority,context_type,context_id,created_at FROM workspace_tasks WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkspaceTask
	for rows.Next() {
		var t domain.WorkspaceTask
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Title, &t.Status, &t.Source, &t.Priority, &t.ContextType, &t.ContextID, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func (r Repo) InsertApprovalTx(ctx context.Context, tx *sql.Tx, a domain.Approval) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO approvals(id,org_id,title,role,decision,context_type,context_id,workflow_ref,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		a.ID, a.OrgID, a.Title, a.Role, a.Decision, a.ContextType, a.ContextID, a.WorkflowRef, a.CreatedAt)
	return err
}

func (r Repo) SetApprovalDecisionTx(ctx context.Context, tx *sql.Tx, orgID, contextID, role, decision string) error {
	_, err := tx.ExecContext(ctx, `UPDATE approvals SET decision=? WHERE org_id=? AND context_id=? AND role=?`,
		decision, orgID, contextID, role)
	return err
}

type ApprovalFilters struct {
	Decision  string
	Role      string
	ContextID string
	Limit     int
}

func (r Repo) ListApprovals(ctx context.Context, orgID string, f ApprovalFilters) ([]domain.Approval, error) {
	clauses := []string{"org_id=?"}
	args := []any{orgID}
	if f.Decision != "" {
		clauses = append(clauses, "decision=?")
		args = append(args, f.Decision)
	}
	if f.Role != "" {
		clauses = append(clauses, "role=?")
		args = append(args, f.Role)
	}
	if f.ContextID != "" {
		clauses = append(clauses, "context_id=?")
		args = append(args, f.ContextID)
	}
	query := `SELECT id,org_id,title,role,decision,context_type,context_id,workflow_ref,created_at FROM approvals WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Approval
	for rows.Next() {
		var a domain.Approval
		if err := rows.Scan(&a.ID, &a.OrgID, &a.Title, &a.Role, &a.Decision, &a.ContextType, &a.ContextID, &a.WorkflowRef, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

func (r Repo) InsertActivityTx(ctx context.Context, tx *sql.Tx, e domain.ActivityEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO activity_feed(id,org_id,module,action,entity_type,entity_id,description,actor_id,ts) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.OrgID, e.Module, e.Action, e.EntityType, e.EntityID, e.Description, e.ActorID, e.Timestamp)
	return err
}

type ActivityFilters struct {
	Module   string
	Action   string
	EntityID string
	Since    string
	Limit    int
	CursorTS string
	CursorID string
}

func (r Repo) ListActivity(ctx context.Context, orgID string, f ActivityFilters) ([]domain.ActivityEntry, error) {
	clauses := []string{"org_id=?"}
	args := []any{orgID}
	if f.Module != "" {
		clauses = append(clauses, "module=?")
		args = append(args, f.Module)
	}
	if f.Action != "" {
		clauses = append(clauses, "action=?")
		args = append(args, f.Action)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if f.Since != "" {
		clauses = append(clauses, "ts >= ?")
		args = append(args, f.Since)
	}
	if f.CursorTS != "" && f.CursorID != "" {
		clauses = append(clauses, "(ts < ? OR (ts = ? AND id < ?))")
		args = append(args, f.CursorTS, f.CursorTS, f.CursorID)
	}
	query := `SELECT id,org_id,module,action,entity_type,entity_id,description,actor_id,ts FROM activity_feed WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY ts DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Module, &e.Action, &e.EntityType, &e.EntityID, &e.Description, &e.ActorID, &e.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

// ActivityAfter returns entries newer than the cursor in ascending order.
// The webhook dispatcher polls with this.
func (r Repo) ActivityAfter(ctx context.Context, orgID, cursorTS, cursorID string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	clauses := []string{"org_id=?"}
	args := []any{orgID}
	if cursorTS != "" {
		clauses = append(clauses, "(ts > ? OR (ts = ? AND id > ?))")
		args = append(args, cursorTS, cursorTS, cursorID)
	}
	query := `SELECT id,org_id,module,action,entity_type,entity_id,description,actor_id,ts FROM activity_feed WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY ts ASC, id ASC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Module, &e.Action, &e.EntityType, &e.EntityID, &e.Description, &e.ActorID, &e.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

// LatestActivityCursor returns the newest entry's (ts, id), or empty strings
// when the feed is empty.
func (r Repo) LatestActivityCursor(ctx context.Context, orgID string) (string, string, error) {
	var ts, id string
	err := r.DB.QueryRowContext(ctx,
		`SELECT ts, id FROM activity_feed WHERE org_id=? ORDER BY ts DESC, id DESC LIMIT 1`, orgID).Scan(&ts, &id)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	return ts, id, nil
}

func (r Repo) InsertSignalTx(ctx context.Context, tx *sql.Tx, s domain.Signal) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO signals(id,org_id,kind,source,entity_id,description,created_at) VALUES (?,?,?,?,?,?,?)`,
		s.ID, s.OrgID, s.Kind, s.Source, s.EntityID, s.Description, s.CreatedAt)
	return err
}

func (r Repo) ListSignals(ctx context.Context, orgID, kind string, limit int) ([]domain.Signal, error) {
	query := `SELECT id,org_id,kind,source,entity_id,description,created_at FROM signals WHERE org_id=?`
	args := []any{orgID}
	if kind != "" {
		query += ` AND kind=?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Signal
	for rows.Next() {
		var s domain.Signal
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Kind, &s.Source, &s.EntityID, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}
