package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"dealflow/internal/domain"
)

// Pipeline entity queries. Mutations run inside the caller's transaction so
// that an entity row and its companion records commit or roll back together.

func (r Repo) InsertPartyTx(ctx context.Context, tx *sql.Tx, p domain.Party) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO parties(id,org_id,name,normalized_name,country,kind,contact_name,contact_email,contact_phone,status,created_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OrgID, p.Name, p.NormalizedName, p.Country, p.Kind,
		p.ContactName, p.ContactEmail, p.ContactPhone, p.Status, p.CreatedAt)
	return err
}

const partyColumns = `id,org_id,name,normalized_name,country,kind,contact_name,contact_email,contact_phone,status,created_at`

func scanParty(scan func(dest ...any) error) (domain.Party, error) {
	var p domain.Party
	err := scan(&p.ID, &p.OrgID, &p.Name, &p.NormalizedName, &p.Country, &p.Kind,
		&p.ContactName, &p.ContactEmail, &p.ContactPhone, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) GetParty(ctx context.Context, orgID, id string) (domain.Party, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE org_id=? AND id=?`, orgID, id)
	return scanParty(row.Scan)
}

// FindPartyTx matches the canonical counterparty by normalized identity.
func (r Repo) FindPartyTx(ctx context.Context, tx *sql.Tx, orgID, kind, normalizedName, country string) (domain.Party, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE org_id=? AND kind=? AND normalized_name=? AND country=?`,
		orgID, kind, normalizedName, country)
	return scanParty(row.Scan)
}

func (r Repo) ListParties(ctx context.Context, orgID, kind string) ([]domain.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE org_id=?`
	args := []any{orgID}
	if kind != "" {
		query += ` AND kind=?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Party
	for rows.Next() {
		p, err := scanParty(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

func (r Repo) InsertEvaluationTx(ctx context.Context, tx *sql.Tx, e domain.Evaluation) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO evaluations(id,org_id,domain,source_id,party_id,deal_value,status,commit_id,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.OrgID, e.Domain, e.SourceID, e.PartyID, e.DealValue, e.Status,
		nullableStringPtr(e.CommitID), e.CreatedAt)
	return err
}

const evaluationColumns = `id,org_id,domain,source_id,party_id,deal_value,status,commit_id,created_at`

func scanEvaluation(scan func(dest ...any) error) (domain.Evaluation, error) {
	var e domain.Evaluation
	var commitID sql.NullString
	err := scan(&e.ID, &e.OrgID, &e.Domain, &e.SourceID, &e.PartyID, &e.DealValue,
		&e.Status, &commitID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if commitID.Valid {
		e.CommitID = &commitID.String
	}
	return e, err
}

func (r Repo) GetEvaluation(ctx context.Context, orgID, id string) (domain.Evaluation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE org_id=? AND id=?`, orgID, id)
	return scanEvaluation(row.Scan)
}

func (r Repo) GetEvaluationTx(ctx context.Context, tx *sql.Tx, orgID, id string) (domain.Evaluation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE org_id=? AND id=?`, orgID, id)
	return scanEvaluation(row.Scan)
}

func (r Repo) ListEvaluations(ctx context.Context, orgID, dom string) ([]domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE org_id=?`
	args := []any{orgID}
	if dom != "" {
		query += ` AND domain=?`
		args = append(args, dom)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

func (r Repo) SetEvaluationCommitTx(ctx context.Context, tx *sql.Tx, orgID, id, commitID, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE evaluations SET commit_id=?, status=? WHERE org_id=? AND id=?`,
		commitID, status, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertCommitTx(ctx context.Context, tx *sql.Tx, c domain.Commit) error {
	approvers, err := json.Marshal(c.Approvers)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO commits(id,org_id,domain,evaluation_id,party_id,deal_value,approvers,status,contract_id,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.OrgID, c.Domain, c.EvaluationID, c.PartyID, c.DealValue, string(approvers),
		c.Status, nullableStringPtr(c.ContractID), c.CreatedAt)
	return err
}

const commitColumns = `id,org_id,domain,evaluation_id,party_id,deal_value,approvers,status,contract_id,created_at`

func scanCommit(scan func(dest ...any) error) (domain.Commit, error) {
	var c domain.Commit
	var approvers string
	var contractID sql.NullString
	err := scan(&c.ID, &c.OrgID, &c.Domain, &c.EvaluationID, &c.PartyID, &c.DealValue,
		&approvers, &c.Status, &contractID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if contractID.Valid {
		c.ContractID = &contractID.String
	}
	c.Approvers = []domain.Approver{}
	return c, json.Unmarshal([]byte(approvers), &c.Approvers)
}

func (r Repo) GetCommit(ctx context.Context, orgID, id string) (domain.Commit, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+commitColumns+` FROM commits WHERE org_id=? AND id=?`, orgID, id)
	return scanCommit(row.Scan)
}

func (r Repo) GetCommitTx(ctx context.Context, tx *sql.Tx, orgID, id string) (domain.Commit, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+commitColumns+` FROM commits WHERE org_id=? AND id=?`, orgID, id)
	return scanCommit(row.Scan)
}

func (r Repo) ListCommits(ctx context.Context, orgID, dom string) ([]domain.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits WHERE org_id=?`
	args := []any{orgID}
	if dom != "" {
		query += ` AND domain=?`
		args = append(args, dom)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Commit
	for rows.Next() {
		c, err := scanCommit(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func (r Repo) SetCommitStatusTx(ctx context.Context, tx *sql.Tx, orgID, id, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE commits SET status=? WHERE org_id=? AND id=?`, status, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetCommitContractTx(ctx context.Context, tx *sql.Tx, orgID, id, contractID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE commits SET contract_id=? WHERE org_id=? AND id=?`, contractID, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertCommitApprovalTx(ctx context.Context, tx *sql.Tx, a domain.CommitApproval) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO commit_approvals(commit_id,role,approved_by,approved_at) VALUES (?,?,?,?)`,
		a.CommitID, a.Role, a.ApprovedBy, a.ApprovedAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r Repo) ListCommitApprovalsTx(ctx context.Context, tx *sql.Tx, commitID string) ([]domain.CommitApproval, error) {
	rows, err := tx.QueryContext(ctx, `SELECT commit_id,role,approved_by,approved_at FROM commit_approvals WHERE commit_id=? ORDER BY approved_at ASC`, commitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CommitApproval
	for rows.Next() {
		var a domain.CommitApproval
		if err := rows.Scan(&a.CommitID, &a.Role, &a.ApprovedBy, &a.ApprovedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

func (r Repo) ListCommitApprovals(ctx context.Context, commitID string) ([]domain.CommitApproval, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT commit_id,role,approved_by,approved_at FROM commit_approvals WHERE commit_id=? ORDER BY approved_at ASC`, commitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CommitApproval
	for rows.Next() {
		var a domain.CommitApproval
		if err := rows.Scan(&a.CommitID, &a.Role, &a.ApprovedBy, &a.ApprovedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

func (r Repo) InsertContractTx(ctx context.Context, tx *sql.Tx, c domain.Contract) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO contracts(id,org_id,domain,commit_id,party_id,value,status,signed_at,handoff_id,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.OrgID, c.Domain, c.CommitID, c.PartyID, c.Value, c.Status,
		nullableStringPtr(c.SignedAt), nullableStringPtr(c.HandoffID), c.CreatedAt)
	return err
}

const contractColumns = `id,org_id,domain,commit_id,party_id,value,status,signed_at,handoff_id,created_at`

func scanContract(scan func(dest ...any) error) (domain.Contract, error) {
	var c domain.Contract
	var signedAt, handoffID sql.NullString
	err := scan(&c.ID, &c.OrgID, &c.Domain, &c.CommitID, &c.PartyID, &c.Value,
		&c.Status, &signedAt, &handoffID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if signedAt.Valid {
		c.SignedAt = &signedAt.String
	}
	if handoffID.Valid {
		c.HandoffID = &handoffID.String
	}
	return c, err
}

func (r Repo) GetContract(ctx context.Context, orgID, id string) (domain.Contract, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE org_id=? AND id=?`, orgID, id)
	return scanContract(row.Scan)
}

func (r Repo) GetContractTx(ctx context.Context, tx *sql.Tx, orgID, id string) (domain.Contract, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE org_id=? AND id=?`, orgID, id)
	return scanContract(row.Scan)
}

func (r Repo) ListContracts(ctx context.Context, orgID, dom string) ([]domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE org_id=?`
	args := []any{orgID}
	if dom != "" {
		query += ` AND domain=?`
		args = append(args, dom)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Contract
	for rows.Next() {
		c, err := scanContract(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func (r Repo) SetContractSignedTx(ctx context.Context, tx *sql.Tx, orgID, id, signedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE contracts SET status='signed', signed_at=? WHERE org_id=? AND id=?`, signedAt, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetContractHandoffTx(ctx context.Context, tx *sql.Tx, orgID, id, handoffID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE contracts SET handoff_id=? WHERE org_id=? AND id=?`, handoffID, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertHandoffTx(ctx context.Context, tx *sql.Tx, h domain.Handoff) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO handoffs(id,org_id,domain,contract_id,party_id,work_order_id,created_at) VALUES (?,?,?,?,?,?,?)`,
		h.ID, h.OrgID, h.Domain, h.ContractID, h.PartyID, h.WorkOrderID, h.CreatedAt)
	return err
}

func (r Repo) GetHandoff(ctx context.Context, orgID, id string) (domain.Handoff, error) {
	var h domain.Handoff
	err := r.DB.QueryRowContext(ctx, `SELECT id,org_id,domain,contract_id,party_id,work_order_id,created_at FROM handoffs WHERE org_id=? AND id=?`, orgID, id).
		Scan(&h.ID, &h.OrgID, &h.Domain, &h.ContractID, &h.PartyID, &h.WorkOrderID, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	return h, err
}

func (r Repo) ListHandoffs(ctx context.Context, orgID, dom string) ([]domain.Handoff, error) {
	query := `SELECT id,org_id,domain,contract_id,party_id,work_order_id,created_at FROM handoffs WHERE org_id=?`
	args := []any{orgID}
	if dom != "" {
		query += ` AND domain=?`
		args = append(args, dom)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Handoff
	for rows.Next() {
		var h domain.Handoff
		if err := rows.Scan(&h.ID, &h.OrgID, &h.Domain, &h.ContractID, &h.PartyID, &h.WorkOrderID, &h.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, nil
}
