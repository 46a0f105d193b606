// Package effects writes the companion records that stage transitions fan out
// to: workspace tasks, approval requests, activity entries, intelligence
// signals and work orders. Every write takes the caller's transaction so the
// records land atomically with the entity mutation that caused them.
package effects

import (
	"context"
	"database/sql"
	"time"

	"dealflow/internal/domain"
	"dealflow/internal/ids"
	"dealflow/internal/repo"
)

// Source markers on companion records. Tasks carry "system" to tell
// workflow-created reminders apart from ones a user files directly; signals
// carry "workflow_engine" so analytics consumers can filter the pipeline's
// own emissions.
const (
	TaskSource   = "system"
	SignalSource = "workflow_engine"
)

type Emitter struct {
	Repo repo.Repo
	Now  func() time.Time
}

func (e Emitter) now() string {
	if e.Now == nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return e.Now().UTC().Format(time.RFC3339)
}

// Task creates an open workspace task pointing back at the entity that
// triggered it.
func (e Emitter) Task(ctx context.Context, tx *sql.Tx, orgID, title, priority, contextType, contextID string) (domain.WorkspaceTask, error) {
	t := domain.WorkspaceTask{
		ID:          ids.New(ids.WorkspaceTask),
		OrgID:       orgID,
		Title:       title,
		Status:      "open",
		Source:      TaskSource,
		Priority:    priority,
		ContextType: contextType,
		ContextID:   contextID,
		CreatedAt:   e.now(),
	}
	return t, e.Repo.InsertWorkspaceTaskTx(ctx, tx, t)
}

// ApprovalRequest creates a pending approval record for one required role.
func (e Emitter) ApprovalRequest(ctx context.Context, tx *sql.Tx, orgID, title, role, contextType, contextID, workflowRef string) (domain.Approval, error) {
	a := domain.Approval{
		ID:          ids.New(ids.Approval),
		OrgID:       orgID,
		Title:       title,
		Role:        role,
		Decision:    "pending",
		ContextType: contextType,
		ContextID:   contextID,
		WorkflowRef: workflowRef,
		CreatedAt:   e.now(),
	}
	return a, e.Repo.InsertApprovalTx(ctx, tx, a)
}

// Activity appends an entry to the org's activity feed.
func (e Emitter) Activity(ctx context.Context, tx *sql.Tx, orgID, module, action, entityType, entityID, description, actorID string) error {
	return e.Repo.InsertActivityTx(ctx, tx, domain.ActivityEntry{
		ID:          ids.New(ids.Activity),
		OrgID:       orgID,
		Module:      module,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		ActorID:     actorID,
		Timestamp:   e.now(),
	})
}

// Signal records an intelligence signal for downstream analytics.
func (e Emitter) Signal(ctx context.Context, tx *sql.Tx, orgID, kind, entityID, description string) error {
	return e.Repo.InsertSignalTx(ctx, tx, domain.Signal{
		ID:          ids.New(ids.Signal),
		OrgID:       orgID,
		Kind:        kind,
		Source:      SignalSource,
		EntityID:    entityID,
		Description: description,
		CreatedAt:   e.now(),
	})
}

// WorkOrder creates a pending work order from a signed contract.
func (e Emitter) WorkOrder(ctx context.Context, tx *sql.Tx, orgID, contractID, sourceType, title string) (domain.WorkOrder, error) {
	w := domain.WorkOrder{
		ID:               ids.New(ids.WorkOrder),
		OrgID:            orgID,
		SourceContractID: contractID,
		SourceType:       sourceType,
		Title:            title,
		Status:           "pending",
		CreatedAt:        e.now(),
	}
	return w, e.Repo.InsertWorkOrderTx(ctx, tx, w)
}
