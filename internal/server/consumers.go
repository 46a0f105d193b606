package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"dealflow/internal/repo"
	"dealflow/internal/workflow"
)

// Consumer endpoints. These read the companion tables the workflow engine
// writes; nothing here mutates state.

func registerWorkspace(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-workspace-tasks",
		Method:      http.MethodGet,
		Path:        "/workspace/tasks",
		Summary:     "List workspace tasks",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status      string `query:"status"`
		ContextType string `query:"context_type"`
		ContextID   string `query:"context_id"`
		Limit       int    `query:"limit" default:"50"`
	}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListWorkspaceTasks(ctx, t.OrgID, repo.TaskFilters{
			Status:      input.Status,
			ContextType: input.ContextType,
			ContextID:   input.ContextID,
			Limit:       normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskListResponse `json:"body"`
		}{Body: TaskListResponse{Success: true, Tasks: nonNilSlice(items), Count: len(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workspace-approvals",
		Method:      http.MethodGet,
		Path:        "/workspace/approvals",
		Summary:     "List workspace approvals",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Decision  string `query:"decision"`
		Role      string `query:"role"`
		ContextID string `query:"context_id"`
		Limit     int    `query:"limit" default:"50"`
	}) (*struct {
		Body ApprovalListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListApprovals(ctx, t.OrgID, repo.ApprovalFilters{
			Decision:  input.Decision,
			Role:      input.Role,
			ContextID: input.ContextID,
			Limit:     normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApprovalListResponse `json:"body"`
		}{Body: ApprovalListResponse{Success: true, Approvals: nonNilSlice(items), Count: len(items)}}, nil
	})
}

func registerActivity(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "activity-feed",
		Method:      http.MethodGet,
		Path:        "/activity/feed",
		Summary:     "Cross-module activity feed",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Module   string `query:"module"`
		Action   string `query:"action"`
		EntityID string `query:"entity_id"`
		Days     int    `query:"days"`
		Limit    int    `query:"limit" default:"50"`
		Cursor   string `query:"cursor"`
	}) (*struct {
		Body ActivityListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		limit := normalizeLimit(input.Limit)
		cursorTS, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		since := ""
		if input.Days > 0 {
			now := time.Now().UTC()
			if e.Now != nil {
				now = e.Now().UTC()
			}
			since = now.AddDate(0, 0, -input.Days).Format(time.RFC3339)
		}
		items, err := e.Repo.ListActivity(ctx, t.OrgID, repo.ActivityFilters{
			Module:   input.Module,
			Action:   input.Action,
			EntityID: input.EntityID,
			Since:    since,
			Limit:    limit + 1,
			CursorTS: cursorTS,
			CursorID: cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := ActivityListResponse{Success: true}
		if len(items) > limit {
			resp.NextCursor = composeCursor(items[limit].Timestamp, items[limit].ID)
			items = items[:limit]
		}
		resp.Activities = nonNilSlice(items)
		resp.Count = len(resp.Activities)
		return &struct {
			Body ActivityListResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerIntelligence(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-signals",
		Method:      http.MethodGet,
		Path:        "/intelligence/signals",
		Summary:     "List intelligence signals",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Kind  string `query:"kind"`
		Limit int    `query:"limit" default:"50"`
	}) (*struct {
		Body SignalListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListSignals(ctx, t.OrgID, input.Kind, normalizeLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SignalListResponse `json:"body"`
		}{Body: SignalListResponse{Success: true, Signals: nonNilSlice(items), Count: len(items)}}, nil
	})
}

func registerOperations(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "work-intake",
		Method:      http.MethodGet,
		Path:        "/operations/work-intake",
		Summary:     "List incoming work orders",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		SourceType string `query:"source_type"`
	}) (*struct {
		Body WorkOrderListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListWorkOrders(ctx, t.OrgID, input.SourceType)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkOrderListResponse `json:"body"`
		}{Body: WorkOrderListResponse{Success: true, WorkOrders: nonNilSlice(items), Count: len(items)}}, nil
	})
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}

func parseCompositeCursor(cursor string) (string, string, error) {
	if cursor == "" {
		return "", "", nil
	}
	parts := strings.SplitN(cursor, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid cursor")
	}
	return parts[0], parts[1], nil
}

func composeCursor(ts, id string) string {
	if ts == "" || id == "" {
		return ""
	}
	return ts + "|" + id
}
