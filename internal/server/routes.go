package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"dealflow/internal/domain"
	"dealflow/internal/repo"
	"dealflow/internal/workflow"
)

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func pathSegment(dom string) string {
	if dom == domain.DomainProcurement {
		return "procure"
	}
	return "revenue"
}

// registerWorkflowDomain wires the five-stage pipeline for one domain. The
// lead endpoints only exist on the revenue side, the purchase-request
// endpoints only on the procurement side; evaluations onward are shared.
func registerWorkflowDomain(api huma.API, e workflow.Engine, dom string) {
	seg := pathSegment(dom)
	base := "/commerce/workflow/" + seg

	if dom == domain.DomainRevenue {
		registerLeads(api, e, base)
	} else {
		registerRequests(api, e, base)
	}
	registerEvaluations(api, e, dom, base)
	registerCommits(api, e, dom, base)
	registerContracts(api, e, dom, base)
	registerHandoffs(api, e, dom, base)
}

func registerLeads(api huma.API, e workflow.Engine, base string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-lead",
		Method:        http.MethodPost,
		Path:          base + "/leads",
		Summary:       "Create lead",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateLeadRequest `json:"body"`
	}) (*struct {
		Body LeadCreatedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		l, err := e.CreateLead(ctx, t, leadCreateOptions(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LeadCreatedResponse `json:"body"`
		}{Body: LeadCreatedResponse{Success: true, LeadID: l.ID, Lead: l}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-leads",
		Method:      http.MethodGet,
		Path:        base + "/leads",
		Summary:     "List leads",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Stage      string `query:"stage"`
		LeadSource string `query:"lead_source"`
		Rating     string `query:"rating"`
		Status     string `query:"lead_status"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body LeadListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		limit := normalizeLimit(input.Limit)
		cursorCreated, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		leads, err := e.Repo.ListLeads(ctx, t.OrgID, repo.LeadFilters{
			Stage:           input.Stage,
			LeadSource:      input.LeadSource,
			Rating:          input.Rating,
			Status:          input.Status,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreated,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := LeadListResponse{Success: true}
		if len(leads) > limit {
			resp.NextCursor = composeCursor(leads[limit].CreatedAt, leads[limit].ID)
			leads = leads[:limit]
		}
		resp.Leads = nonNilSlice(leads)
		resp.Count = len(resp.Leads)
		return &struct {
			Body LeadListResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lead",
		Method:      http.MethodGet,
		Path:        base + "/leads/{lead_id}",
		Summary:     "Get lead",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		LeadID string `path:"lead_id"`
	}) (*struct {
		Body LeadResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		l, err := e.Repo.GetLead(ctx, t.OrgID, input.LeadID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LeadResponse `json:"body"`
		}{Body: LeadResponse{Success: true, Lead: l}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-lead",
		Method:      http.MethodPut,
		Path:        base + "/leads/{lead_id}",
		Summary:     "Update lead",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		LeadID string            `path:"lead_id"`
		Body   UpdateLeadRequest `json:"body"`
	}) (*struct {
		Body LeadResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		l, err := e.UpdateLead(ctx, t, input.LeadID, leadUpdateOptions(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LeadResponse `json:"body"`
		}{Body: LeadResponse{Success: true, Lead: l}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-lead-stage",
		Method:      http.MethodPut,
		Path:        base + "/leads/{lead_id}/stage",
		Summary:     "Change lead stage",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		LeadID   string `path:"lead_id"`
		NewStage string `query:"new_stage" required:"true" enum:"new,contacted,qualified,converted"`
	}) (*struct {
		Body LeadResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		l, err := e.ChangeLeadStage(ctx, t, input.LeadID, input.NewStage)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LeadResponse `json:"body"`
		}{Body: LeadResponse{Success: true, Lead: l}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "convert-lead",
		Method:      http.MethodPost,
		Path:        base + "/leads/{lead_id}/convert-to-evaluate",
		Summary:     "Convert lead to evaluation",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		LeadID string `path:"lead_id"`
	}) (*struct {
		Body ConvertedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.ConvertLead(ctx, t, input.LeadID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ConvertedResponse `json:"body"`
		}{Body: ConvertedResponse{
			Success:      true,
			EvaluationID: res.Evaluation.ID,
			PartyID:      res.Party.ID,
			Evaluation:   res.Evaluation,
			Party:        res.Party,
		}}, nil
	})
}

func registerRequests(api huma.API, e workflow.Engine, base string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-request",
		Method:        http.MethodPost,
		Path:          base + "/requests",
		Summary:       "Create purchase request",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateRequestRequest `json:"body"`
	}) (*struct {
		Body RequestCreatedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		pr, err := e.CreateRequest(ctx, t, requestCreateOptions(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequestCreatedResponse `json:"body"`
		}{Body: RequestCreatedResponse{Success: true, RequestID: pr.ID, Request: pr}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-requests",
		Method:      http.MethodGet,
		Path:        base + "/requests",
		Summary:     "List purchase requests",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status      string `query:"status"`
		RequestType string `query:"request_type"`
		Priority    string `query:"priority"`
		Limit       int    `query:"limit" default:"50"`
		Cursor      string `query:"cursor"`
	}) (*struct {
		Body RequestListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		limit := normalizeLimit(input.Limit)
		cursorCreated, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		requests, err := e.Repo.ListRequests(ctx, t.OrgID, repo.RequestFilters{
			Status:          input.Status,
			RequestType:     input.RequestType,
			Priority:        input.Priority,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreated,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := RequestListResponse{Success: true}
		if len(requests) > limit {
			resp.NextCursor = composeCursor(requests[limit].CreatedAt, requests[limit].ID)
			requests = requests[:limit]
		}
		resp.Requests = nonNilSlice(requests)
		resp.Count = len(resp.Requests)
		return &struct {
			Body RequestListResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-request",
		Method:      http.MethodGet,
		Path:        base + "/requests/{request_id}",
		Summary:     "Get purchase request",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		RequestID string `path:"request_id"`
	}) (*struct {
		Body RequestResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		pr, err := e.Repo.GetRequest(ctx, t.OrgID, input.RequestID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequestResponse `json:"body"`
		}{Body: RequestResponse{Success: true, Request: pr}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-request",
		Method:      http.MethodPut,
		Path:        base + "/requests/{request_id}",
		Summary:     "Update purchase request",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		RequestID string               `path:"request_id"`
		Body      UpdateRequestRequest `json:"body"`
	}) (*struct {
		Body RequestResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		pr, err := e.UpdateRequest(ctx, t, input.RequestID, requestUpdateOptions(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequestResponse `json:"body"`
		}{Body: RequestResponse{Success: true, Request: pr}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-request",
		Method:      http.MethodPost,
		Path:        base + "/requests/{request_id}/submit",
		Summary:     "Submit purchase request for evaluation",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		RequestID string `path:"request_id"`
	}) (*struct {
		Body ConvertedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.SubmitRequest(ctx, t, input.RequestID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ConvertedResponse `json:"body"`
		}{Body: ConvertedResponse{
			Success:      true,
			EvaluationID: res.Evaluation.ID,
			PartyID:      res.Party.ID,
			Evaluation:   res.Evaluation,
			Party:        res.Party,
		}}, nil
	})
}

func registerEvaluations(api huma.API, e workflow.Engine, dom, base string) {
	seg := pathSegment(dom)

	huma.Register(api, huma.Operation{
		OperationID: "list-" + seg + "-evaluations",
		Method:      http.MethodGet,
		Path:        base + "/evaluations",
		Summary:     "List evaluations",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body EvaluationListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListEvaluations(ctx, t.OrgID, dom)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EvaluationListResponse `json:"body"`
		}{Body: EvaluationListResponse{Success: true, Evaluations: nonNilSlice(items), Count: len(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + seg + "-evaluation",
		Method:      http.MethodGet,
		Path:        base + "/evaluations/{evaluation_id}",
		Summary:     "Get evaluation with qualification snapshot",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		EvaluationID string `path:"evaluation_id"`
	}) (*struct {
		Body EvaluationDetailResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		detail, err := e.GetEvaluationDetail(ctx, t, dom, input.EvaluationID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EvaluationDetailResponse `json:"body"`
		}{Body: EvaluationDetailResponse{
			Success:          true,
			Evaluation:       detail.Evaluation,
			PartyReadiness:   detail.PartyReadiness,
			RiskAssessment:   detail.RiskAssessment,
			BudgetValidation: detail.BudgetValidation,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-" + seg + "-evaluation",
		Method:      http.MethodPost,
		Path:        base + "/evaluations/{evaluation_id}/submit",
		Summary:     "Submit evaluation for commit",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		EvaluationID string `path:"evaluation_id"`
	}) (*struct {
		Body CommitCreatedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.SubmitEvaluation(ctx, t, dom, input.EvaluationID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommitCreatedResponse `json:"body"`
		}{Body: CommitCreatedResponse{
			Success:          true,
			CommitID:         res.Commit.ID,
			RequiresApproval: res.RequiresApproval,
			Approvers:        nonNilSlice(res.Commit.Approvers),
			Commit:           res.Commit,
		}}, nil
	})
}

func registerCommits(api huma.API, e workflow.Engine, dom, base string) {
	seg := pathSegment(dom)

	huma.Register(api, huma.Operation{
		OperationID: "list-" + seg + "-commits",
		Method:      http.MethodGet,
		Path:        base + "/commits",
		Summary:     "List commits",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
	}) (*struct {
		Body CommitListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListCommits(ctx, t.OrgID, dom)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Status != "" {
			filtered := items[:0]
			for _, c := range items {
				if c.Status == input.Status {
					filtered = append(filtered, c)
				}
			}
			items = filtered
		}
		return &struct {
			Body CommitListResponse `json:"body"`
		}{Body: CommitListResponse{Success: true, Commits: nonNilSlice(items), Count: len(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + seg + "-commit",
		Method:      http.MethodGet,
		Path:        base + "/commits/{commit_id}",
		Summary:     "Get commit",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		CommitID string `path:"commit_id"`
	}) (*struct {
		Body CommitResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.Repo.GetCommit(ctx, t.OrgID, input.CommitID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommitResponse `json:"body"`
		}{Body: CommitResponse{Success: true, Commit: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-" + seg + "-commit",
		Method:      http.MethodPost,
		Path:        base + "/commits/{commit_id}/approve",
		Summary:     "Record one role's approval",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		CommitID     string `path:"commit_id"`
		ApproverRole string `query:"approver_role" required:"true"`
	}) (*struct {
		Body CommitApprovedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.ApproveCommit(ctx, t, dom, input.CommitID, input.ApproverRole)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommitApprovedResponse `json:"body"`
		}{Body: CommitApprovedResponse{Success: true, AllApproved: res.AllApproved, Commit: res.Commit}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-" + seg + "-contract",
		Method:        http.MethodPost,
		Path:          base + "/commits/{commit_id}/create-contract",
		Summary:       "Create contract from approved commit",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		CommitID string `path:"commit_id"`
	}) (*struct {
		Body ContractCreatedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		con, err := e.CreateContract(ctx, t, dom, input.CommitID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ContractCreatedResponse `json:"body"`
		}{Body: ContractCreatedResponse{Success: true, ContractID: con.ID, Contract: con}}, nil
	})
}

func registerContracts(api huma.API, e workflow.Engine, dom, base string) {
	seg := pathSegment(dom)

	huma.Register(api, huma.Operation{
		OperationID: "list-" + seg + "-contracts",
		Method:      http.MethodGet,
		Path:        base + "/contracts",
		Summary:     "List contracts",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
	}) (*struct {
		Body ContractListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListContracts(ctx, t.OrgID, dom)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Status != "" {
			filtered := items[:0]
			for _, c := range items {
				if c.Status == input.Status {
					filtered = append(filtered, c)
				}
			}
			items = filtered
		}
		return &struct {
			Body ContractListResponse `json:"body"`
		}{Body: ContractListResponse{Success: true, Contracts: nonNilSlice(items), Count: len(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + seg + "-contract",
		Method:      http.MethodGet,
		Path:        base + "/contracts/{contract_id}",
		Summary:     "Get contract",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ContractID string `path:"contract_id"`
	}) (*struct {
		Body ContractResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		con, err := e.Repo.GetContract(ctx, t.OrgID, input.ContractID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ContractResponse `json:"body"`
		}{Body: ContractResponse{Success: true, Contract: con}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sign-" + seg + "-contract",
		Method:      http.MethodPost,
		Path:        base + "/contracts/{contract_id}/sign",
		Summary:     "Sign contract",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ContractID string `path:"contract_id"`
	}) (*struct {
		Body ContractResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		con, err := e.SignContract(ctx, t, dom, input.ContractID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ContractResponse `json:"body"`
		}{Body: ContractResponse{Success: true, Contract: con}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "handoff-" + seg + "-contract",
		Method:        http.MethodPost,
		Path:          base + "/contracts/{contract_id}/handoff",
		Summary:       "Hand signed contract to operations",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		ContractID string `path:"contract_id"`
	}) (*struct {
		Body HandoffCreatedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.CreateHandoff(ctx, t, dom, input.ContractID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HandoffCreatedResponse `json:"body"`
		}{Body: HandoffCreatedResponse{
			Success:     true,
			HandoffID:   res.Handoff.ID,
			WorkOrderID: res.WorkOrder.ID,
			Handoff:     res.Handoff,
			WorkOrder:   res.WorkOrder,
		}}, nil
	})
}

func registerHandoffs(api huma.API, e workflow.Engine, dom, base string) {
	seg := pathSegment(dom)

	huma.Register(api, huma.Operation{
		OperationID: "list-" + seg + "-handoffs",
		Method:      http.MethodGet,
		Path:        base + "/handoffs",
		Summary:     "List handoffs",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HandoffListResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListHandoffs(ctx, t.OrgID, dom)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HandoffListResponse `json:"body"`
		}{Body: HandoffListResponse{Success: true, Handoffs: nonNilSlice(items), Count: len(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + seg + "-handoff",
		Method:      http.MethodGet,
		Path:        base + "/handoffs/{handoff_id}",
		Summary:     "Get handoff",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		HandoffID string `path:"handoff_id"`
	}) (*struct {
		Body HandoffResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		h, err := e.Repo.GetHandoff(ctx, t.OrgID, input.HandoffID)
		if err != nil {
			return nil, handleError(err)
		}
		if h.Domain != dom {
			return nil, newAPIError(http.StatusNotFound, "not_found", "handoff not found", nil)
		}
		return &struct {
			Body HandoffResponse `json:"body"`
		}{Body: HandoffResponse{Success: true, Handoff: h}}, nil
	})
}

func registerSeed(api huma.API, e workflow.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "seed-workflow-data",
		Method:        http.MethodPost,
		Path:          "/commerce/workflow/seed-workflow-data",
		Summary:       "Seed demo workflow data",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SeedResponse `json:"body"`
	}, error) {
		t, authErr := tenantFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		sum, err := e.Seed(ctx, t)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SeedResponse `json:"body"`
		}{Body: SeedResponse{Success: true, Leads: sum.Leads, Requests: sum.Requests}}, nil
	})
}
