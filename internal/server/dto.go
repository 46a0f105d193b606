package server

import (
	"dealflow/internal/domain"
	"dealflow/internal/workflow"
)

// Request payloads

type CreateLeadRequest struct {
	CompanyName        string `json:"company_name"`
	Website            string `json:"website,omitempty"`
	Country            string `json:"country,omitempty"`
	Industry           string `json:"industry,omitempty"`
	ContactName        string `json:"contact_name"`
	ContactEmail       string `json:"contact_email,omitempty"`
	ContactPhone       string `json:"contact_phone,omitempty"`
	LeadSource         string `json:"lead_source,omitempty"`
	EstimatedDealValue int64  `json:"estimated_deal_value,omitempty"`
	ExpectedTimeline   string `json:"expected_timeline,omitempty"`
	ProblemIdentified  bool   `json:"problem_identified,omitempty"`
	BudgetMentioned    string `json:"budget_mentioned,omitempty"`
	AuthorityKnown     bool   `json:"authority_known,omitempty"`
	NeedTimeline       bool   `json:"need_timeline,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	CompanyName        *string `json:"company_name,omitempty"`
	Website            *string `json:"website,omitempty"`
	Country            *string `json:"country,omitempty"`
	Industry           *string `json:"industry,omitempty"`
	ContactName        *string `json:"contact_name,omitempty"`
	ContactEmail       *string `json:"contact_email,omitempty"`
	ContactPhone       *string `json:"contact_phone,omitempty"`
	LeadSource         *string `json:"lead_source,omitempty"`
	EstimatedDealValue *int64  `json:"estimated_deal_value,omitempty"`
	ExpectedTimeline   *string `json:"expected_timeline,omitempty"`
	ProblemIdentified  *bool   `json:"problem_identified,omitempty"`
	BudgetMentioned    *string `json:"budget_mentioned,omitempty"`
	AuthorityKnown     *bool   `json:"authority_known,omitempty"`
	NeedTimeline       *bool   `json:"need_timeline,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

type CreateRequestRequest struct {
	Title                string `json:"title"`
	Description          string `json:"description,omitempty"`
	RequestType          string `json:"request_type,omitempty"`
	Priority             string `json:"priority,omitempty"`
	NeededByDate         string `json:"needed_by_date,omitempty"`
	RequestingDepartment string `json:"requesting_department,omitempty"`
	CostCenter           string `json:"cost_center,omitempty"`
	ProjectCode          string `json:"project_code,omitempty"`
	EstimatedCost        int64  `json:"estimated_cost,omitempty"`
	IsRecurring          bool   `json:"is_recurring,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

type UpdateRequestRequest struct {
	Title                *string `json:"title,omitempty"`
	Description          *string `json:"description,omitempty"`
	RequestType          *string `json:"request_type,omitempty"`
	Priority             *string `json:"priority,omitempty"`
	NeededByDate         *string `json:"needed_by_date,omitempty"`
	RequestingDepartment *string `json:"requesting_department,omitempty"`
	CostCenter           *string `json:"cost_center,omitempty"`
	ProjectCode          *string `json:"project_code,omitempty"`
	EstimatedCost        *int64  `json:"estimated_cost,omitempty"`
	IsRecurring          *bool   `json:"is_recurring,omitempty"`
	Notes                *string `json:"notes,omitempty"`
}

// Response envelopes. Mutations answer with {success, <entity>_id, ...};
// lists answer with {success, <entities>, count}.

type LeadCreatedResponse struct {
	Success bool        `json:"success"`
	LeadID  string      `json:"lead_id"`
	Lead    domain.Lead `json:"lead"`
}

type LeadResponse struct {
	Success bool        `json:"success"`
	Lead    domain.Lead `json:"lead"`
}

type LeadListResponse struct {
	Success    bool          `json:"success"`
	Leads      []domain.Lead `json:"leads"`
	Count      int           `json:"count"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type RequestCreatedResponse struct {
	Success   bool                  `json:"success"`
	RequestID string                `json:"request_id"`
	Request   domain.ProcureRequest `json:"request"`
}

type RequestResponse struct {
	Success bool                  `json:"success"`
	Request domain.ProcureRequest `json:"request"`
}

type RequestListResponse struct {
	Success    bool                    `json:"success"`
	Requests   []domain.ProcureRequest `json:"requests"`
	Count      int                     `json:"count"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

type ConvertedResponse struct {
	Success      bool              `json:"success"`
	EvaluationID string            `json:"evaluation_id"`
	PartyID      string            `json:"party_id"`
	Evaluation   domain.Evaluation `json:"evaluation"`
	Party        domain.Party      `json:"party"`
}

type EvaluationListResponse struct {
	Success     bool                `json:"success"`
	Evaluations []domain.Evaluation `json:"evaluations"`
	Count       int                 `json:"count"`
}

type EvaluationDetailResponse struct {
	Success          bool                        `json:"success"`
	Evaluation       domain.Evaluation           `json:"evaluation"`
	PartyReadiness   *workflow.ReadinessSnapshot `json:"party_readiness,omitempty"`
	RiskAssessment   *workflow.RiskAssessment    `json:"risk_assessment,omitempty"`
	BudgetValidation *workflow.BudgetValidation  `json:"budget_validation,omitempty"`
}

type CommitCreatedResponse struct {
	Success          bool              `json:"success"`
	CommitID         string            `json:"commit_id"`
	RequiresApproval bool              `json:"requires_approval"`
	Approvers        []domain.Approver `json:"approvers"`
	Commit           domain.Commit     `json:"commit"`
}

type CommitResponse struct {
	Success bool          `json:"success"`
	Commit  domain.Commit `json:"commit"`
}

type CommitListResponse struct {
	Success bool            `json:"success"`
	Commits []domain.Commit `json:"commits"`
	Count   int             `json:"count"`
}

type CommitApprovedResponse struct {
	Success     bool          `json:"success"`
	AllApproved bool          `json:"all_approved"`
	Commit      domain.Commit `json:"commit"`
}

type ContractCreatedResponse struct {
	Success    bool            `json:"success"`
	ContractID string          `json:"contract_id"`
	Contract   domain.Contract `json:"contract"`
}

type ContractResponse struct {
	Success  bool            `json:"success"`
	Contract domain.Contract `json:"contract"`
}

type ContractListResponse struct {
	Success   bool              `json:"success"`
	Contracts []domain.Contract `json:"contracts"`
	Count     int               `json:"count"`
}

type HandoffCreatedResponse struct {
	Success     bool             `json:"success"`
	HandoffID   string           `json:"handoff_id"`
	WorkOrderID string           `json:"work_order_id"`
	Handoff     domain.Handoff   `json:"handoff"`
	WorkOrder   domain.WorkOrder `json:"work_order"`
}

type HandoffResponse struct {
	Success bool           `json:"success"`
	Handoff domain.Handoff `json:"handoff"`
}

type HandoffListResponse struct {
	Success  bool             `json:"success"`
	Handoffs []domain.Handoff `json:"handoffs"`
	Count    int              `json:"count"`
}

type TaskListResponse struct {
	Success bool                   `json:"success"`
	Tasks   []domain.WorkspaceTask `json:"tasks"`
	Count   int                    `json:"count"`
}

type ApprovalListResponse struct {
	Success   bool              `json:"success"`
	Approvals []domain.Approval `json:"approvals"`
	Count     int               `json:"count"`
}

type ActivityListResponse struct {
	Success    bool                   `json:"success"`
	Activities []domain.ActivityEntry `json:"activities"`
	Count      int                    `json:"count"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

type SignalListResponse struct {
	Success bool            `json:"success"`
	Signals []domain.Signal `json:"signals"`
	Count   int             `json:"count"`
}

type WorkOrderListResponse struct {
	Success    bool               `json:"success"`
	WorkOrders []domain.WorkOrder `json:"work_orders"`
	Count      int                `json:"count"`
}

type SeedResponse struct {
	Success  bool     `json:"success"`
	Leads    []string `json:"leads"`
	Requests []string `json:"requests"`
}

// Conversion helpers

func leadCreateOptions(r CreateLeadRequest) workflow.LeadCreateOptions {
	return workflow.LeadCreateOptions(r)
}

func leadUpdateOptions(r UpdateLeadRequest) workflow.LeadUpdateOptions {
	return workflow.LeadUpdateOptions(r)
}

func requestCreateOptions(r CreateRequestRequest) workflow.RequestCreateOptions {
	return workflow.RequestCreateOptions(r)
}

func requestUpdateOptions(r UpdateRequestRequest) workflow.RequestUpdateOptions {
	return workflow.RequestUpdateOptions(r)
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
