package domain

// Workflow domains. Revenue entities originate from leads, procurement
// entities from purchase requests; evaluations onward share one pipeline.
const (
	DomainRevenue     = "revenue"
	DomainProcurement = "procurement"
)

type Org struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Lead struct {
	ID                 string  `json:"lead_id"`
	OrgID              string  `json:"org_id"`
	CompanyName        string  `json:"company_name"`
	Website            string  `json:"website,omitempty"`
	Country            string  `json:"country"`
	Industry           string  `json:"industry,omitempty"`
	ContactName        string  `json:"contact_name"`
	ContactEmail       string  `json:"contact_email"`
	ContactPhone       string  `json:"contact_phone,omitempty"`
	LeadSource         string  `json:"lead_source"`
	EstimatedDealValue int64   `json:"estimated_deal_value"`
	ExpectedTimeline   string  `json:"expected_timeline,omitempty"`
	ProblemIdentified  bool    `json:"problem_identified"`
	BudgetMentioned    string  `json:"budget_mentioned,omitempty"`
	AuthorityKnown     bool    `json:"authority_known"`
	NeedTimeline       bool    `json:"need_timeline"`
	Rating             string  `json:"rating" enum:"hot,warm,cold"`
	Stage              string  `json:"stage" enum:"new,contacted,qualified,converted"`
	Status             string  `json:"lead_status"`
	IsConverted        bool    `json:"is_converted"`
	EvaluationID       *string `json:"evaluation_id,omitempty"`
	Notes              string  `json:"notes,omitempty"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
	UpdatedAt          string  `json:"updated_at" format:"date-time"`
}

type ProcureRequest struct {
	ID                   string  `json:"request_id"`
	OrgID                string  `json:"org_id"`
	Title                string  `json:"title"`
	Description          string  `json:"description,omitempty"`
	RequestType          string  `json:"request_type"`
	Priority             string  `json:"priority,omitempty"`
	NeededByDate         string  `json:"needed_by_date,omitempty"`
	RequestingDepartment string  `json:"requesting_department,omitempty"`
	CostCenter           string  `json:"cost_center,omitempty"`
	ProjectCode          string  `json:"project_code,omitempty"`
	EstimatedCost        int64   `json:"estimated_cost"`
	IsRecurring          bool    `json:"is_recurring"`
	Status               string  `json:"status" enum:"draft,submitted"`
	EvaluationID         *string `json:"evaluation_id,omitempty"`
	Notes                string  `json:"notes,omitempty"`
	CreatedAt            string  `json:"created_at" format:"date-time"`
	UpdatedAt            string  `json:"updated_at" format:"date-time"`
}

// Party is the canonical counterparty record. Conversions find-or-create it
// by normalized name + country within the tenant.
type Party struct {
	ID             string `json:"party_id"`
	OrgID          string `json:"org_id"`
	Name           string `json:"name"`
	NormalizedName string `json:"-"`
	Country        string `json:"country"`
	Kind           string `json:"kind" enum:"customer,vendor"`
	ContactName    string `json:"contact_name,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	Status         string `json:"status" enum:"unverified,verified"`
	CreatedAt      string `json:"created_at" format:"date-time"`
}

type Evaluation struct {
	ID        string  `json:"evaluation_id"`
	OrgID     string  `json:"org_id"`
	Domain    string  `json:"domain" enum:"revenue,procurement"`
	SourceID  string  `json:"source_id"`
	PartyID   string  `json:"party_id"`
	DealValue int64   `json:"deal_value"`
	Status    string  `json:"status" enum:"open,submitted"`
	CommitID  *string `json:"commit_id,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

// Approver is one required approval slot on a commit.
type Approver struct {
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

type Commit struct {
	ID           string     `json:"commit_id"`
	OrgID        string     `json:"org_id"`
	Domain       string     `json:"domain" enum:"revenue,procurement"`
	EvaluationID string     `json:"evaluation_id"`
	PartyID      string     `json:"party_id"`
	DealValue    int64      `json:"deal_value"`
	Approvers    []Approver `json:"approvers"`
	Status       string     `json:"status" enum:"pending_approval,approved"`
	ContractID   *string    `json:"contract_id,omitempty"`
	CreatedAt    string     `json:"created_at" format:"date-time"`
}

// CommitApproval records one role's recorded approval on a commit.
type CommitApproval struct {
	CommitID   string `json:"commit_id"`
	Role       string `json:"role"`
	ApprovedBy string `json:"approved_by"`
	ApprovedAt string `json:"approved_at" format:"date-time"`
}

type Contract struct {
	ID        string  `json:"contract_id"`
	OrgID     string  `json:"org_id"`
	Domain    string  `json:"domain" enum:"revenue,procurement"`
	CommitID  string  `json:"commit_id"`
	PartyID   string  `json:"party_id"`
	Value     int64   `json:"value"`
	Status    string  `json:"status" enum:"draft,signed"`
	SignedAt  *string `json:"signed_at,omitempty" format:"date-time"`
	HandoffID *string `json:"handoff_id,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type Handoff struct {
	ID          string `json:"handoff_id"`
	OrgID       string `json:"org_id"`
	Domain      string `json:"domain" enum:"revenue,procurement"`
	ContractID  string `json:"contract_id"`
	PartyID     string `json:"party_id"`
	WorkOrderID string `json:"work_order_id"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type WorkOrder struct {
	ID               string `json:"work_order_id"`
	OrgID            string `json:"org_id"`
	SourceContractID string `json:"source_contract_id"`
	SourceType       string `json:"source_type" enum:"revenue,procurement"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at" format:"date-time"`
}

// Companion records. These have no lifecycle of their own; they are created
// only by the side-effect emitter and read back by the workspace, activity,
// intelligence and operations endpoints.

type WorkspaceTask struct {
	ID          string `json:"task_id"`
	OrgID       string `json:"org_id"`
	Title       string `json:"title"`
	Status      string `json:"status" enum:"open,done"`
	Source      string `json:"source"`
	Priority    string `json:"priority,omitempty"`
	ContextType string `json:"context_type"`
	ContextID   string `json:"context_id"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Approval struct {
	ID          string `json:"approval_id"`
	OrgID       string `json:"org_id"`
	Title       string `json:"title"`
	Role        string `json:"role"`
	Decision    string `json:"decision" enum:"pending,approved,rejected"`
	ContextType string `json:"context_type"`
	ContextID   string `json:"context_id"`
	WorkflowRef string `json:"workflow_ref,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type ActivityEntry struct {
	ID          string `json:"activity_id"`
	OrgID       string `json:"org_id"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	Description string `json:"description"`
	ActorID     string `json:"actor_id"`
	Timestamp   string `json:"timestamp" format:"date-time"`
}

type Signal struct {
	ID          string `json:"signal_id"`
	OrgID       string `json:"org_id"`
	Kind        string `json:"kind"`
	Source      string `json:"source"`
	EntityID    string `json:"entity_id"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	OrgID     string `json:"org_id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
