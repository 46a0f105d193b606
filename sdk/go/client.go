package dealflowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Dealflow HTTP API client. Tenancy rides on the
// credential (the JWT's org claim or the API key's org), so there is no org
// parameter on calls.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Lead represents the API lead model (partial).
type Lead struct {
	ID                 string `json:"lead_id"`
	CompanyName        string `json:"company_name"`
	Stage              string `json:"stage"`
	Rating             string `json:"rating"`
	EstimatedDealValue int64  `json:"estimated_deal_value"`
	IsConverted        bool   `json:"is_converted"`
	EvaluationID       string `json:"evaluation_id,omitempty"`
}

type Evaluation struct {
	ID        string `json:"evaluation_id"`
	Domain    string `json:"domain"`
	SourceID  string `json:"source_id"`
	PartyID   string `json:"party_id"`
	DealValue int64  `json:"deal_value"`
	Status    string `json:"status"`
	CommitID  string `json:"commit_id,omitempty"`
}

type Approver struct {
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

type Commit struct {
	ID         string     `json:"commit_id"`
	Domain     string     `json:"domain"`
	DealValue  int64      `json:"deal_value"`
	Approvers  []Approver `json:"approvers"`
	Status     string     `json:"status"`
	ContractID string     `json:"contract_id,omitempty"`
}

type Contract struct {
	ID       string `json:"contract_id"`
	Domain   string `json:"domain"`
	CommitID string `json:"commit_id"`
	PartyID  string `json:"party_id"`
	Value    int64  `json:"value"`
	Status   string `json:"status"`
}

type Handoff struct {
	ID          string `json:"handoff_id"`
	ContractID  string `json:"contract_id"`
	WorkOrderID string `json:"work_order_id"`
}

type WorkOrder struct {
	ID               string `json:"work_order_id"`
	SourceContractID string `json:"source_contract_id"`
	SourceType       string `json:"source_type"`
	Title            string `json:"title"`
	Status           string `json:"status"`
}

type WorkspaceTask struct {
	ID          string `json:"task_id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	ContextType string `json:"context_type"`
	ContextID   string `json:"context_id"`
}

type Approval struct {
	ID          string `json:"approval_id"`
	Title       string `json:"title"`
	Role        string `json:"role"`
	Decision    string `json:"decision"`
	ContextID   string `json:"context_id"`
	WorkflowRef string `json:"workflow_ref,omitempty"`
}

type ActivityEntry struct {
	ID          string `json:"activity_id"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type createLeadResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"lead_id"`
	Lead    Lead   `json:"lead"`
}

type convertResponse struct {
	Success      bool       `json:"success"`
	EvaluationID string     `json:"evaluation_id"`
	PartyID      string     `json:"party_id"`
	Evaluation   Evaluation `json:"evaluation"`
}

// SubmitResult reports the commit opened for an evaluation.
type SubmitResult struct {
	Success          bool       `json:"success"`
	CommitID         string     `json:"commit_id"`
	RequiresApproval bool       `json:"requires_approval"`
	Approvers        []Approver `json:"approvers"`
	Commit           Commit     `json:"commit"`
}

// ApproveResult reports one recorded approval.
type ApproveResult struct {
	Success     bool   `json:"success"`
	AllApproved bool   `json:"all_approved"`
	Commit      Commit `json:"commit"`
}

// HandoffResult reports the operational handoff.
type HandoffResult struct {
	Success     bool      `json:"success"`
	HandoffID   string    `json:"handoff_id"`
	WorkOrderID string    `json:"work_order_id"`
	Handoff     Handoff   `json:"handoff"`
	WorkOrder   WorkOrder `json:"work_order"`
}

// CreateLead creates a revenue lead.
func (c *Client) CreateLead(ctx context.Context, fields map[string]any) (Lead, error) {
	var resp createLeadResponse
	err := c.do(ctx, http.MethodPost, c.apiPath("commerce/workflow/revenue/leads"), fields, &resp)
	return resp.Lead, err
}

// ChangeLeadStage advances a lead's stage.
func (c *Client) ChangeLeadStage(ctx context.Context, leadID, newStage string) (Lead, error) {
	var resp struct {
		Lead Lead `json:"lead"`
	}
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/revenue/leads/%s/stage?new_stage=%s",
		url.PathEscape(leadID), url.QueryEscape(newStage)))
	err := c.do(ctx, http.MethodPut, endpoint, nil, &resp)
	return resp.Lead, err
}

// ConvertLead converts a qualified lead into an evaluation.
func (c *Client) ConvertLead(ctx context.Context, leadID string) (Evaluation, error) {
	var resp convertResponse
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/revenue/leads/%s/convert-to-evaluate", url.PathEscape(leadID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp.Evaluation, err
}

// SubmitEvaluation submits an evaluation, opening its commit.
func (c *Client) SubmitEvaluation(ctx context.Context, domain, evaluationID string) (SubmitResult, error) {
	var resp SubmitResult
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/%s/evaluations/%s/submit",
		domainSegment(domain), url.PathEscape(evaluationID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// ApproveCommit records one role's approval on a commit.
func (c *Client) ApproveCommit(ctx context.Context, domain, commitID, role string) (ApproveResult, error) {
	var resp ApproveResult
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/%s/commits/%s/approve?approver_role=%s",
		domainSegment(domain), url.PathEscape(commitID), url.QueryEscape(role)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// CreateContract creates the contract for an approved commit.
func (c *Client) CreateContract(ctx context.Context, domain, commitID string) (Contract, error) {
	var resp struct {
		Contract Contract `json:"contract"`
	}
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/%s/commits/%s/create-contract",
		domainSegment(domain), url.PathEscape(commitID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp.Contract, err
}

// SignContract marks a draft contract signed.
func (c *Client) SignContract(ctx context.Context, domain, contractID string) (Contract, error) {
	var resp struct {
		Contract Contract `json:"contract"`
	}
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/%s/contracts/%s/sign",
		domainSegment(domain), url.PathEscape(contractID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp.Contract, err
}

// CreateHandoff hands a signed contract to operations.
func (c *Client) CreateHandoff(ctx context.Context, domain, contractID string) (HandoffResult, error) {
	var resp HandoffResult
	endpoint := c.apiPath(fmt.Sprintf("commerce/workflow/%s/contracts/%s/handoff",
		domainSegment(domain), url.PathEscape(contractID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// WorkspaceTasks lists workspace tasks.
func (c *Client) WorkspaceTasks(ctx context.Context, status string) ([]WorkspaceTask, error) {
	var resp struct {
		Tasks []WorkspaceTask `json:"tasks"`
	}
	endpoint := c.apiPath("workspace/tasks")
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Tasks, err
}

// WorkspaceApprovals lists workspace approvals.
func (c *Client) WorkspaceApprovals(ctx context.Context, decision string) ([]Approval, error) {
	var resp struct {
		Approvals []Approval `json:"approvals"`
	}
	endpoint := c.apiPath("workspace/approvals")
	if decision != "" {
		endpoint += "?decision=" + url.QueryEscape(decision)
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Approvals, err
}

// ActivityFeed returns recent activity entries.
func (c *Client) ActivityFeed(ctx context.Context, module string, limit int) ([]ActivityEntry, error) {
	var resp struct {
		Activities []ActivityEntry `json:"activities"`
	}
	endpoint := c.apiPath("activity/feed")
	params := url.Values{}
	if module != "" {
		params.Set("module", module)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Activities, err
}

// WorkIntake lists incoming work orders.
func (c *Client) WorkIntake(ctx context.Context, sourceType string) ([]WorkOrder, error) {
	var resp struct {
		WorkOrders []WorkOrder `json:"work_orders"`
	}
	endpoint := c.apiPath("operations/work-intake")
	if sourceType != "" {
		endpoint += "?source_type=" + url.QueryEscape(sourceType)
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.WorkOrders, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	return "api/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func domainSegment(domain string) string {
	if domain == "procurement" {
		return "procure"
	}
	return "revenue"
}
