package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dealflow/internal/config"
	"dealflow/internal/db"
	"dealflow/internal/domain"
	"dealflow/internal/ids"
	"dealflow/internal/migrate"
	"dealflow/internal/repo"
	"dealflow/internal/workflow"
)

const testJWTSecret = "test-secret"

type testServer struct {
	URL    string
	Engine workflow.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("acme")
	e := workflow.New(conn, cfg)
	ctx := context.Background()
	err = e.Repo.InsertOrg(ctx, domain.Org{
		ID:        "acme",
		Name:      "acme",
		Status:    "active",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("insert org: %v", err)
	}
	if err := e.Repo.UpsertOrgConfig(ctx, "acme", cfg); err != nil {
		t.Fatalf("seed org config: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/api", Auth: AuthConfig{JWTSecret: testJWTSecret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func mintToken(t *testing.T, sub, orgID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		OrgID: orgID,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authHeaders(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + mintToken(t, "tester", "acme")}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
}

func TestMissingCredentialsRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/commerce/workflow/revenue/leads", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(data))
	}
	// wrong signing key
	bad := map[string]string{"Authorization": "Bearer " + mintToken(t, "tester", "acme") + "x"}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/commerce/workflow/revenue/leads", nil, bad)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d: %s", res.StatusCode, string(data))
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	secret := "dfw_test_secret"
	err := srv.Engine.Repo.InsertAPIKey(context.Background(), domain.APIKey{
		ID:        ids.New(ids.APIKey),
		OrgID:     "acme",
		ActorID:   "svc-integration",
		Name:      "ci",
		KeyHash:   repo.HashAPIKey(secret),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("insert api key: %v", err)
	}
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/commerce/workflow/revenue/leads", nil,
		map[string]string{"X-Api-Key": secret})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with api key, got %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/commerce/workflow/revenue/leads", nil,
		map[string]string{"X-Api-Key": "dfw_wrong"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %d: %s", res.StatusCode, string(data))
	}
}

func TestRevenuePipelineEndToEnd(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := authHeaders(t)
	base := srv.URL + "/api/commerce/workflow/revenue"

	res, data := doJSON(t, client, http.MethodPost, base+"/leads", map[string]any{
		"company_name":         "Zenith Systems",
		"contact_name":         "Ravi",
		"country":              "IN",
		"lead_source":          "referral",
		"estimated_deal_value": 12000000,
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create lead status %d: %s", res.StatusCode, string(data))
	}
	var created LeadCreatedResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal lead: %v", err)
	}
	if !created.Success || created.LeadID == "" || created.Lead.Stage != "new" {
		t.Fatalf("unexpected create response: %s", string(data))
	}
	leadID := created.LeadID

	for _, stage := range []string{"contacted", "qualified"} {
		res, data = doJSON(t, client, http.MethodPut,
			base+"/leads/"+leadID+"/stage?new_stage="+url.QueryEscape(stage), nil, headers)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("stage %s status %d: %s", stage, res.StatusCode, string(data))
		}
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/leads/"+leadID+"/convert-to-evaluate", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("convert status %d: %s", res.StatusCode, string(data))
	}
	var converted ConvertedResponse
	if err := json.Unmarshal(data, &converted); err != nil {
		t.Fatalf("unmarshal convert: %v", err)
	}
	if converted.EvaluationID == "" || converted.PartyID == "" {
		t.Fatalf("unexpected convert response: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/evaluations/"+converted.EvaluationID+"/submit", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}
	var submitted CommitCreatedResponse
	if err := json.Unmarshal(data, &submitted); err != nil {
		t.Fatalf("unmarshal submit: %v", err)
	}
	if !submitted.RequiresApproval || len(submitted.Approvers) != 2 {
		t.Fatalf("expected two required approvers: %s", string(data))
	}
	commitID := submitted.CommitID

	res, data = doJSON(t, client, http.MethodPost,
		base+"/commits/"+commitID+"/approve?approver_role="+url.QueryEscape("Finance Head"), nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("first approval status %d: %s", res.StatusCode, string(data))
	}
	var approved CommitApprovedResponse
	if err := json.Unmarshal(data, &approved); err != nil {
		t.Fatalf("unmarshal approval: %v", err)
	}
	if approved.AllApproved {
		t.Fatalf("commit should still be pending: %s", string(data))
	}
	res, data = doJSON(t, client, http.MethodPost,
		base+"/commits/"+commitID+"/approve?approver_role=CFO", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("second approval status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &approved); err != nil {
		t.Fatalf("unmarshal approval: %v", err)
	}
	if !approved.AllApproved || approved.Commit.Status != "approved" {
		t.Fatalf("expected fully approved commit: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/commits/"+commitID+"/create-contract", nil, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create contract status %d: %s", res.StatusCode, string(data))
	}
	var contract ContractCreatedResponse
	if err := json.Unmarshal(data, &contract); err != nil {
		t.Fatalf("unmarshal contract: %v", err)
	}
	res, data = doJSON(t, client, http.MethodPost, base+"/contracts/"+contract.ContractID+"/sign", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, base+"/contracts/"+contract.ContractID+"/handoff", nil, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("handoff status %d: %s", res.StatusCode, string(data))
	}
	var handoff HandoffCreatedResponse
	if err := json.Unmarshal(data, &handoff); err != nil {
		t.Fatalf("unmarshal handoff: %v", err)
	}
	if handoff.WorkOrderID == "" || handoff.WorkOrder.SourceContractID != contract.ContractID {
		t.Fatalf("unexpected handoff response: %s", string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, base+"/handoffs/"+handoff.HandoffID, nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get handoff status %d: %s", res.StatusCode, string(data))
	}
	var gotHandoff HandoffResponse
	if err := json.Unmarshal(data, &gotHandoff); err != nil {
		t.Fatalf("unmarshal handoff: %v", err)
	}
	if gotHandoff.Handoff.ID != handoff.HandoffID {
		t.Fatalf("unexpected handoff: %s", string(data))
	}

	// companion views populated by the walk above
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/workspace/tasks", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("tasks status %d: %s", res.StatusCode, string(data))
	}
	var tasks TaskListResponse
	if err := json.Unmarshal(data, &tasks); err != nil {
		t.Fatalf("unmarshal tasks: %v", err)
	}
	if tasks.Count < 3 {
		t.Fatalf("expected contact/review/delivery tasks, got %d", tasks.Count)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/intelligence/signals?kind=deal_won", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("signals status %d: %s", res.StatusCode, string(data))
	}
	var signals SignalListResponse
	if err := json.Unmarshal(data, &signals); err != nil {
		t.Fatalf("unmarshal signals: %v", err)
	}
	if signals.Count != 1 {
		t.Fatalf("expected one deal_won signal, got %s", string(data))
	}
}

func TestRejectionsMapTo400(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := authHeaders(t)
	base := srv.URL + "/api/commerce/workflow/revenue"

	res, data := doJSON(t, client, http.MethodPost, base+"/leads", map[string]any{
		"company_name": "Acme",
		"contact_name": "A",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create lead status %d: %s", res.StatusCode, string(data))
	}
	var created LeadCreatedResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal lead: %v", err)
	}

	// conversion before qualification
	res, data = doJSON(t, client, http.MethodPost, base+"/leads/"+created.LeadID+"/convert-to-evaluate", nil, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if envelope.Error.Code != "bad_request" || envelope.Error.Message == "" {
		t.Fatalf("unexpected error envelope: %s", string(data))
	}

	// stage regression
	res, data = doJSON(t, client, http.MethodPut, base+"/leads/"+created.LeadID+"/stage?new_stage=qualified", nil, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for skipped stage, got %d: %s", res.StatusCode, string(data))
	}

	// unknown id
	res, data = doJSON(t, client, http.MethodGet, base+"/leads/LEAD-000000000000", nil, headers)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
}

func TestTenantScopedByCredential(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	ctx := context.Background()

	otherCfg := config.Default("globex")
	err := srv.Engine.Repo.InsertOrg(ctx, domain.Org{
		ID: "globex", Name: "globex", Status: "active",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("insert org: %v", err)
	}
	if err := srv.Engine.Repo.UpsertOrgConfig(ctx, "globex", otherCfg); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	base := srv.URL + "/api/commerce/workflow/revenue"
	res, data := doJSON(t, client, http.MethodPost, base+"/leads", map[string]any{
		"company_name": "Acme Deal",
		"contact_name": "A",
	}, authHeaders(t))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create lead status %d: %s", res.StatusCode, string(data))
	}
	var created LeadCreatedResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal lead: %v", err)
	}

	globex := map[string]string{"Authorization": "Bearer " + mintToken(t, "tester", "globex")}
	res, data = doJSON(t, client, http.MethodGet, base+"/leads/"+created.LeadID, nil, globex)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 across tenants, got %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, base+"/leads", nil, globex)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var list LeadListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if list.Count != 0 {
		t.Fatalf("expected empty list for other tenant, got %s", string(data))
	}
}
