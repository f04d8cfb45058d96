package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"groundswell/internal/catalog"
	"groundswell/internal/config"
	"groundswell/internal/db"
	"groundswell/internal/domain"
	"groundswell/internal/engine"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cfg := config.Default()
	e := engine.New(conn, cfg)
	if err := e.Schema.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	handler, err := New(Config{
		Engine:  e,
		Catalog: catalog.Catalog{Repo: e.Repo},
		Auth: AuthConfig{
			JWTSecret:        testSecret,
			AllowActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.Close)
	return ts
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

func asActor(id string) map[string]string {
	return map[string]string{"X-Actor-Id": id}
}

func TestInitiativeLifecycleFlow(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/initiatives", map[string]any{
		"title":   "Flood Relief",
		"summary": "Coordinate flood response",
	}, asActor("7"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create initiative status %d: %s", res.StatusCode, data)
	}
	var in domain.Initiative
	if err := json.Unmarshal(data, &in); err != nil {
		t.Fatalf("unmarshal initiative: %v", err)
	}
	if in.State != domain.InitiativeDraft {
		t.Fatalf("state = %s, want draft", in.State)
	}
	base := srv.URL + "/v0/initiatives/" + itoa(in.ID)

	res, data = doJSON(t, client, http.MethodPost, base+"/opportunities", map[string]any{
		"title":  "Drive trucks",
		"status": "open",
	}, asActor("7"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create opportunity status %d: %s", res.StatusCode, data)
	}
	var opp domain.Opportunity
	if err := json.Unmarshal(data, &opp); err != nil {
		t.Fatalf("unmarshal opportunity: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/opportunities/"+itoa(opp.ID)+"/engagements", map[string]any{
		"contributor_individual_id": 30,
		"status":                    "active",
	}, asActor("7"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create engagement status %d: %s", res.StatusCode, data)
	}
	var eng domain.Engagement
	if err := json.Unmarshal(data, &eng); err != nil {
		t.Fatalf("unmarshal engagement: %v", err)
	}

	// Active engagement marks the opportunity filled.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/opportunities/"+itoa(opp.ID), nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get opportunity status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &opp); err != nil {
		t.Fatalf("unmarshal opportunity: %v", err)
	}
	if opp.Status != domain.OpportunityFilled {
		t.Fatalf("opportunity status = %s, want filled", opp.Status)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/engagements/"+itoa(eng.ID)+"/milestones", map[string]any{
		"title": "First delivery",
	}, asActor("7"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create milestone status %d: %s", res.StatusCode, data)
	}
	var ms domain.Milestone
	if err := json.Unmarshal(data, &ms); err != nil {
		t.Fatalf("unmarshal milestone: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/milestones/"+itoa(ms.ID), map[string]any{
		"status": "submitted",
	}, asActor("30"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch milestone status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &ms); err != nil {
		t.Fatalf("unmarshal milestone: %v", err)
	}
	if ms.Status != domain.MilestoneSubmitted {
		t.Fatalf("milestone status = %s, want submitted", ms.Status)
	}

	res, data = doJSON(t, client, http.MethodGet, base+"/dashboard", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status %d: %s", res.StatusCode, data)
	}
	var dash domain.Dashboard
	if err := json.Unmarshal(data, &dash); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if len(dash.Opportunities) != 1 || len(dash.Engagements) != 1 || len(dash.Milestones) != 1 {
		t.Fatalf("dashboard sections = opp:%d eng:%d ms:%d",
			len(dash.Opportunities), len(dash.Engagements), len(dash.Milestones))
	}

	res, data = doJSON(t, client, http.MethodGet, base+"/attestations", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("attestations status %d: %s", res.StatusCode, data)
	}
	var atts []domain.Attestation
	if err := json.Unmarshal(data, &atts); err != nil {
		t.Fatalf("unmarshal attestations: %v", err)
	}
	want := map[string]bool{
		"initiative.created":    false,
		"opportunity.published": false,
		"engagement.activated":  false,
		"milestone.created":     false,
		"milestone.submitted":   false,
	}
	for _, a := range atts {
		if _, ok := want[a.Type]; ok {
			want[a.Type] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("attestation %s missing from feed", typ)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	type envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}

	// Missing actor on a mutation is a 400 from the engine's validation.
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/initiatives", map[string]any{
		"title": "No actor",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("no-actor status %d: %s", res.StatusCode, data)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Error.Code != "bad_request" {
		t.Fatalf("code = %q: %s", env.Error.Code, data)
	}

	// Missing title likewise.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/initiatives", map[string]any{}, asActor("7"))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("no-title status %d: %s", res.StatusCode, data)
	}

	// Absent entity yields the not_found envelope.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/initiatives/9999", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing initiative status %d: %s", res.StatusCode, data)
	}
	env = envelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("code = %q: %s", env.Error.Code, data)
	}
}

func TestJWTAuth(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	claims := jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/initiatives", map[string]any{
		"title": "Via bearer",
	}, map[string]string{"Authorization": "Bearer " + token})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("bearer create status %d: %s", res.StatusCode, data)
	}
	var in domain.Initiative
	if err := json.Unmarshal(data, &in); err != nil {
		t.Fatalf("unmarshal initiative: %v", err)
	}
	if in.CreatedByIndividualID != 7 {
		t.Fatalf("created_by = %d, want 7 from token subject", in.CreatedByIndividualID)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/initiatives", map[string]any{
		"title": "Bad token",
	}, map[string]string{"Authorization": "Bearer not-a-token"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status %d: %s", res.StatusCode, data)
	}
}

func TestCapabilityEndpoints(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v0/capabilities/logistics.trucking", map[string]any{
		"label": "Trucking",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("put capability status %d: %s", res.StatusCode, data)
	}
	var capability domain.Capability
	if err := json.Unmarshal(data, &capability); err != nil {
		t.Fatalf("unmarshal capability: %v", err)
	}
	if capability.Label != "Trucking" {
		t.Fatalf("label = %q", capability.Label)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/capabilities", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list capabilities status %d: %s", res.StatusCode, data)
	}
	var items []domain.Capability
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("capabilities = %d, want 1", len(items))
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
