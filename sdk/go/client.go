package groundswellsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Groundswell HTTP API client.
type Client struct {
	BaseURL      string
	BearerToken  string
	ActorID      int64
	ActorAddress string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Initiative represents the API initiative model (partial).
type Initiative struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	State     string `json:"state"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Opportunity represents a published unit of work.
type Opportunity struct {
	ID           int64  `json:"id"`
	InitiativeID int64  `json:"initiative_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
}

// Engagement represents a contributor bound to an opportunity.
type Engagement struct {
	ID            int64  `json:"id"`
	OpportunityID int64  `json:"opportunity_id"`
	InitiativeID  int64  `json:"initiative_id"`
	Status        string `json:"status"`
}

// Milestone represents a deliverable checkpoint.
type Milestone struct {
	ID           int64  `json:"id"`
	EngagementID int64  `json:"engagement_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	DueAt        *int64 `json:"due_at,omitempty"`
}

// Attestation represents a ledger entry.
type Attestation struct {
	ID           int64          `json:"id"`
	Type         string         `json:"attestation_type"`
	InitiativeID *int64         `json:"initiative_id,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	CreatedAt    int64          `json:"created_at"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateInitiative charters a new initiative.
func (c *Client) CreateInitiative(ctx context.Context, title, summary string) (Initiative, error) {
	body := map[string]any{"title": title}
	if summary != "" {
		body["summary"] = summary
	}
	var resp Initiative
	err := c.do(ctx, http.MethodPost, "v0/initiatives", body, &resp)
	return resp, err
}

// GetInitiative fetches one initiative.
func (c *Client) GetInitiative(ctx context.Context, id int64) (Initiative, error) {
	var resp Initiative
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v0/initiatives/%d", id), nil, &resp)
	return resp, err
}

// ListInitiatives lists initiatives under the given scope (all, active, mine).
func (c *Client) ListInitiatives(ctx context.Context, scope string) ([]Initiative, error) {
	endpoint := "v0/initiatives"
	if scope != "" {
		endpoint += "?scope=" + scope
	}
	var resp []Initiative
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateInitiative patches the given fields; nil fields are preserved.
func (c *Client) UpdateInitiative(ctx context.Context, id int64, patch map[string]any) (Initiative, error) {
	var resp Initiative
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("v0/initiatives/%d", id), patch, &resp)
	return resp, err
}

// CreateOpportunity publishes a unit of work under an initiative.
func (c *Client) CreateOpportunity(ctx context.Context, initiativeID int64, title, status string) (Opportunity, error) {
	body := map[string]any{"title": title}
	if status != "" {
		body["status"] = status
	}
	var resp Opportunity
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/initiatives/%d/opportunities", initiativeID), body, &resp)
	return resp, err
}

// CreateEngagement binds a contributor to an opportunity.
func (c *Client) CreateEngagement(ctx context.Context, opportunityID int64, body map[string]any) (Engagement, error) {
	var resp Engagement
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/opportunities/%d/engagements", opportunityID), body, &resp)
	return resp, err
}

// UpdateEngagement patches an engagement, typically its status.
func (c *Client) UpdateEngagement(ctx context.Context, id int64, patch map[string]any) (Engagement, error) {
	var resp Engagement
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("v0/engagements/%d", id), patch, &resp)
	return resp, err
}

// CreateMilestone adds a checkpoint to an engagement.
func (c *Client) CreateMilestone(ctx context.Context, engagementID int64, title string) (Milestone, error) {
	var resp Milestone
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/engagements/%d/milestones", engagementID), map[string]any{"title": title}, &resp)
	return resp, err
}

// UpdateMilestone patches a milestone, typically its status or evidence.
func (c *Client) UpdateMilestone(ctx context.Context, id int64, patch map[string]any) (Milestone, error) {
	var resp Milestone
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("v0/milestones/%d", id), patch, &resp)
	return resp, err
}

// ListAttestations returns the newest-first ledger feed.
func (c *Client) ListAttestations(ctx context.Context, initiativeID int64, limit int) ([]Attestation, error) {
	endpoint := "v0/attestations"
	var params []string
	if initiativeID > 0 {
		params = append(params, "initiative_id="+strconv.FormatInt(initiativeID, 10))
	}
	if limit > 0 {
		params = append(params, "limit="+strconv.Itoa(limit))
	}
	if len(params) > 0 {
		endpoint += "?" + strings.Join(params, "&")
	}
	var resp []Attestation
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
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
	case c.ActorID > 0:
		req.Header.Set("X-Actor-Id", strconv.FormatInt(c.ActorID, 10))
		if c.ActorAddress != "" {
			req.Header.Set("X-Actor-Address", c.ActorAddress)
		}
	case c.ActorAddress != "":
		req.Header.Set("X-Actor-Address", c.ActorAddress)
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

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
