package adminctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cdsvote/cdsvote/internal/common"
)

const requestTimeout = 10 * time.Second

// Client talks to the election server's admin API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {

	var buf io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err == nil && ae.Error != "" {
			return fmt.Errorf("server: %s (%d)", ae.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Login authenticates and stores the session token for later calls.
func (c *Client) Login(ctx context.Context, name, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/admin/login", map[string]string{
		"name":     name,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

type PhaseState struct {
	ApplicationsOpen bool `json:"applications_open"`
	VotingOpen       bool `json:"voting_open"`
}

func (c *Client) GetPhase(ctx context.Context) (*PhaseState, error) {
	var resp PhaseState
	if err := c.do(ctx, http.MethodGet, "/api/phase", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetPhase(ctx context.Context, phase string, open bool) (*PhaseState, error) {
	var resp PhaseState
	err := c.do(ctx, http.MethodPut, "/api/admin/phase", map[string]any{
		"phase": phase,
		"open":  open,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	FullName    string `json:"full_name"`
	Votes       int64  `json:"votes"`
}

type PositionTally struct {
	PositionID   string           `json:"position_id"`
	PositionName string           `json:"position_name"`
	TotalVotes   int64            `json:"total_votes"`
	Candidates   []CandidateTally `json:"candidates"`
	Leader       *CandidateTally  `json:"leader,omitempty"`
}

type TallySnapshot struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	EligibleVoters int64           `json:"eligible_voters"`
	TotalVotes     int64           `json:"total_votes"`
	Positions      []PositionTally `json:"positions"`
}

func (c *Client) Tally(ctx context.Context) (*TallySnapshot, error) {
	var resp TallySnapshot
	if err := c.do(ctx, http.MethodGet, "/api/tally", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type ExportResult struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

func (c *Client) Export(ctx context.Context) (*ExportResult, error) {
	var resp ExportResult
	if err := c.do(ctx, http.MethodPost, "/api/admin/export", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type AuditEntry struct {
	ID        string          `json:"id"`
	AdminName string          `json:"admin_name"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (c *Client) Audit(ctx context.Context, limit int) ([]AuditEntry, error) {
	path := "/api/admin/audit"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp []AuditEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type Turnout struct {
	CastVotes      int64 `json:"cast_votes"`
	EligibleVoters int64 `json:"eligible_voters"`
}

func (c *Client) Turnout(ctx context.Context) (*Turnout, error) {
	var resp Turnout
	if err := c.do(ctx, http.MethodGet, "/api/admin/turnout", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
