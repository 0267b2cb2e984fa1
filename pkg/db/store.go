package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Store is a client for the hosted row store's REST interface. Filters are
// column=op.value query pairs; Prefer directives control duplicate handling
// and whether mutations echo the affected rows.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewStore(baseURL, apiKey string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

const (
	preferIgnoreDuplicates = "resolution=ignore-duplicates"
	preferReturnRows       = "return=representation"
)

func (s *Store) do(ctx context.Context, method, table string, query url.Values, prefer string, body, out interface{}) error {
	u := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("store %s %s: status %d: %s", method, table, resp.StatusCode, truncate(respBody, 256))
	}
	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// ---- Whale Transactions ----

// InsertWhaleTransaction appends a whale transaction. Re-scanning the same
// block produces duplicate hashes; the store drops those silently.
func (s *Store) InsertWhaleTransaction(ctx context.Context, tx WhaleTransaction) error {
	return s.do(ctx, "POST", "whale_transactions", nil, preferIgnoreDuplicates, tx, nil)
}

func (s *Store) QueryWhaleTransactions(ctx context.Context, q WhaleQuery) ([]WhaleTransaction, error) {
	params := url.Values{}
	if q.Blockchain != "" {
		params.Set("blockchain", "eq."+string(q.Blockchain))
	}
	if q.RiskLevel != "" {
		params.Set("risk_level", "eq."+string(q.RiskLevel))
	}
	if q.MinValueUSD > 0 {
		params.Set("value_usd", "gte."+strconv.FormatInt(q.MinValueUSD, 10))
	}
	if !q.Since.IsZero() {
		params.Set("timestamp", "gte."+q.Since.UTC().Format(time.RFC3339))
	}
	params.Set("order", "timestamp.desc")
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	params.Set("limit", strconv.Itoa(limit))
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	var txs []WhaleTransaction
	if err := s.do(ctx, "GET", "whale_transactions", params, "", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ---- Agents ----

func (s *Store) InsertAgent(ctx context.Context, a Agent) (*Agent, error) {
	var rows []Agent
	if err := s.do(ctx, "POST", "agents", nil, preferReturnRows, a, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store returned no agent row")
	}
	return &rows[0], nil
}

func (s *Store) ListAgents(ctx context.Context, userID string) ([]Agent, error) {
	params := url.Values{}
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")

	var agents []Agent
	if err := s.do(ctx, "GET", "agents", params, "", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (s *Store) UpdateAgentStatus(ctx context.Context, id int64, userID, status string) error {
	params := url.Values{}
	params.Set("id", "eq."+strconv.FormatInt(id, 10))
	params.Set("user_id", "eq."+userID)
	return s.do(ctx, "PATCH", "agents", params, "", map[string]string{"status": status}, nil)
}

func (s *Store) DeleteAgent(ctx context.Context, id int64, userID string) error {
	params := url.Values{}
	params.Set("id", "eq."+strconv.FormatInt(id, 10))
	params.Set("user_id", "eq."+userID)
	return s.do(ctx, "DELETE", "agents", params, "", nil, nil)
}

// ---- Alerts ----

func (s *Store) InsertAlert(ctx context.Context, a Alert) (*Alert, error) {
	var rows []Alert
	if err := s.do(ctx, "POST", "alerts", nil, preferReturnRows, a, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store returned no alert row")
	}
	return &rows[0], nil
}

func (s *Store) ListAlerts(ctx context.Context, userID string, limit int) ([]Alert, error) {
	params := url.Values{}
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")
	if limit <= 0 {
		limit = 50
	}
	params.Set("limit", strconv.Itoa(limit))

	var alerts []Alert
	if err := s.do(ctx, "GET", "alerts", params, "", nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *Store) MarkAlertRead(ctx context.Context, id int64, userID string) error {
	params := url.Values{}
	params.Set("id", "eq."+strconv.FormatInt(id, 10))
	params.Set("user_id", "eq."+userID)
	return s.do(ctx, "PATCH", "alerts", params, "", map[string]bool{"read": true}, nil)
}

func (s *Store) MarkAllAlertsRead(ctx context.Context, userID string) error {
	params := url.Values{}
	params.Set("user_id", "eq."+userID)
	params.Set("read", "eq.false")
	return s.do(ctx, "PATCH", "alerts", params, "", map[string]bool{"read": true}, nil)
}

func (s *Store) DeleteAlert(ctx context.Context, id int64, userID string) error {
	params := url.Values{}
	params.Set("id", "eq."+strconv.FormatInt(id, 10))
	params.Set("user_id", "eq."+userID)
	return s.do(ctx, "DELETE", "alerts", params, "", nil, nil)
}

func (s *Store) CountUnreadAlerts(ctx context.Context, userID string) (int, error) {
	params := url.Values{}
	params.Set("user_id", "eq."+userID)
	params.Set("read", "eq.false")
	params.Set("select", "id")

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := s.do(ctx, "GET", "alerts", params, "", nil, &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
