package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/core/domain"
)

// APIError represents a non-2xx response from the core-banking backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// errorBody is the error envelope the backend returns on failures.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client calls the core-banking backend HTTP API. Every operation is a single
// request/response round trip; the client applies the request timeout but no
// retries.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	log     *zap.Logger
}

// NewClient creates a backend client.
func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// ApplicationFilters narrows the application list. Empty fields are omitted
// from the query.
type ApplicationFilters struct {
	Status         string
	Zone           string
	ProductID      string
	AssignedUserID string
}

// ListApplications fetches the credit applications of a microfinanciera.
func (c *Client) ListApplications(ctx context.Context, microID string, filters ApplicationFilters) ([]domain.Application, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)
	setIfPresent(params, "status", filters.Status)
	setIfPresent(params, "zone", filters.Zone)
	setIfPresent(params, "productId", filters.ProductID)
	setIfPresent(params, "assignedUserId", filters.AssignedUserID)

	var out struct {
		Applications []domain.Application `json:"applications"`
	}
	if err := c.get(ctx, "/api/applications", params, &out); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// GetApplication fetches one application by id.
func (c *Client) GetApplication(ctx context.Context, microID, applicationID string) (*domain.Application, error) {
	var app domain.Application
	path := fmt.Sprintf("/api/applications/%s/%s", microID, applicationID)
	if err := c.get(ctx, path, nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// AssignAnalyst assigns an analyst to an application.
func (c *Client) AssignAnalyst(ctx context.Context, microID, applicationID, analystID string) error {
	body := map[string]string{
		"microfinancieraId": microID,
		"applicationId":     applicationID,
		"analystId":         analystID,
	}
	return c.post(ctx, "/api/applications/assign", body, nil)
}

// CalculateScore triggers score calculation for an application. The response
// may carry an automatic decision alongside the scoring.
func (c *Client) CalculateScore(ctx context.Context, microID, applicationID string) (*domain.ScoringResult, error) {
	var out domain.ScoringResult
	path := fmt.Sprintf("/api/applications/%s/%s/calculate-score", microID, applicationID)
	if err := c.post(ctx, path, map[string]string{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetScoring fetches the persisted scoring for an application. Used as the
// authoritative read after a calculation.
func (c *Client) GetScoring(ctx context.Context, microID, applicationID string) (*domain.ScoringResult, error) {
	var out domain.ScoringResult
	path := fmt.Sprintf("/api/applications/%s/%s/scoring", microID, applicationID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDecision records a manual approve/reject decision.
func (c *Client) SubmitDecision(ctx context.Context, microID, applicationID, result, comments string) error {
	body := map[string]string{
		"result":   result,
		"comments": comments,
	}
	path := fmt.Sprintf("/api/applications/%s/%s/decision", microID, applicationID)
	return c.post(ctx, path, body, nil)
}

// Disburse releases the approved funds to the destination account. requestID
// is the idempotency key for the operation.
func (c *Client) Disburse(ctx context.Context, microID, applicationID, accountID, requestID, branchID string) error {
	body := map[string]string{
		"accountId": accountID,
		"requestId": requestID,
	}
	if branchID != "" {
		body["branchId"] = branchID
	}
	path := fmt.Sprintf("/api/applications/%s/%s/disburse", microID, applicationID)
	return c.post(ctx, path, body, nil)
}

// ListCustomerAccounts fetches a customer's active accounts, the eligible
// destinations for a disbursement.
func (c *Client) ListCustomerAccounts(ctx context.Context, microID, userID string) ([]domain.CustomerAccount, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)
	params.Set("userId", userID)
	params.Set("status", "active")

	var out struct {
		Accounts []domain.CustomerAccount `json:"accounts"`
	}
	if err := c.get(ctx, "/api/accounts", params, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// SearchAnalysts searches credit analysts by name, email or DNI.
func (c *Client) SearchAnalysts(ctx context.Context, microID, search string) ([]domain.Analyst, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)
	setIfPresent(params, "search", search)

	var out struct {
		Analysts []domain.Analyst `json:"analysts"`
	}
	if err := c.get(ctx, "/api/workers/analysts", params, &out); err != nil {
		return nil, err
	}
	return out.Analysts, nil
}

// AccountFilters narrows the account list. Empty fields are omitted from the
// query.
type AccountFilters struct {
	Status      string
	Zone        string
	AccountType string
}

// ListAccounts fetches the customer accounts of a microfinanciera.
func (c *Client) ListAccounts(ctx context.Context, microID string, filters AccountFilters) ([]domain.CustomerAccount, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)
	setIfPresent(params, "status", filters.Status)
	setIfPresent(params, "zone", filters.Zone)
	setIfPresent(params, "accountType", filters.AccountType)

	var out struct {
		Accounts []domain.CustomerAccount `json:"accounts"`
	}
	if err := c.get(ctx, "/api/accounts", params, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// GetAccount fetches one customer account.
func (c *Client) GetAccount(ctx context.Context, microID, accountID string) (*domain.CustomerAccount, error) {
	path := fmt.Sprintf("/api/accounts/%s/%s", microID, accountID)

	var out domain.CustomerAccount
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CardFilters narrows the card list. Empty fields are omitted from the query.
type CardFilters struct {
	Status   string
	CardType string
}

// ListCards fetches the customer cards of a microfinanciera.
func (c *Client) ListCards(ctx context.Context, microID string, filters CardFilters) ([]domain.Card, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)
	setIfPresent(params, "status", filters.Status)
	setIfPresent(params, "cardType", filters.CardType)

	var out struct {
		Cards []domain.Card `json:"cards"`
	}
	if err := c.get(ctx, "/api/cards", params, &out); err != nil {
		return nil, err
	}
	return out.Cards, nil
}

// GetCard fetches one customer card.
func (c *Client) GetCard(ctx context.Context, microID, cardID string) (*domain.Card, error) {
	path := fmt.Sprintf("/api/cards/%s/%s", microID, cardID)

	var out domain.Card
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveAccount approves a pending customer account.
func (c *Client) ApproveAccount(ctx context.Context, microID, accountID string) error {
	path := fmt.Sprintf("/api/accounts/%s/%s/approve", microID, accountID)
	return c.post(ctx, path, map[string]string{}, nil)
}

// RejectAccount rejects a pending customer account.
func (c *Client) RejectAccount(ctx context.Context, microID, accountID, reason string) error {
	path := fmt.Sprintf("/api/accounts/%s/%s/reject", microID, accountID)
	return c.post(ctx, path, map[string]string{"reason": reason}, nil)
}

// ChangeAccountStatus moves a customer account to a new status.
func (c *Client) ChangeAccountStatus(ctx context.Context, microID, accountID, status, reason string) error {
	body := map[string]string{"status": status}
	if reason != "" {
		body["reason"] = reason
	}
	path := fmt.Sprintf("/api/accounts/%s/%s/status", microID, accountID)
	return c.put(ctx, path, body)
}

// ApproveCard approves a pending card.
func (c *Client) ApproveCard(ctx context.Context, microID, cardID string) error {
	path := fmt.Sprintf("/api/cards/%s/%s/approve", microID, cardID)
	return c.post(ctx, path, map[string]string{}, nil)
}

// RejectCard rejects a pending card.
func (c *Client) RejectCard(ctx context.Context, microID, cardID, reason, evidence string) error {
	body := map[string]string{"reason": reason}
	if evidence != "" {
		body["evidence"] = evidence
	}
	path := fmt.Sprintf("/api/cards/%s/%s/reject", microID, cardID)
	return c.post(ctx, path, body, nil)
}

// SuspendCard suspends an active card.
func (c *Client) SuspendCard(ctx context.Context, microID, cardID, reason, evidence string) error {
	body := map[string]string{"reason": reason}
	if evidence != "" {
		body["evidence"] = evidence
	}
	path := fmt.Sprintf("/api/cards/%s/%s/suspend", microID, cardID)
	return c.put(ctx, path, body)
}

// ReactivateCard reactivates a suspended card.
func (c *Client) ReactivateCard(ctx context.Context, microID, cardID string) error {
	path := fmt.Sprintf("/api/cards/%s/%s/reactivate", microID, cardID)
	return c.put(ctx, path, nil)
}

// CloseCard closes a card permanently.
func (c *Client) CloseCard(ctx context.Context, microID, cardID, reason, evidence string) error {
	body := map[string]string{"reason": reason}
	if evidence != "" {
		body["evidence"] = evidence
	}
	path := fmt.Sprintf("/api/cards/%s/%s/close", microID, cardID)
	return c.put(ctx, path, body)
}

// GetScoringConfig fetches the scoring configuration, passed through to the
// console untouched.
func (c *Client) GetScoringConfig(ctx context.Context, microID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)

	var out json.RawMessage
	if err := c.get(ctx, "/api/scoring/config", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetScoringMetrics fetches scoring metrics for the dashboard widgets.
func (c *Client) GetScoringMetrics(ctx context.Context, microID, startDate, endDate string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("microfinancieraId", microID)
	setIfPresent(params, "startDate", startDate)
	setIfPresent(params, "endDate", endDate)

	var out json.RawMessage
	if err := c.get(ctx, "/api/scoring/metrics", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("backend: acquire token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.readError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// readError extracts the backend's error message, falling back to a generic
// one when the body is not the expected envelope.
func (c *Client) readError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: "request failed"}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(raw) > 0 {
		var body errorBody
		if json.Unmarshal(raw, &body) == nil {
			if body.Error != "" {
				apiErr.Message = body.Error
			} else if body.Message != "" {
				apiErr.Message = body.Message
			}
		}
	}
	return apiErr
}

func setIfPresent(params url.Values, key, value string) {
	if value != "" && value != "all" {
		params.Set(key, value)
	}
}
