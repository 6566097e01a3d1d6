// Package backend is the client for the civicsync issues REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civicsync-client/models"
)

const (
	issuesPath = "/api/issues"

	fetchFailedMessage  = "Network response was not ok"
	submitFailedMessage = "Submission failed"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Client calls the issues API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a backend client. A nil httpClient gets a default one.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchIssues lists the issues matching filter.
func (c *Client) FetchIssues(ctx context.Context, filter models.Filter) ([]models.Issue, error) {
	reqURL := c.baseURL + issuesPath + "?" + filter.Query().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, fetchFailedMessage)}
	}

	return decodeIssues(body)
}

// decodeIssues accepts a bare array or an object carrying an "issues" array.
func decodeIssues(body []byte) ([]models.Issue, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Issues []models.Issue `json:"issues"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode issues: %w", err)
		}
		return envelope.Issues, nil
	}

	var issues []models.Issue
	if err := json.Unmarshal(trimmed, &issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues: %w", err)
	}
	return issues, nil
}

// CreateIssue submits a new issue and returns the created record.
func (c *Client) CreateIssue(ctx context.Context, issue models.NewIssue) (models.Issue, error) {
	payload, err := json.Marshal(issue)
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to encode issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+issuesPath, bytes.NewReader(payload))
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to submit issue: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Issue{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, submitFailedMessage)}
	}

	var created models.Issue
	if err := json.Unmarshal(body, &created); err != nil {
		return models.Issue{}, fmt.Errorf("failed to decode created issue: %w", err)
	}
	return created, nil
}

// errorMessage extracts {"error": "..."} from a failure body.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || strings.TrimSpace(payload.Error) == "" {
		return fallback
	}
	return payload.Error
}
