package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/contact-engine/internal/domain"
)

// Client talks to a remote contact store over HTTP. Persistence calls are
// never retried automatically; failures surface to the caller, which decides
// whether the user re-triggers the action.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientConfig holds remote-store connection settings.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a remote-store client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// errorPayload is the backend's error envelope.
type errorPayload struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store request %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read store response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload errorPayload
		if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
			return &RequestError{
				Message: payload.Message,
				Fields:  TranslateFieldErrors(payload.Errors),
			}
		}
		return &RequestError{Message: fmt.Sprintf("store returned status %d", resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode store response: %w", err)
		}
	}
	return nil
}

// List fetches the full contact collection.
func (c *Client) List(ctx context.Context) ([]domain.Contact, error) {
	var out struct {
		Contacts []domain.Contact `json:"contacts"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/contacts", nil, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// Create persists a single contact, bypassing duplicate classification.
func (c *Client) Create(ctx context.Context, cand domain.CandidateContact) (domain.Contact, error) {
	var out domain.Contact
	if err := c.doRequest(ctx, http.MethodPost, "/contacts", cand, &out); err != nil {
		return domain.Contact{}, err
	}
	return out, nil
}

// batchResponse mirrors the backend's batch-create envelope.
type batchResponse struct {
	Created    []domain.Contact `json:"created"`
	Duplicates []struct {
		Input    domain.CandidateContact `json:"input"`
		Existing *domain.Contact         `json:"existing,omitempty"`
	} `json:"duplicates"`
	Errors []struct {
		Input  domain.CandidateContact `json:"input"`
		Reason string                  `json:"reason"`
		Fields map[string]string       `json:"fields,omitempty"`
	} `json:"errors"`
}

// CreateBatch persists a batch and returns the authoritative classification.
// The response is rejected if the three buckets do not account for every
// input candidate.
func (c *Client) CreateBatch(ctx context.Context, cands []domain.CandidateContact) (domain.BatchResult, error) {
	body := map[string]interface{}{"contacts": cands}
	var resp batchResponse
	if err := c.doRequest(ctx, http.MethodPost, "/contacts/batch", body, &resp); err != nil {
		return domain.BatchResult{}, err
	}

	result := domain.BatchResult{Created: resp.Created}
	for _, d := range resp.Duplicates {
		result.Duplicates = append(result.Duplicates, domain.BatchDuplicate{
			Candidate: d.Input,
			Existing:  d.Existing,
		})
	}
	for _, e := range resp.Errors {
		result.Errors = append(result.Errors, domain.BatchError{
			Candidate: e.Input,
			Reason:    e.Reason,
			Fields:    TranslateFieldErrors(e.Fields),
		})
	}

	if result.Total() != len(cands) {
		return domain.BatchResult{}, fmt.Errorf(
			"store classified %d of %d candidates; batch responses must account for every input",
			result.Total(), len(cands))
	}
	return result, nil
}

// Update applies a field-level update to an existing contact.
func (c *Client) Update(ctx context.Context, id string, fields map[string]string) (domain.Contact, error) {
	var out domain.Contact
	if err := c.doRequest(ctx, http.MethodPut, "/contacts/"+id, fields, &out); err != nil {
		return domain.Contact{}, err
	}
	return out, nil
}

// UpdateBatch applies the same field update to several contacts.
func (c *Client) UpdateBatch(ctx context.Context, ids []string, fields map[string]string) ([]domain.Contact, error) {
	body := map[string]interface{}{"ids": ids, "fields": fields}
	var out struct {
		Contacts []domain.Contact `json:"contacts"`
	}
	if err := c.doRequest(ctx, http.MethodPut, "/contacts/batch", body, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// Delete removes a single contact.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, "/contacts/"+id, nil, nil)
}

// DeleteBatch removes several contacts in one call.
func (c *Client) DeleteBatch(ctx context.Context, ids []string) error {
	body := map[string]interface{}{"ids": ids}
	return c.doRequest(ctx, http.MethodPost, "/contacts/batch-delete", body, nil)
}
