// Package extraction wraps the optical-recognition collaborator. The
// upstream service either returns structured rows or fails; every failure
// mode collapses into the single ErrExtractionFailed condition, regardless
// of the underlying cause.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/pkg/httpretry"
)

// ErrExtractionFailed is the opaque failure condition for extraction. The
// workflow treats it as recoverable by retrying from the upload step.
var ErrExtractionFailed = errors.New("extraction failed")

// Row is one structured record recognized from an image.
type Row struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Company  string `json:"company"`
}

// Extractor is the collaborator contract consumed by the workflow.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]domain.CandidateContact, error)
}

// Client calls a remote extraction service. Transport-level retries happen
// inside the retry client; whatever survives them still surfaces as the one
// opaque failure.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates an extraction client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: 60 * time.Second,
		}, 2),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) { c.httpClient = client }

// Extract posts the image and returns candidate contacts with source "ocr".
func (c *Client) Extract(ctx context.Context, image []byte) ([]domain.CandidateContact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/extract", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(image)), nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: service returned status %d", ErrExtractionFailed, resp.StatusCode)
	}

	var payload struct {
		Rows []Row `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	out := make([]domain.CandidateContact, 0, len(payload.Rows))
	for _, r := range payload.Rows {
		out = append(out, domain.CandidateContact{
			FullName: r.FullName,
			Phone:    r.Phone,
			Email:    r.Email,
			Company:  r.Company,
			Source:   domain.SourceOCR,
			Consent:  domain.ConsentUnknown,
		})
	}
	return out, nil
}
