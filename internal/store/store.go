// Package store defines the persistent-store contract the engine consumes.
// The store owns contact records; the engine only holds a view. Two
// implementations exist: an HTTP client for a remote store (this package)
// and a Postgres repository (internal/repository/postgres).
package store

import (
	"context"
	"errors"

	"github.com/ignite/contact-engine/internal/domain"
)

// ErrNotFound is returned when an operation targets a contact id the store
// does not know.
var ErrNotFound = errors.New("contact not found")

// FieldErrors maps engine field names to per-field validation messages.
type FieldErrors map[string]string

// RequestError is a store-side rejection of a single operation. Fields is
// keyed by engine field names; translation from backend names happens at
// the client boundary.
type RequestError struct {
	Message string
	Fields  FieldErrors
}

func (e *RequestError) Error() string { return e.Message }

// Store is the persistent-store API. Batch operations never silently drop
// inputs: CreateBatch classifies every candidate into exactly one bucket of
// the result.
type Store interface {
	List(ctx context.Context) ([]domain.Contact, error)
	Create(ctx context.Context, cand domain.CandidateContact) (domain.Contact, error)
	CreateBatch(ctx context.Context, cands []domain.CandidateContact) (domain.BatchResult, error)
	Update(ctx context.Context, id string, fields map[string]string) (domain.Contact, error)
	UpdateBatch(ctx context.Context, ids []string, fields map[string]string) ([]domain.Contact, error)
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// backendFieldNames translates the backend's field keys to the engine's.
// The backend predates the engine and uses its own naming.
var backendFieldNames = map[string]string{
	"full_name":     "fullName",
	"phone_number":  "phone",
	"email_address": "email",
	"company_name":  "company",
	"job_title":     "jobTitle",
}

// TranslateFieldErrors converts a backend field-error map into engine field
// names. Unknown keys pass through unchanged.
func TranslateFieldErrors(backend map[string]string) FieldErrors {
	if len(backend) == 0 {
		return nil
	}
	out := make(FieldErrors, len(backend))
	for k, v := range backend {
		if name, ok := backendFieldNames[k]; ok {
			out[name] = v
			continue
		}
		out[k] = v
	}
	return out
}
