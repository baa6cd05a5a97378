// Package workflow drives the import wizard: a finite state machine from
// upload through processing, review, duplicate resolution, and the final
// summary. Sessions are independent; each holds its own rows, conflicts,
// and tallies until closed.
package workflow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/contact-engine/internal/domain"
)

// State is a wizard step. Closed is terminal and evicts the session.
type State string

const (
	StateUpload     State = "upload"
	StateProcessing State = "processing"
	StateReview     State = "review"
	StateDuplicates State = "duplicates"
	StateResults    State = "results"
	StateClosed     State = "closed"
)

var (
	ErrUnknownSession    = errors.New("unknown import session")
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	ErrAlreadyResolved   = errors.New("conflict already resolved")
	ErrBadAction         = errors.New("unsupported resolution action")
	ErrConflictIndex     = errors.New("conflict index out of range")
	ErrScanUnavailable   = errors.New("image scanning is not configured")
)

// ValidationError reports rows that failed client-side validation during
// confirm. Rows maps row index to field name to message; the session stays
// in review until every flagged field is fixed.
type ValidationError struct {
	Rows map[int]map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d row(s) failed validation", len(e.Rows))
}

// Session is one wizard run. All access goes through the Manager, which
// holds the session lock around every operation.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	state  State
	source domain.ContactSource

	// Review rows, replaced wholesale when the user confirms edits.
	rows      []domain.CandidateContact
	rowErrors map[int]map[string]string

	// Conflicts in the stable order the matcher produced them. Entries are
	// marked resolved in place; the list itself never reorders.
	conflicts []domain.Conflict

	// Last terminal parse/extraction failure, shown on the upload step.
	failure string

	// Tallies for the summary step.
	created           int
	duplicatesHandled int
	batchErrors       []domain.BatchError
}

func newSession(source domain.ContactSource) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		state:     StateUpload,
		source:    source,
		rowErrors: make(map[int]map[string]string),
	}
}

// Snapshot is the JSON-safe view of a session handed to the API layer.
type Snapshot struct {
	ID                string                    `json:"id"`
	State             State                     `json:"state"`
	Source            domain.ContactSource      `json:"source"`
	Rows              []domain.CandidateContact `json:"rows,omitempty"`
	RowErrors         map[int]map[string]string `json:"row_errors,omitempty"`
	Conflicts         []domain.Conflict         `json:"conflicts,omitempty"`
	Failure           string                    `json:"failure,omitempty"`
	Created           int                       `json:"created"`
	DuplicatesHandled int                       `json:"duplicates_handled"`
	Errors            []domain.BatchError       `json:"errors,omitempty"`
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                s.ID,
		State:             s.state,
		Source:            s.source,
		Failure:           s.failure,
		Created:           s.created,
		DuplicatesHandled: s.duplicatesHandled,
	}
	snap.Rows = append(snap.Rows, s.rows...)
	snap.Conflicts = append(snap.Conflicts, s.conflicts...)
	snap.Errors = append(snap.Errors, s.batchErrors...)
	if len(s.rowErrors) > 0 {
		snap.RowErrors = make(map[int]map[string]string, len(s.rowErrors))
		for i, fields := range s.rowErrors {
			copied := make(map[string]string, len(fields))
			for k, v := range fields {
				copied[k] = v
			}
			snap.RowErrors[i] = copied
		}
	}
	return snap
}

// pendingLocked counts conflicts still awaiting a resolution.
func (s *Session) pendingLocked() int {
	n := 0
	for _, c := range s.conflicts {
		if c.Resolution == domain.ResolutionPending {
			n++
		}
	}
	return n
}

// validateRows flags rows missing a name or phone. Returns nil when every
// row passes.
func validateRows(rows []domain.CandidateContact) map[int]map[string]string {
	flagged := make(map[int]map[string]string)
	for i, row := range rows {
		fields := make(map[string]string)
		if row.FullName == "" {
			fields["fullName"] = "name is required"
		}
		if row.Phone == "" {
			fields["phone"] = "phone is required"
		}
		if len(fields) > 0 {
			flagged[i] = fields
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	return flagged
}
