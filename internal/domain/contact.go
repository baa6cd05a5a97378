package domain

import "time"

// ContactSource enumerates where a contact record originated.
type ContactSource string

const (
	SourceOCR    ContactSource = "ocr"
	SourceForm   ContactSource = "form"
	SourceImport ContactSource = "import"
	SourceManual ContactSource = "manual"
)

// Consent enumerates the marketing-consent state of a contact.
type Consent string

const (
	ConsentOptIn   Consent = "opt-in"
	ConsentOptOut  Consent = "opt-out"
	ConsentUnknown Consent = "unknown"
)

// Contact is a persisted contact record. The ID is assigned by the store and
// immutable once created; the engine only ever holds a view of it.
type Contact struct {
	ID        string        `json:"id" db:"id"`
	FullName  string        `json:"full_name" db:"full_name"`
	Phone     string        `json:"phone" db:"phone"`
	Email     string        `json:"email" db:"email"`
	Company   string        `json:"company" db:"company"`
	JobTitle  string        `json:"job_title" db:"job_title"`
	Source    ContactSource `json:"source" db:"source"`
	Consent   Consent       `json:"consent" db:"consent"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// CandidateContact is a contact-shaped record that has not been persisted yet:
// the output of parsing, extraction, or manual entry, before reconciliation.
type CandidateContact struct {
	FullName string        `json:"full_name"`
	Phone    string        `json:"phone"`
	Email    string        `json:"email"`
	Company  string        `json:"company"`
	JobTitle string        `json:"job_title"`
	Source   ContactSource `json:"source"`
	Consent  Consent       `json:"consent"`
}

// IsBlank reports whether the candidate carries neither a name nor a phone.
// Blank rows are dropped during parsing rather than reported as errors.
func (c CandidateContact) IsBlank() bool {
	return c.FullName == "" && c.Phone == ""
}

// Resolution enumerates the outcome choices for a duplicate conflict.
type Resolution string

const (
	ResolutionPending Resolution = "pending"
	ResolutionSkip    Resolution = "skip"
	ResolutionMerge   Resolution = "merge"
	ResolutionAdd     Resolution = "add"
)

// Conflict pairs a candidate with the existing contact it matched.
// Existing may be nil when the store reported a duplicate without
// identifying the matching record; such conflicts are not resolvable
// in the UI and are treated as already-skipped.
type Conflict struct {
	Candidate  CandidateContact `json:"candidate"`
	Existing   *Contact         `json:"existing,omitempty"`
	Resolution Resolution       `json:"resolution"`
}

// Resolvable reports whether the conflict carries enough information for the
// user to choose an outcome.
func (c Conflict) Resolvable() bool { return c.Existing != nil }

// BatchDuplicate is one entry in the duplicates bucket of a batch result.
type BatchDuplicate struct {
	Candidate CandidateContact `json:"candidate"`
	Existing  *Contact         `json:"existing,omitempty"`
}

// BatchError is one entry in the errors bucket of a batch result. Fields maps
// engine field names to per-field messages when the store reported them.
type BatchError struct {
	Candidate CandidateContact  `json:"candidate"`
	Reason    string            `json:"reason"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// BatchResult is the authoritative classification of a batch create: every
// input candidate lands in exactly one of the three buckets.
type BatchResult struct {
	Created    []Contact        `json:"created"`
	Duplicates []BatchDuplicate `json:"duplicates"`
	Errors     []BatchError     `json:"errors"`
}

// Total returns the number of classified candidates across all buckets.
func (r BatchResult) Total() int {
	return len(r.Created) + len(r.Duplicates) + len(r.Errors)
}
