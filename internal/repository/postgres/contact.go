// Package postgres implements the store contract against PostgreSQL for
// standalone deployments where no remote contact store exists.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/fieldnorm"
	"github.com/ignite/contact-engine/internal/store"
)

// ContactRepo implements store.Store against PostgreSQL.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = `id, full_name, phone, email, company, job_title, source, consent, created_at, updated_at`

func scanContact(row interface{ Scan(...interface{}) error }) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email, &c.Company,
		&c.JobTitle, &c.Source, &c.Consent, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns the full collection in creation order.
func (r *ContactRepo) List(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a single contact without duplicate classification.
func (r *ContactRepo) Create(ctx context.Context, cand domain.CandidateContact) (domain.Contact, error) {
	source := cand.Source
	if source == "" {
		source = domain.SourceManual
	}
	consent := cand.Consent
	if consent == "" {
		consent = domain.ConsentUnknown
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO contacts (id, full_name, phone, email, company, job_title, source, consent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+contactColumns,
		uuid.New().String(), cand.FullName, cand.Phone, cand.Email,
		cand.Company, cand.JobTitle, source, consent,
	)
	c, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

// CreateBatch classifies every candidate as created, duplicate, or error.
// Duplicate detection matches the engine rule: normalized email equality or
// phone digit-sequence equality against the earliest existing contact.
func (r *ContactRepo) CreateBatch(ctx context.Context, cands []domain.CandidateContact) (domain.BatchResult, error) {
	var result domain.BatchResult

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	// Each candidate runs inside its own savepoint. A failed statement
	// aborts the whole transaction in PostgreSQL, so without the rollback
	// one bad row would poison every row after it and the final commit.
	for _, cand := range cands {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT batch_sp"); err != nil {
			result.Errors = append(result.Errors, domain.BatchError{
				Candidate: cand,
				Reason:    fmt.Sprintf("savepoint failed: %v", err),
			})
			continue
		}

		existing, err := r.findMatch(ctx, tx, cand)
		if err != nil && err != sql.ErrNoRows {
			tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT batch_sp")
			result.Errors = append(result.Errors, domain.BatchError{
				Candidate: cand,
				Reason:    fmt.Sprintf("duplicate lookup failed: %v", err),
			})
			continue
		}
		if err == nil {
			tx.ExecContext(ctx, "RELEASE SAVEPOINT batch_sp")
			dup := existing
			result.Duplicates = append(result.Duplicates, domain.BatchDuplicate{
				Candidate: cand,
				Existing:  &dup,
			})
			continue
		}

		created, err := r.insertInTx(ctx, tx, cand)
		if err != nil {
			tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT batch_sp")
			result.Errors = append(result.Errors, domain.BatchError{
				Candidate: cand,
				Reason:    err.Error(),
			})
			continue
		}
		tx.ExecContext(ctx, "RELEASE SAVEPOINT batch_sp")
		result.Created = append(result.Created, created)
	}

	if err := tx.Commit(); err != nil {
		return domain.BatchResult{}, fmt.Errorf("commit batch: %w", err)
	}

	if result.Total() != len(cands) {
		return domain.BatchResult{}, fmt.Errorf(
			"batch classified %d of %d candidates", result.Total(), len(cands))
	}
	return result, nil
}

// findMatch returns the earliest existing contact duplicating the candidate.
func (r *ContactRepo) findMatch(ctx context.Context, tx *sql.Tx, cand domain.CandidateContact) (domain.Contact, error) {
	email := fieldnorm.NormalizeEmail(cand.Email)
	phone := fieldnorm.NormalizePhone(cand.Phone)

	row := tx.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE ($1 <> '' AND lower(email) = $1)
		   OR ($2 <> '' AND regexp_replace(phone, '[^0-9]', '', 'g') = $2)
		ORDER BY created_at, id
		LIMIT 1`,
		email, phone,
	)
	return scanContact(row)
}

func (r *ContactRepo) insertInTx(ctx context.Context, tx *sql.Tx, cand domain.CandidateContact) (domain.Contact, error) {
	source := cand.Source
	if source == "" {
		source = domain.SourceImport
	}
	consent := cand.Consent
	if consent == "" {
		consent = domain.ConsentUnknown
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO contacts (id, full_name, phone, email, company, job_title, source, consent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING `+contactColumns,
		uuid.New().String(), cand.FullName, cand.Phone, cand.Email,
		cand.Company, cand.JobTitle, source, consent,
	)
	return scanContact(row)
}

// columnNames restricts field-level updates to known columns.
var columnNames = map[string]string{
	"fullName": "full_name",
	"phone":    "phone",
	"email":    "email",
	"company":  "company",
	"jobTitle": "job_title",
	"consent":  "consent",
}

// Update applies a field-level update and returns the stored row.
func (r *ContactRepo) Update(ctx context.Context, id string, fields map[string]string) (domain.Contact, error) {
	set := ""
	args := []interface{}{id}
	for field, value := range fields {
		col, ok := columnNames[field]
		if !ok {
			return domain.Contact{}, &store.RequestError{
				Message: "unknown field " + field,
				Fields:  store.FieldErrors{field: "unknown field"},
			}
		}
		args = append(args, value)
		set += fmt.Sprintf("%s = $%d, ", col, len(args))
	}
	if set == "" {
		return domain.Contact{}, &store.RequestError{Message: "no fields to update"}
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE contacts SET `+set+`updated_at = NOW() WHERE id = $1 RETURNING `+contactColumns,
		args...,
	)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return domain.Contact{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Contact{}, fmt.Errorf("update contact %s: %w", id, err)
	}
	return c, nil
}

// UpdateBatch applies the same field update to several contacts.
func (r *ContactRepo) UpdateBatch(ctx context.Context, ids []string, fields map[string]string) ([]domain.Contact, error) {
	out := make([]domain.Contact, 0, len(ids))
	for _, id := range ids {
		c, err := r.Update(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Delete removes a single contact.
func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteBatch removes several contacts in one statement.
func (r *ContactRepo) DeleteBatch(ctx context.Context, ids []string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete %d contacts: %w", len(ids), err)
	}
	return nil
}

// Ping verifies connectivity with a short deadline, used at startup.
func (r *ContactRepo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
