// Package reconcile merges authoritative store classifications back into the
// visible contact collection. The view is mutated only after the store call
// returns, so a transport failure leaves the collection untouched.
package reconcile

import (
	"context"
	"fmt"

	"github.com/ignite/contact-engine/internal/contacts"
	"github.com/ignite/contact-engine/internal/dedupe"
	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/store"
)

// Outcome is the engine-side interpretation of one batch create.
type Outcome struct {
	// Created contacts, already added to the visible collection.
	Created []domain.Contact
	// Conflicts are duplicates that carry the matching existing contact and
	// can be resolved in the UI, in the store's stable order.
	Conflicts []domain.Conflict
	// AutoSkipped counts duplicates whose existing contact the store could
	// not identify; they are treated as already-resolved skips.
	AutoSkipped int
	// Errors are candidates the store rejected, never added to the view.
	Errors []domain.BatchError
}

// Client orchestrates batch persistence against the store and keeps the
// visible collection consistent with the server's classification.
type Client struct {
	store store.Store
	view  *contacts.View
}

// New creates a reconciliation client.
func New(s store.Store, view *contacts.View) *Client {
	return &Client{store: s, view: view}
}

// CreateBatch partitions the candidates against the visible collection, then
// persists the safe ones and folds the store's classification into the view.
// Conflicts found locally keep the matcher's stable order and come first;
// duplicates only the store knows about follow. Fails only on
// transport/server error; a failed call mutates nothing.
func (c *Client) CreateBatch(ctx context.Context, cands []domain.CandidateContact) (*Outcome, error) {
	if len(cands) == 0 {
		return &Outcome{}, nil
	}

	partition := dedupe.PartitionCandidates(cands, c.view.All())
	out := &Outcome{Conflicts: partition.Conflicts}
	if len(partition.Safe) == 0 {
		return out, nil
	}

	result, err := c.store.CreateBatch(ctx, partition.Safe)
	if err != nil {
		return nil, fmt.Errorf("batch create: %w", err)
	}
	if result.Total() != len(partition.Safe) {
		return nil, fmt.Errorf("store classified %d of %d candidates", result.Total(), len(partition.Safe))
	}

	out.Created = result.Created
	out.Errors = result.Errors
	for _, created := range result.Created {
		c.view.Add(created)
	}
	for _, dup := range result.Duplicates {
		if dup.Existing == nil {
			out.AutoSkipped++
			continue
		}
		out.Conflicts = append(out.Conflicts, domain.Conflict{
			Candidate:  dup.Candidate,
			Existing:   dup.Existing,
			Resolution: domain.ResolutionPending,
		})
	}
	return out, nil
}

// MergeInto fills fields that are empty on the existing contact and
// non-empty on the candidate (company, job title, email), issuing a single
// field-level update. The candidate itself is never persisted. Returns the
// stored contact and whether an update was issued at all.
func (c *Client) MergeInto(ctx context.Context, existing domain.Contact, cand domain.CandidateContact) (domain.Contact, bool, error) {
	fields := make(map[string]string)
	if existing.Company == "" && cand.Company != "" {
		fields["company"] = cand.Company
	}
	if existing.JobTitle == "" && cand.JobTitle != "" {
		fields["jobTitle"] = cand.JobTitle
	}
	if existing.Email == "" && cand.Email != "" {
		fields["email"] = cand.Email
	}
	if len(fields) == 0 {
		return existing, false, nil
	}

	updated, err := c.store.Update(ctx, existing.ID, fields)
	if err != nil {
		return existing, false, fmt.Errorf("merge into %s: %w", existing.ID, err)
	}
	c.view.Replace(updated)
	return updated, true, nil
}

// ForceCreate persists the candidate as a new contact, bypassing duplicate
// checks, and adds it to the view.
func (c *Client) ForceCreate(ctx context.Context, cand domain.CandidateContact) (domain.Contact, error) {
	created, err := c.store.Create(ctx, cand)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("force create: %w", err)
	}
	c.view.Add(created)
	return created, nil
}
