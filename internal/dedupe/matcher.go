// Package dedupe partitions candidate contacts against the existing
// collection. The scan is a deliberate O(n·m) linear pass: first match wins
// and order is stable, which is observable behavior the review UI depends
// on. Do not replace it with a hash lookup.
package dedupe

import (
	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/fieldnorm"
)

// Partition is the result of classifying one candidate batch.
type Partition struct {
	Safe      []domain.CandidateContact
	Conflicts []domain.Conflict
}

// PartitionCandidates classifies each candidate against the existing
// collection. A candidate conflicts with the first existing contact whose
// normalized email matches (candidate email non-empty) or whose phone digit
// sequence matches (candidate phone non-empty). Candidates are never matched
// against each other within the same batch.
func PartitionCandidates(candidates []domain.CandidateContact, existing []domain.Contact) Partition {
	var p Partition
	for _, cand := range candidates {
		if match := firstMatch(cand, existing); match != nil {
			p.Conflicts = append(p.Conflicts, domain.Conflict{
				Candidate:  cand,
				Existing:   match,
				Resolution: domain.ResolutionPending,
			})
			continue
		}
		p.Safe = append(p.Safe, cand)
	}
	return p
}

// Matches reports whether a candidate duplicates an existing contact under
// the normalization rules: email OR phone, never requiring both.
func Matches(cand domain.CandidateContact, c domain.Contact) bool {
	if fieldnorm.SameEmail(cand.Email, c.Email) {
		return true
	}
	return fieldnorm.SamePhone(cand.Phone, c.Phone)
}

func firstMatch(cand domain.CandidateContact, existing []domain.Contact) *domain.Contact {
	for i := range existing {
		if Matches(cand, existing[i]) {
			found := existing[i]
			return &found
		}
	}
	return nil
}
