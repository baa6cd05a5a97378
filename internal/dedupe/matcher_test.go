package dedupe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/contact-engine/internal/domain"
)

func contact(id, name, phone, email string) domain.Contact {
	return domain.Contact{ID: id, FullName: name, Phone: phone, Email: email}
}

func TestPartitionCandidates_PhoneMatch(t *testing.T) {
	existing := []domain.Contact{
		contact("c1", "Existing", "6281234567890", "someone@example.com"),
	}
	candidates := []domain.CandidateContact{
		{FullName: "Jane Doe", Phone: "6281234567890"},
	}

	p := PartitionCandidates(candidates, existing)

	assert.Empty(t, p.Safe)
	require.Len(t, p.Conflicts, 1)
	assert.Equal(t, "c1", p.Conflicts[0].Existing.ID)
	assert.Equal(t, domain.ResolutionPending, p.Conflicts[0].Resolution)
}

func TestPartitionCandidates_EmailMatchIsCaseInsensitive(t *testing.T) {
	existing := []domain.Contact{
		contact("c1", "Existing", "111", "Jane.Doe@Example.com"),
	}
	candidates := []domain.CandidateContact{
		{FullName: "Jane", Phone: "999", Email: "jane.doe@example.com"},
	}

	p := PartitionCandidates(candidates, existing)
	require.Len(t, p.Conflicts, 1)
	assert.Empty(t, p.Safe)
}

func TestPartitionCandidates_PhoneComparesDigitsOnly(t *testing.T) {
	existing := []domain.Contact{
		contact("c1", "Existing", "+62 812-3456-7890", ""),
	}
	candidates := []domain.CandidateContact{
		{FullName: "Jane", Phone: "6281234567890"},
	}

	p := PartitionCandidates(candidates, existing)
	require.Len(t, p.Conflicts, 1)
}

func TestPartitionCandidates_EmptyFieldsNeverMatch(t *testing.T) {
	existing := []domain.Contact{
		contact("c1", "No contact info", "", ""),
	}
	candidates := []domain.CandidateContact{
		{FullName: "Also none", Phone: "", Email: ""},
	}

	p := PartitionCandidates(candidates, existing)
	assert.Len(t, p.Safe, 1)
	assert.Empty(t, p.Conflicts)
}

func TestPartitionCandidates_FirstMatchWins(t *testing.T) {
	existing := []domain.Contact{
		contact("first", "A", "123", ""),
		contact("second", "B", "123", ""),
	}
	candidates := []domain.CandidateContact{
		{FullName: "Dup", Phone: "123"},
	}

	p := PartitionCandidates(candidates, existing)
	require.Len(t, p.Conflicts, 1)
	assert.Equal(t, "first", p.Conflicts[0].Existing.ID)
}

func TestPartitionCandidates_CandidatesNotMatchedAgainstEachOther(t *testing.T) {
	candidates := []domain.CandidateContact{
		{FullName: "A", Phone: "123"},
		{FullName: "B", Phone: "123"},
	}

	p := PartitionCandidates(candidates, nil)
	assert.Len(t, p.Safe, 2)
	assert.Empty(t, p.Conflicts)
}

func TestPartitionCandidates_Totality(t *testing.T) {
	var existing []domain.Contact
	for i := 0; i < 10; i++ {
		existing = append(existing, contact(fmt.Sprintf("c%d", i), "X", fmt.Sprintf("555%04d", i), ""))
	}
	var candidates []domain.CandidateContact
	for i := 0; i < 25; i++ {
		candidates = append(candidates, domain.CandidateContact{
			FullName: "Y",
			Phone:    fmt.Sprintf("555%04d", i%15),
		})
	}

	p := PartitionCandidates(candidates, existing)
	assert.Equal(t, len(candidates), len(p.Safe)+len(p.Conflicts))
}

func TestPartitionCandidates_StableOrder(t *testing.T) {
	existing := []domain.Contact{contact("c1", "X", "100", "")}
	candidates := []domain.CandidateContact{
		{FullName: "safe1", Phone: "201"},
		{FullName: "dup1", Phone: "100"},
		{FullName: "safe2", Phone: "202"},
		{FullName: "dup2", Phone: "100"},
	}

	p := PartitionCandidates(candidates, existing)
	require.Len(t, p.Safe, 2)
	require.Len(t, p.Conflicts, 2)
	assert.Equal(t, "safe1", p.Safe[0].FullName)
	assert.Equal(t, "safe2", p.Safe[1].FullName)
	assert.Equal(t, "dup1", p.Conflicts[0].Candidate.FullName)
	assert.Equal(t, "dup2", p.Conflicts[1].Candidate.FullName)
}
