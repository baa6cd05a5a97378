package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/extraction"
	"github.com/ignite/contact-engine/internal/notify"
	"github.com/ignite/contact-engine/internal/pkg/logger"
	"github.com/ignite/contact-engine/internal/progress"
	"github.com/ignite/contact-engine/internal/reconcile"
	"github.com/ignite/contact-engine/internal/tabular"
)

// Reconciler is the slice of the reconciliation client the workflow needs.
type Reconciler interface {
	CreateBatch(ctx context.Context, cands []domain.CandidateContact) (*reconcile.Outcome, error)
	MergeInto(ctx context.Context, existing domain.Contact, cand domain.CandidateContact) (domain.Contact, bool, error)
	ForceCreate(ctx context.Context, cand domain.CandidateContact) (domain.Contact, error)
}

// Manager owns all live import sessions.
type Manager struct {
	reconciler Reconciler
	extractor  extraction.Extractor
	notifier   notify.Notifier
	tracker    *progress.Tracker

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. notifier may be nil.
func NewManager(r Reconciler, ex extraction.Extractor, n notify.Notifier, tracker *progress.Tracker) *Manager {
	if n == nil {
		n = notify.Nop{}
	}
	return &Manager{
		reconciler: r,
		extractor:  ex,
		notifier:   n,
		tracker:    tracker,
		sessions:   make(map[string]*Session),
	}
}

// Get returns a snapshot of the session, or ErrUnknownSession.
func (m *Manager) Get(id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// StartImport runs upload → processing → review for a spreadsheet file.
// On parse failure the session resets to upload with the failure reason so
// the user may retry; the session itself survives.
func (m *Manager) StartImport(ctx context.Context, filename string, data []byte) (Snapshot, error) {
	if !tabular.SupportedExt(filename) {
		return Snapshot{}, &tabular.ParseError{
			Reason:  tabular.ReasonUnsupportedFormat,
			Message: fmt.Sprintf("file %q is not csv or xlsx", filename),
		}
	}

	s := newSession(domain.SourceImport)
	m.register(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateProcessing

	rows, err := tabular.Parse(data, filename)
	if err != nil {
		s.state = StateUpload
		s.failure = err.Error()
		m.notifier.Error("import failed: " + err.Error())
		logger.Warn("import parse failed", "session", s.ID, "file", filename, "error", err.Error())
		return s.snapshotLocked(), err
	}

	s.rows = rows
	s.state = StateReview
	m.setProgress(ctx, s)
	logger.Info("import parsed", "session", s.ID, "file", filename, "rows", len(rows))
	return s.snapshotLocked(), nil
}

// StartScan runs the same flow for an OCR image. Extraction failures are
// opaque; the session resets to upload for retry.
func (m *Manager) StartScan(ctx context.Context, image []byte) (Snapshot, error) {
	// The extractor is optional wiring; without it there is nothing to
	// run the image through, so refuse before opening a session.
	if m.extractor == nil {
		return Snapshot{}, ErrScanUnavailable
	}

	s := newSession(domain.SourceOCR)
	m.register(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateProcessing

	rows, err := m.extractor.Extract(ctx, image)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("%w: no contacts recognized", extraction.ErrExtractionFailed)
	}
	if err != nil {
		s.state = StateUpload
		s.failure = err.Error()
		m.notifier.Error("could not read contacts from image")
		logger.Warn("extraction failed", "session", s.ID, "error", err.Error())
		return s.snapshotLocked(), err
	}

	s.rows = rows
	s.state = StateReview
	m.setProgress(ctx, s)
	logger.Info("scan extracted", "session", s.ID, "rows", len(rows))
	return s.snapshotLocked(), nil
}

// Confirm accepts the user-edited rows and runs the authoritative batch
// reconciliation. Validation failures keep the session in review with
// per-field flags; otherwise the session moves to duplicates when at least
// one resolvable conflict exists, or straight to results.
func (m *Manager) Confirm(ctx context.Context, id string, rows []domain.CandidateContact) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReview {
		return s.snapshotLocked(), ErrInvalidTransition
	}

	for i := range rows {
		if rows[i].Source == "" {
			rows[i].Source = s.source
		}
		if rows[i].Consent == "" {
			rows[i].Consent = domain.ConsentUnknown
		}
	}
	s.rows = rows

	if flagged := validateRows(rows); flagged != nil {
		s.rowErrors = flagged
		return s.snapshotLocked(), &ValidationError{Rows: flagged}
	}
	s.rowErrors = map[int]map[string]string{}

	outcome, err := m.reconciler.CreateBatch(ctx, rows)
	if err != nil {
		// Transport/server failure: nothing was merged, stay in review.
		m.notifier.Error("saving contacts failed: " + err.Error())
		return s.snapshotLocked(), err
	}

	s.created = len(outcome.Created)
	s.duplicatesHandled = outcome.AutoSkipped
	s.batchErrors = outcome.Errors
	s.conflicts = outcome.Conflicts

	if len(outcome.Errors) > 0 {
		m.notifier.Error(fmt.Sprintf("%d contact(s) could not be saved", len(outcome.Errors)))
	}
	if len(outcome.Created) > 0 {
		m.notifier.Success(fmt.Sprintf("%d contact(s) added", len(outcome.Created)))
	}

	if len(outcome.Conflicts) > 0 {
		s.state = StateDuplicates
	} else {
		s.state = StateResults
	}
	m.setProgress(ctx, s)
	return s.snapshotLocked(), nil
}

// Resolve applies one resolution to the conflict at index. A conflict can
// be resolved exactly once; resolving the last pending conflict moves the
// session to results.
func (m *Manager) Resolve(ctx context.Context, id string, index int, action domain.Resolution) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDuplicates {
		return s.snapshotLocked(), ErrInvalidTransition
	}
	if index < 0 || index >= len(s.conflicts) {
		return s.snapshotLocked(), ErrConflictIndex
	}
	if s.conflicts[index].Resolution != domain.ResolutionPending {
		return s.snapshotLocked(), ErrAlreadyResolved
	}

	if err := m.applyResolutionLocked(ctx, s, index, action); err != nil {
		return s.snapshotLocked(), err
	}

	if s.pendingLocked() == 0 {
		s.state = StateResults
	}
	m.setProgress(ctx, s)
	return s.snapshotLocked(), nil
}

// ResolveAll applies one bulk action (skip or add) to every pending
// conflict and moves the session straight to results.
func (m *Manager) ResolveAll(ctx context.Context, id string, action domain.Resolution) (Snapshot, error) {
	if action != domain.ResolutionSkip && action != domain.ResolutionAdd {
		return Snapshot{}, ErrBadAction
	}

	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDuplicates {
		return s.snapshotLocked(), ErrInvalidTransition
	}

	for i := range s.conflicts {
		if s.conflicts[i].Resolution != domain.ResolutionPending {
			continue
		}
		if err := m.applyResolutionLocked(ctx, s, i, action); err != nil {
			return s.snapshotLocked(), err
		}
	}

	s.state = StateResults
	m.setProgress(ctx, s)
	return s.snapshotLocked(), nil
}

// applyResolutionLocked performs the persistence side effects of one
// resolution and marks the conflict. Callers hold the session lock.
func (m *Manager) applyResolutionLocked(ctx context.Context, s *Session, index int, action domain.Resolution) error {
	conflict := &s.conflicts[index]

	switch action {
	case domain.ResolutionSkip:
		// No persistence call; the candidate is simply discarded.
		s.duplicatesHandled++
	case domain.ResolutionMerge:
		if conflict.Existing == nil {
			return ErrBadAction
		}
		if _, _, err := m.reconciler.MergeInto(ctx, *conflict.Existing, conflict.Candidate); err != nil {
			m.notifier.Error("merge failed: " + err.Error())
			return err
		}
		s.duplicatesHandled++
	case domain.ResolutionAdd:
		if _, err := m.reconciler.ForceCreate(ctx, conflict.Candidate); err != nil {
			m.notifier.Error("adding contact failed: " + err.Error())
			return err
		}
		s.created++
	default:
		return ErrBadAction
	}

	conflict.Resolution = action
	return nil
}

// Close acknowledges the results step and discards the session.
func (m *Manager) Close(ctx context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateResults {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = StateClosed
	s.mu.Unlock()

	m.evict(ctx, s)
	return nil
}

// Cancel abandons a session from any non-processing state.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateProcessing {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = StateClosed
	s.mu.Unlock()

	m.evict(ctx, s)
	return nil
}

// SessionCount reports how many sessions are live, for the health endpoint.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
}

func (m *Manager) evict(ctx context.Context, s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	m.tracker.Clear(ctx, s.ID)
}

func (m *Manager) setProgress(ctx context.Context, s *Session) {
	m.tracker.Set(ctx, s.ID, progress.Snapshot{
		State:      string(s.state),
		Processed:  len(s.rows),
		Created:    s.created,
		Duplicates: s.duplicatesHandled + s.pendingLocked(),
		Errors:     len(s.batchErrors),
	})
}
