package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/contact-engine/internal/contacts"
	"github.com/ignite/contact-engine/internal/deletion"
	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/reconcile"
	"github.com/ignite/contact-engine/internal/store"
	"github.com/ignite/contact-engine/internal/workflow"
)

// memStore is an in-memory store.Store for handler tests. Every candidate is
// created unless its phone collides with an existing contact.
type memStore struct {
	nextID   int
	contacts map[string]domain.Contact
	deleted  []string
}

func newMemStore() *memStore {
	return &memStore{contacts: make(map[string]domain.Contact)}
}

func (m *memStore) List(ctx context.Context) ([]domain.Contact, error) {
	out := make([]domain.Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) Create(ctx context.Context, cand domain.CandidateContact) (domain.Contact, error) {
	m.nextID++
	c := domain.Contact{
		ID:       fmt.Sprintf("c-%d", m.nextID),
		FullName: cand.FullName,
		Phone:    cand.Phone,
		Email:    cand.Email,
		Company:  cand.Company,
		JobTitle: cand.JobTitle,
		Source:   cand.Source,
		Consent:  cand.Consent,
	}
	m.contacts[c.ID] = c
	return c, nil
}

func (m *memStore) CreateBatch(ctx context.Context, cands []domain.CandidateContact) (domain.BatchResult, error) {
	var result domain.BatchResult
	for _, cand := range cands {
		if existing, ok := m.byPhone(cand.Phone); ok {
			result.Duplicates = append(result.Duplicates, domain.BatchDuplicate{
				Candidate: cand,
				Existing:  &existing,
			})
			continue
		}
		created, _ := m.Create(ctx, cand)
		result.Created = append(result.Created, created)
	}
	return result, nil
}

func (m *memStore) byPhone(phone string) (domain.Contact, bool) {
	for _, c := range m.contacts {
		if phone != "" && c.Phone == phone {
			return c, true
		}
	}
	return domain.Contact{}, false
}

func (m *memStore) Update(ctx context.Context, id string, fields map[string]string) (domain.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return domain.Contact{}, store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "fullName":
			c.FullName = v
		case "phone":
			c.Phone = v
		case "email":
			c.Email = v
		case "company":
			c.Company = v
		case "jobTitle":
			c.JobTitle = v
		}
	}
	m.contacts[id] = c
	return c, nil
}

func (m *memStore) UpdateBatch(ctx context.Context, ids []string, fields map[string]string) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, id := range ids {
		c, err := m.Update(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.contacts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.contacts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) DeleteBatch(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := m.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(t *testing.T) (*Server, *memStore, *contacts.View) {
	t.Helper()
	ms := newMemStore()
	view := contacts.NewView(nil)
	reconciler := reconcile.New(ms, view)
	manager := workflow.NewManager(reconciler, nil, nil, nil)
	// Grace window longer than any test so commits never fire on their own.
	coordinator := deletion.NewCoordinator(view, ms, nil, time.Hour)
	t.Cleanup(coordinator.Shutdown)

	srv := NewServer(Options{
		Imports: manager,
		View:    view,
		Store:   ms,
		Deleter: coordinator,
	})
	return srv, ms, view
}

func multipartUpload(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestImportUploadToResults(t *testing.T) {
	srv, ms, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "contacts.csv",
		[]byte("Name,Phone,Email\nJane Doe,6281234567890,jane@example.com\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, workflow.StateReview, snap.State)
	require.Len(t, snap.Rows, 1)

	confirm, _ := json.Marshal(map[string]interface{}{"rows": snap.Rows})
	req = httptest.NewRequest(http.MethodPost, "/api/imports/"+snap.ID+"/confirm", bytes.NewReader(confirm))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, workflow.StateResults, snap.State)
	assert.Equal(t, 1, snap.Created)
	assert.Len(t, ms.contacts, 1)
}

func TestImportUploadRejectsUnknownExtension(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "contacts.pdf", []byte("not a spreadsheet"))
	req := httptest.NewRequest(http.MethodPost, "/api/imports/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body2 map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body2))
	assert.Equal(t, "unsupported_format", body2["reason"])
}

func TestScanRejectsNonImagePayload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "card.png", []byte("definitely not a png"))
	req := httptest.NewRequest(http.MethodPost, "/api/imports/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionUnknownReturns404(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteThenUndoRestoresContact(t *testing.T) {
	srv, ms, view := newTestServer(t)

	created, err := ms.Create(context.Background(), domain.CandidateContact{FullName: "Jane", Phone: "123"})
	require.NoError(t, err)
	view.Add(created)

	payload, _ := json.Marshal(map[string]interface{}{"ids": []string{created.ID}})
	req := httptest.NewRequest(http.MethodPost, "/api/contacts/delete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp struct {
		PendingID int64 `json:"pending_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Gone from the visible collection, still in the store.
	assert.Equal(t, 0, view.Len())
	assert.Len(t, ms.contacts, 1)

	undoURL := fmt.Sprintf("/api/contacts/delete/%d/undo", resp.PendingID)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, undoURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, view.Len())
	assert.Empty(t, ms.deleted)

	// A second undo finds nothing.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, undoURL, nil))
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestCreateContactDefaultsSource(t *testing.T) {
	srv, ms, view := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{"full_name": "Walk In", "phone": "555"})
	req := httptest.NewRequest(http.MethodPost, "/api/contacts/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.SourceManual, created.Source)
	assert.Equal(t, domain.ConsentUnknown, created.Consent)
	assert.Len(t, ms.contacts, 1)
	assert.Equal(t, 1, view.Len())
}

func TestUpdateContactUnknownID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{"company": "Acme"})
	req := httptest.NewRequest(http.MethodPut, "/api/contacts/ghost", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
