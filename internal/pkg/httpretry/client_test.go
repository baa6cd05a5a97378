package httpretry

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDoer returns one canned status per call.
type scriptedDoer struct {
	statuses []int
	calls    int
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	status := d.statuses[d.calls]
	d.calls++
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestDo_RetriesTransientStatusThenSucceeds(t *testing.T) {
	doer := &scriptedDoer{statuses: []int{http.StatusServiceUnavailable, http.StatusOK}}
	rc := NewRetryClient(doer, 2)
	rc.baseDelay = 0

	req, err := http.NewRequest(http.MethodGet, "http://example.test/v1/extract", nil)
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, doer.calls)
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	doer := &scriptedDoer{statuses: []int{http.StatusNotFound}}
	rc := NewRetryClient(doer, 3)

	req, err := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, doer.calls)
}

func TestDo_LastAttemptReturnsResponseAsIs(t *testing.T) {
	doer := &scriptedDoer{statuses: []int{
		http.StatusBadGateway, http.StatusBadGateway,
	}}
	rc := NewRetryClient(doer, 1)
	rc.baseDelay = 0

	req, err := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 2, doer.calls)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, isRetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404} {
		assert.False(t, isRetryableStatus(code), "status %d", code)
	}
}
