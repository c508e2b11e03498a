package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/seminote/seminote/internal/profile"
	"github.com/seminote/seminote/server"
	"github.com/seminote/seminote/server/ai"
	storetest "github.com/seminote/seminote/store/test"
)

type testServer struct {
	srv *server.Server
}

func newTestServer(t *testing.T) *testServer {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	p := &profile.Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())

	return &testServer{srv: server.NewServer(p, ts, ai.NewStubEncoder(8))}
}

func (s *testServer) do(t *testing.T, method, path string, owner *uuid.UUID, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != nil {
		req.Header.Set("X-Owner-ID", owner.String())
	}
	rec := httptest.NewRecorder()
	s.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeNote(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["detail"]
}

func TestCreateAndGetNote(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()

	rec := s.do(t, http.MethodPost, "/api/v1/notes", &owner,
		`{"name": "groceries", "content": "milk and eggs", "tags": ["t1", "t2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	created := decodeNote(t, rec)
	require.Equal(t, "groceries", created["name"])
	require.Equal(t, "milk and eggs", created["content"])
	require.Len(t, created["tags"], 2)

	id := created["id"].(string)
	rec = s.do(t, http.MethodGet, "/api/v1/notes/"+id, &owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeNote(t, rec)
	require.Equal(t, id, got["id"])
	require.Len(t, got["tags"], 2)
}

func TestOwnerIdentityRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/notes", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing owner identity", detailOf(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	req.Header.Set("X-Owner-ID", "not-a-uuid")
	rec = httptest.NewRecorder()
	s.srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid owner identity", detailOf(t, rec))
}

func TestGetNoteNotFound(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()
	id := uuid.New()

	rec := s.do(t, http.MethodGet, "/api/v1/notes/"+id.String(), &owner, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, fmt.Sprintf("Note %s was not found.", id), detailOf(t, rec))
}

func TestGetNoteForbidden(t *testing.T) {
	s := newTestServer(t)
	alice, bob := uuid.New(), uuid.New()

	rec := s.do(t, http.MethodPost, "/api/v1/notes", &alice, `{"name": "private"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeNote(t, rec)["id"].(string)

	rec = s.do(t, http.MethodGet, "/api/v1/notes/"+id, &bob, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "You have access only to your notes. This one is not yours.", detailOf(t, rec))
}

func TestNoteValidation(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()

	// Empty name.
	rec := s.do(t, http.MethodPost, "/api/v1/notes", &owner, `{"name": "", "content": "x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Name over 255 bytes.
	rec = s.do(t, http.MethodPost, "/api/v1/notes", &owner,
		fmt.Sprintf(`{"name": %q}`, strings.Repeat("a", 256)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Content over 10000 bytes.
	rec = s.do(t, http.MethodPost, "/api/v1/notes", &owner,
		fmt.Sprintf(`{"name": "n", "content": %q}`, strings.Repeat("a", 10001)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Empty tag name.
	rec = s.do(t, http.MethodPost, "/api/v1/notes", &owner, `{"name": "n", "tags": [""]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Malformed path id.
	rec = s.do(t, http.MethodGet, "/api/v1/notes/not-a-uuid", &owner, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "malformed id", detailOf(t, rec))

	// Non-numeric and out-of-range paging parameters.
	rec = s.do(t, http.MethodGet, "/api/v1/notes?offset=abc", &owner, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/notes?limit=-1", &owner, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/notes?offset=10001", &owner, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "offset out of range", detailOf(t, rec))
}

func TestPatchNote(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()

	rec := s.do(t, http.MethodPost, "/api/v1/notes", &owner,
		`{"name": "groceries", "tags": ["t1", "t2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeNote(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/v1/notes/"+id, &owner, `{"tags": ["t1"]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notes/"+id, &owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeNote(t, rec)
	require.Equal(t, "groceries", got["name"])
	require.Len(t, got["tags"], 1)

	// An empty patch body succeeds without changing anything.
	rec = s.do(t, http.MethodPatch, "/api/v1/notes/"+id, &owner, `{}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteNote(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()

	rec := s.do(t, http.MethodPost, "/api/v1/notes", &owner, `{"name": "ephemeral"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeNote(t, rec)["id"].(string)

	rec = s.do(t, http.MethodDelete, "/api/v1/notes/"+id, &owner, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notes/"+id, &owner, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListNotes(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()

	for _, name := range []string{"alpha report", "beta report", "gamma memo"} {
		rec := s.do(t, http.MethodPost, "/api/v1/notes", &owner,
			fmt.Sprintf(`{"name": %q}`, name))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// No query: all notes, most recent first.
	rec := s.do(t, http.MethodGet, "/api/v1/notes", &owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)

	// Semantic query: notes sharing tokens with the query rank above the
	// stub encoder threshold; unrelated notes may drop out.
	rec = s.do(t, http.MethodGet, "/api/v1/notes?q=alpha+report", &owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	require.Equal(t, "alpha report", list[0]["name"])

	// Pagination clamps to what exists.
	rec = s.do(t, http.MethodGet, "/api/v1/notes?offset=2&limit=5", &owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func decodeTags(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	return list
}

func TestTagEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice, bob := uuid.New(), uuid.New()

	rec := s.do(t, http.MethodPost, "/api/v1/tags", &alice, `{"name": "work"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeNote(t, rec)
	require.Equal(t, "work", created["name"])
	id := created["id"].(string)

	rec = s.do(t, http.MethodGet, "/api/v1/tags", &alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeTags(t, rec), 1)

	// Foreign tag reads are refused, not hidden.
	rec = s.do(t, http.MethodGet, "/api/v1/tags/"+id, &bob, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "You have access only to your tags. This one is not yours.", detailOf(t, rec))

	rec = s.do(t, http.MethodPatch, "/api/v1/tags/"+id, &alice, `{"name": "office"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/tags/"+id, &alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "office", decodeNote(t, rec)["name"])

	rec = s.do(t, http.MethodDelete, "/api/v1/tags/"+id, &alice, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	missing := uuid.New()
	rec = s.do(t, http.MethodGet, "/api/v1/tags/"+missing.String(), &alice, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, fmt.Sprintf("Tag %s was not found.", missing), detailOf(t, rec))
}
