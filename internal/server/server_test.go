// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeformat/internal/crossref"
	"github.com/pdiddy/citeformat/pkg/types"
)

func rec(doi, family, title string) types.Record {
	return types.Record{
		DOI:            doi,
		Title:          []string{title},
		Author:         []types.Author{{Family: family, Given: "Ada"}},
		ContainerTitle: []string{"Journal of Tests"},
		Published:      &types.DateParts{DateParts: [][]int{{2021}}},
	}
}

// fakeResolver resolves DOI lines from byDOI and pends on "Ambiguous" lines.
type fakeResolver struct {
	byDOI map[string]types.Record
	fail  map[string]error
}

func (f *fakeResolver) Resolve(_ context.Context, q types.QueryDescriptor) (crossref.Resolution, error) {
	if err := f.fail[q.Raw]; err != nil {
		return crossref.Resolution{}, err
	}
	if q.IsDOI() {
		r, ok := f.byDOI[q.DOI]
		if !ok {
			return crossref.Resolution{Status: crossref.StatusUnresolved, Query: q, Reason: types.ReasonNotRetrieved}, nil
		}
		return crossref.Resolution{Status: crossref.StatusResolved, Query: q, Record: &r, DOI: r.DOI}, nil
	}
	if strings.HasPrefix(q.Raw, "Ambiguous") {
		return crossref.Resolution{Status: crossref.StatusNeedsSelection, Query: q, Candidates: []types.Record{
			rec("10.1000/c", "Gamma", "Ambiguous title"),
			rec("10.1000/d", "Delta", "Ambiguous title, revisited"),
		}}, nil
	}
	return crossref.Resolution{Status: crossref.StatusUnresolved, Query: q, Reason: types.ReasonNoResults}, nil
}

func (f *fakeResolver) Select(_ context.Context, res crossref.Resolution, sel crossref.Selection) (crossref.Resolution, error) {
	if sel.IsSkip() {
		return crossref.Resolution{Status: crossref.StatusUnresolved, Query: res.Query, Reason: types.ReasonSkipped}, nil
	}
	if sel.Index() < 0 || sel.Index() >= len(res.Candidates) {
		return crossref.Resolution{}, fmt.Errorf("%w: %d", crossref.ErrInvalidSelection, sel.Index()+1)
	}
	r := res.Candidates[sel.Index()]
	return crossref.Resolution{Status: crossref.StatusResolved, Query: res.Query, Record: &r, DOI: r.DOI}, nil
}

func newFake() *fakeResolver {
	return &fakeResolver{
		byDOI: map[string]types.Record{
			"10.1000/a": rec("10.1000/a", "Alpha", "First paper"),
			"10.1000/b": rec("10.1000/b", "Beta", "Second paper"),
		},
		fail: map[string]error{},
	}
}

type testEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Success bool            `json:"success"`
}

func newTestServer(t *testing.T, f *fakeResolver) *Server {
	t.Helper()
	out := types.OutputConfig{Style: "apa", Format: types.OutputMarkdown}
	stamp := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	return New(f, out, nil, WithClock(func() time.Time { return stamp }))
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) SessionState {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, env.Error)
	var st SessionState
	require.NoError(t, json.Unmarshal(env.Data, &st))
	return st
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	return env.Error
}

func createSession(t *testing.T, s *Server, lines ...string) SessionState {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/v1/sessions", CreateSessionRequest{Lines: lines})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeState(t, rec)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, newFake()), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStyles(t *testing.T) {
	rec := do(t, newTestServer(t, newFake()), http.MethodGet, "/v1/styles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var styles []StyleInfo
	require.NoError(t, json.Unmarshal(env.Data, &styles))

	require.Len(t, styles, 10)
	assert.Equal(t, StyleInfo{Number: 1, Key: "plain", Name: "Plain summary"}, styles[0])
	assert.Equal(t, StyleInfo{Number: 10, Key: "nature", Name: "Nature"}, styles[9])
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, newFake())

	st := createSession(t, s, "10.1000/a", "Ambiguous title | 2020", "10.1000/b")
	assert.Equal(t, "APA 7th", st.Style)
	assert.Equal(t, 3, st.Total)
	assert.False(t, st.Done)
	require.Len(t, st.Entries, 1)
	require.NotNil(t, st.Pending)
	assert.Equal(t, "Ambiguous title | 2020", st.Pending.Line)
	require.Len(t, st.Pending.Candidates, 2)
	assert.Equal(t, 2, st.Pending.Candidates[1].Number)
	assert.Equal(t, "Delta", st.Pending.Candidates[1].Authors)

	base := "/v1/sessions/" + st.ID.String()

	rec := do(t, s, http.MethodGet, base+"/document", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/selection", SelectionRequest{Index: 2, PendingID: st.Pending.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decodeState(t, rec)
	assert.True(t, st.Done)
	assert.Nil(t, st.Pending)
	require.Len(t, st.Entries, 3)
	for i, e := range st.Entries {
		assert.Equal(t, i+1, e.Ordinal)
	}
	assert.Equal(t, "10.1000/d", st.Entries[1].DOI)
	assert.Empty(t, st.Unresolved)

	rec = do(t, s, http.MethodGet, base+"/document?highlight=delta", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "# References\n\n*Citation style: APA 7th — generated 2026-03-04 09:30*"))
	assert.Contains(t, body, "2. **Delta, A.** (2021).")
	assert.Contains(t, body, "3. Beta, A. (2021).")
}

func TestDocumentFormats(t *testing.T) {
	s := newTestServer(t, newFake())
	st := createSession(t, s, "10.1000/a", "10.1000/b")
	require.True(t, st.Done)
	base := "/v1/sessions/" + st.ID.String() + "/document"

	t.Run("html restyled", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"?format=html&style=ieee&highlight=alpha,beta", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

		page, err := goquery.NewDocumentFromReader(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "References — IEEE", page.Find("title").Text())
		items := page.Find("li")
		require.Equal(t, 2, items.Length())
		assert.Equal(t, "A. Alpha", items.Eq(0).Find("strong").Text())
		assert.Equal(t, "A. Beta", items.Eq(1).Find("strong").Text())
	})

	t.Run("pdf", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"?format=pdf", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("csl", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"?format=csl", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "DOI: 10.1000/b")
	})

	t.Run("console", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"?format=console", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.NotContains(t, rec.Body.String(), "*")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"?format=docx", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown style", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, base+"?style=turabian", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSelectionErrors(t *testing.T) {
	s := newTestServer(t, newFake())
	st := createSession(t, s, "Ambiguous title | 2020")
	base := "/v1/sessions/" + st.ID.String() + "/selection"

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"out of range keeps line pending", SelectionRequest{Index: 5}, http.StatusUnprocessableEntity},
		{"zero index", SelectionRequest{}, http.StatusBadRequest},
		{"stale pending id", SelectionRequest{Index: 1, PendingID: uuid.New()}, http.StatusConflict},
		{"unknown field", map[string]any{"choice": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, base, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, s, http.MethodGet, "/v1/sessions/"+st.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeState(t, rec).Pending)
}

func TestSkip(t *testing.T) {
	s := newTestServer(t, newFake())
	st := createSession(t, s, "Ambiguous title | 2020", "10.1000/a")

	rec := do(t, s, http.MethodPost, "/v1/sessions/"+st.ID.String()+"/selection", SelectionRequest{Skip: true})
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeState(t, rec)

	assert.True(t, st.Done)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, 1, st.Entries[0].Ordinal)
	assert.Equal(t, []types.Unresolved{{Line: "Ambiguous title | 2020", Reason: types.ReasonSkipped}}, st.Unresolved)

	rec = do(t, s, http.MethodPost, "/v1/sessions/"+st.ID.String()+"/selection", SelectionRequest{Skip: true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorOf(t, rec), "no selection pending")
}

func TestCreateSessionErrors(t *testing.T) {
	s := newTestServer(t, newFake())

	tests := []struct {
		name string
		body any
		want string
	}{
		{"unknown style", CreateSessionRequest{Lines: []string{"10.1000/a"}, Style: "turabian"}, `unknown style "turabian"`},
		{"no lines", CreateSessionRequest{Text: "# only a comment\n\n"}, "no reference lines"},
		{"not json", "lines", "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorOf(t, rec), tt.want)
		})
	}
}

func TestCreateSessionFromText(t *testing.T) {
	s := newTestServer(t, newFake())
	rec := do(t, s, http.MethodPost, "/v1/sessions", CreateSessionRequest{
		Text:  "10.1000/a\nhttps://doi.org/10.1000/a\n",
		Style: "3",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	st := decodeState(t, rec)

	assert.Equal(t, "MLA 9th", st.Style)
	assert.True(t, st.Done)
	assert.Len(t, st.Entries, 1)
	assert.Equal(t, []types.Unresolved{{Line: "https://doi.org/10.1000/a", Reason: types.ReasonDuplicate}}, st.Unresolved)
}

func TestStalledSessionResumes(t *testing.T) {
	f := newFake()
	f.fail["10.1000/b"] = errors.New("connection reset")
	s := newTestServer(t, f)

	st := createSession(t, s, "10.1000/a", "10.1000/b")
	assert.False(t, st.Done)
	assert.Contains(t, st.Error, "connection reset")
	assert.Len(t, st.Entries, 1)

	delete(f.fail, "10.1000/b")
	rec := do(t, s, http.MethodGet, "/v1/sessions/"+st.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeState(t, rec)
	assert.True(t, st.Done)
	assert.Empty(t, st.Error)
	assert.Len(t, st.Entries, 2)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t, newFake())
	for _, path := range []string{
		"/v1/sessions/" + uuid.NewString(),
		"/v1/sessions/not-a-uuid",
		"/v1/sessions/" + uuid.NewString() + "/document",
	} {
		rec := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, newFake())
	st := createSession(t, s, "10.1000/a")
	path := "/v1/sessions/" + st.ID.String()

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, path, nil).Code)
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	out := types.OutputConfig{Style: "apa", Format: types.OutputMarkdown}
	s := New(newFake(), out, nil,
		WithClock(func() time.Time { return now }),
		WithSessionTTL(10*time.Minute),
	)

	idle := createSession(t, s, "10.1000/a")
	active := createSession(t, s, "10.1000/b")
	idlePath := "/v1/sessions/" + idle.ID.String()
	activePath := "/v1/sessions/" + active.ID.String()

	now = now.Add(8 * time.Minute)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, activePath, nil).Code)

	now = now.Add(8 * time.Minute)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, idlePath, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, activePath, nil).Code)

	now = now.Add(time.Hour)
	createSession(t, s, "10.1000/c")
	s.mu.Lock()
	assert.Len(t, s.sessions, 1)
	s.mu.Unlock()
}

func TestHighlightParams(t *testing.T) {
	got := highlightParams([]string{"hinton, lecun", "", " bengio "})
	assert.Equal(t, []string{"hinton", "lecun", "bengio"}, got)
	assert.Nil(t, highlightParams(nil))
}
