package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/tgscope/internal/archive"
	"github.com/pders01/tgscope/internal/client"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(index Index, translator Translator) *Server {
	svc := NewService(index, translator, nil, 10, 50)
	return New(NewHandler(svc, nil), zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_Search(t *testing.T) {
	index := &fakeIndex{hits: map[string][]archive.Hit{"runway": hitsFor("ops", 12)}}
	h := newTestServer(index, nil).Handler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantPage   int
		wantCount  int
	}{
		{"missing query", `{"languages":["en"],"page":1}`, http.StatusBadRequest, msgQueryMissing, 0, 0},
		{"blank query", `{"q":"  ","page":1}`, http.StatusBadRequest, msgQueryMissing, 0, 0},
		{"malformed body", `{"q":`, http.StatusBadRequest, msgQueryMissing, 0, 0},
		{"first page", `{"q":"runway","languages":["en"],"page":1}`, http.StatusOK, "", 1, 10},
		{"second page", `{"q":"runway","languages":["en"],"page":2}`, http.StatusOK, "", 2, 2},
		{"page omitted", `{"q":"runway"}`, http.StatusOK, "", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/search", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp client.SearchResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantPage, resp.Page)
				assert.Equal(t, 2, resp.TotalPages)
				assert.Len(t, resp.Results, tt.wantCount)
			}
		})
	}
}

func TestHandler_SearchIndexFailure(t *testing.T) {
	h := newTestServer(&fakeIndex{err: assert.AnError}, nil).Handler()

	w := do(t, h, http.MethodPost, "/search", `{"q":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"search failed"}`, w.Body.String())
}

func TestHandler_Translate(t *testing.T) {
	translator := &mapTranslator{table: map[string]string{"de": "hallo"}}
	h := newTestServer(&fakeIndex{}, translator).Handler()

	w := do(t, h, http.MethodPost, "/translate", `{"text":"hello","target_lang":"de"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"translated_text":"hallo"}`, w.Body.String())

	for _, body := range []string{`{"text":"hello"}`, `{"target_lang":"de"}`, `nope`} {
		w = do(t, h, http.MethodPost, "/translate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Text or target language not provided"}`, w.Body.String(), body)
	}

	w = do(t, h, http.MethodPost, "/translate", `{"text":"hello","target_lang":"xx"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_TranslateDisabled(t *testing.T) {
	h := newTestServer(&fakeIndex{}, nil).Handler()

	w := do(t, h, http.MethodPost, "/translate", `{"text":"hello","target_lang":"de"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_HealthAndLanguages(t *testing.T) {
	h := newTestServer(&fakeIndex{}, nil).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/languages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Languages []struct {
			Code string `json:"code"`
		} `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Languages)
	assert.Equal(t, "en", body.Languages[0].Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(&fakeIndex{}, nil, nil, 10, 50)
	h := New(NewHandler(svc, nil), zerolog.New(&buf)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status":200`)

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get(headerRequestID), 36)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv := newTestServer(&fakeIndex{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
