package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opnlab/query-proxy/internal/config"
	"github.com/opnlab/query-proxy/internal/executor"
	"github.com/opnlab/query-proxy/internal/metrics"
	"github.com/opnlab/query-proxy/internal/models"
	"github.com/opnlab/query-proxy/internal/store"
	"github.com/opnlab/query-proxy/internal/trace"
)

// promauto registers against the default registry, so the collector is
// shared across tests.
var testCollector = metrics.NewCollector()

func setupTestRouter(t *testing.T) (*mux.Router, *store.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Entry{}, &models.AccessLog{}, &models.QueryTrace{}))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := config.Load()
	st := store.New(logger, db)
	h := New(logger, cfg, st, executor.New(logger), trace.NewRecorder(logger, db, nil), testCollector)

	r := mux.NewRouter()
	RegisterRoutes(r, h)
	return r, st
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListFQDNs(t *testing.T) {
	r, st := setupTestRouter(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, models.Entry{FQDN: "b.com"}))
	require.NoError(t, st.Upsert(ctx, models.Entry{FQDN: "a.com"}))

	w := doJSON(t, r, http.MethodGet, "/api/fqdns", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []struct {
		FQDN string `json:"fqdn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "a.com", items[0].FQDN)
	assert.Equal(t, "b.com", items[1].FQDN)
}

func TestListFQDNs_Empty(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/fqdns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestGetEntry_MissingParam(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/query_data", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetEntry_StubForUnknown(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/query_data?fqdn=missing.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entry models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "missing.com", entry.FQDN)
	assert.Equal(t, "", entry.UserMail)
}

func TestSaveAndGetEntry(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/save_query_data", map[string]string{
		"fqdn":          "api.example.com",
		"user_mail":     "ops@example.com",
		"user_password": "secret",
		"parameters":    "/series?limit=10",
		"comments":      "nightly export",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message")

	w = doJSON(t, r, http.MethodGet, "/api/query_data?fqdn=api.example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entry models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "ops@example.com", entry.UserMail)
	assert.Equal(t, "nightly export", entry.Comments)
	assert.False(t, entry.LastUpdated.IsZero())
}

func TestSaveEntry_MissingFQDN(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/save_query_data", map[string]string{
		"comments": "no key",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	r, st := setupTestRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/query_data/missing.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, st.Upsert(context.Background(), models.Entry{FQDN: "a.com"}))
	w = doJSON(t, r, http.MethodDelete, "/api/query_data/a.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	entry, err := st.Get(context.Background(), "a.com")
	require.NoError(t, err)
	assert.Equal(t, "", entry.UserMail)
}

func TestHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Connected", body["database"])
}

func TestExecuteQuery_MissingFieldSkipsUpstream(t *testing.T) {
	r, _ := setupTestRouter(t)

	var hits int64
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()
	fqdn := strings.TrimPrefix(srv.URL, "https://")

	w := doJSON(t, r, http.MethodPost, "/api/execute_query", map[string]interface{}{
		"fqdn":       fqdn,
		"user_mail":  "ops@example.com",
		"parameters": "/series",
		// user_password intentionally absent
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user_password")
	assert.EqualValues(t, 0, atomic.LoadInt64(&hits))
}

func TestExecuteQuery_ValidatesEachRequiredField(t *testing.T) {
	r, _ := setupTestRouter(t)

	base := map[string]interface{}{
		"fqdn":          "a.com",
		"user_mail":     "u",
		"user_password": "p",
		"parameters":    "/x",
	}

	for _, field := range []string{"fqdn", "user_mail", "user_password", "parameters"} {
		t.Run(field, func(t *testing.T) {
			body := map[string]interface{}{}
			for k, v := range base {
				if k != field {
					body[k] = v
				}
			}
			w := doJSON(t, r, http.MethodPost, "/api/execute_query", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), field)
		})
	}
}

func TestExecuteQuery_TransportFailureMapsTo500(t *testing.T) {
	r, st := setupTestRouter(t)

	// The executor's real transport will not trust the test server's
	// certificate, which surfaces as a transport failure.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	defer srv.Close()
	fqdn := strings.TrimPrefix(srv.URL, "https://")

	w := doJSON(t, r, http.MethodPost, "/api/execute_query", map[string]interface{}{
		"fqdn":          fqdn,
		"user_mail":     "ops@example.com",
		"user_password": "secret",
		"parameters":    "/series",
		"timeout":       5,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	// The entry was persisted before the call was attempted.
	entry, err := st.Get(context.Background(), fqdn)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", entry.UserMail)
}

func TestExecuteQuery_InvalidBody(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/execute_query", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
