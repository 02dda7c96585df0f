package optimizer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarag/finboard/internal/domain"
)

func setupTestRouter(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()

	svc := setupTestService(t)
	handler := NewHandler(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.Routes(r)
	})
	return r, svc
}

func TestHandleRun(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, err := json.Marshal(RunInput{
		Portfolio:      twoBrokerPortfolio(),
		BrokerProfiles: testProfiles(),
		Deviations:     testDeviations(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/optimizer/run", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Recommendations)
}

func TestHandleRun_InvalidBody(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/optimizer/run", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetPending(t *testing.T) {
	router, svc := setupTestRouter(t)

	_, err := svc.Run(RunInput{
		Portfolio:      twoBrokerPortfolio(),
		BrokerProfiles: testProfiles(),
		Deviations:     testDeviations(),
		Now:            refNow,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations/pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Recommendations)
}

func TestHandleUpdateStatus(t *testing.T) {
	router, svc := setupTestRouter(t)

	_, err := svc.Run(RunInput{
		Portfolio:      twoBrokerPortfolio(),
		BrokerProfiles: testProfiles(),
		Deviations:     testDeviations(),
		Now:            refNow,
	})
	require.NoError(t, err)

	pending, err := svc.Ledger().Pending()
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	id := pending[0].ID

	req := httptest.NewRequest(http.MethodPost, "/api/recommendations/"+id+"/status",
		bytes.NewReader([]byte(`{"status":"accepted"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	accepted, err := svc.Ledger().Accepted()
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, id, accepted[0].ID)
}

func TestHandleUpdateStatus_UnknownID(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recommendations/ghost/status",
		bytes.NewReader([]byte(`{"status":"dismissed"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpdateStatus_InvalidStatus(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recommendations/x/status",
		bytes.NewReader([]byte(`{"status":"executed"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
