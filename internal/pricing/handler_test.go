package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	repo := NewMemoryRepository()
	engine := NewEngine(repo, slog.Default(), nil)
	svc := NewService(engine, repo, nil, slog.Default())
	return NewHandler(slog.Default(), svc, nil), svc
}

func newTestRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	h, svc := newTestHandler(t)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r, svc
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndList(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.True(t, created.IdealPrice.Equal(dec("28.57")), "ideal price = %s", created.IdealPrice)

	rec = doJSON(t, r, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Product A", listed[0].Name)
}

func TestHandlerCreateRejectsMarginTaxBound(t *testing.T) {
	r, _ := newTestRouter(t)

	bad := inputA()
	bad.DesiredMargin = dec("0.7")
	bad.TaxFraction = dec("0.3")
	rec := doJSON(t, r, http.MethodPost, "/api/products", bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "margin plus tax")
}

func TestHandlerCreateValidatesShape(t *testing.T) {
	r, _ := newTestRouter(t)

	bad := inputA()
	bad.Name = ""
	rec := doJSON(t, r, http.MethodPost, "/api/products", bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name")
}

func TestHandlerCreateRejectsInvalidJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetUpdateDelete(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/products/%d", created.ID)

	rec = doJSON(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	in := inputA()
	in.Category = "Beverages"
	rec = doJSON(t, r, http.MethodPut, path, in)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Beverages", updated.Category)

	rec = doJSON(t, r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerNotFoundAndBadID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/products/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/products/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/products/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDuplicateName(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerSummary(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/products/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var empty summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Equal(t, "no products", empty.Status)
	assert.Nil(t, empty.Summary)

	rec = doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/products/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var filled summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filled))
	assert.Equal(t, "ok", filled.Status)
	require.NotNil(t, filled.Summary)
	assert.Equal(t, int64(100), filled.Summary.UnitsTotal)
	assert.True(t, filled.Summary.BreakEven)
}

func TestHandlerOverview(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/products/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var overview struct {
		Products []Product       `json:"products"`
		Summary  summaryResponse `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	require.Len(t, overview.Products, 1)
	assert.Equal(t, "ok", overview.Summary.Status)
}

func TestHandlerRecomputeWithoutQueueRunsInline(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/products", inputA())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/products/recompute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recompute done")
}
