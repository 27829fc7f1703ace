package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agronexus/internal/dataset"
	apierrors "agronexus/internal/errors"
	"agronexus/internal/services"
)

type stubDashboardService struct {
	snap      *services.Snapshot
	season    *dataset.Table
	err       error
	lastQuery services.Query
	refreshed bool
	strict    bool
}

func (s *stubDashboardService) Dashboard(ctx context.Context, q services.Query) (*services.Snapshot, error) {
	s.lastQuery = q
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func (s *stubDashboardService) Refresh(ctx context.Context, strict bool) (*services.Snapshot, error) {
	s.refreshed = true
	s.strict = strict
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func (s *stubDashboardService) Season(ctx context.Context) (*dataset.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.season, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() *services.Snapshot {
	rain := dataset.NewSeries(dataset.ColRainfall)
	rain.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 12.5)
	rain.Set(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 3)
	t := dataset.MergeByDate(rain)

	return &services.Snapshot{
		Table:     t,
		Metrics:   dataset.Summarize(t),
		Sources:   map[string]string{"climate": services.SourceLive},
		Years:     []int{2024},
		FetchedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(stub *stubDashboardService) *DashboardHandler {
	logger := discardLogger()
	return NewDashboardHandler(stub, logger, apierrors.NewErrorHandler(logger, false))
}

func TestGetDashboard(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	table, ok := body["table"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), table["rows"])

	metrics, ok := body["metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 15.5, metrics["rainfall_total_mm"])
}

func TestGetDashboardParsesFilters(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/?years=2022,2024&from=2024-01-01&to=2024-06-30", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{2022, 2024}, stub.lastQuery.Years)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), stub.lastQuery.From)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), stub.lastQuery.To)
}

func TestGetDashboardInvalidYears(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/?years=not-a-year", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeValidation, problem["type"])
}

func TestGetDashboardInvalidDate(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/?from=01-02-2024", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))

	details, ok := problem["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "from", details["field"])
	assert.Contains(t, details["message"], "YYYY-MM-DD")
}

func TestGetDashboardReversedRange(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/?from=2024-06-01&to=2024-01-01", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDashboardEmptyDataset(t *testing.T) {
	stub := &stubDashboardService{err: services.ErrDatasetEmpty}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeDatasetEmpty, problem["type"])
}

func TestGetClimateDropsPriceColumn(t *testing.T) {
	temp := dataset.NewSeries(dataset.ColTempMax)
	temp.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 33)
	rain := dataset.NewSeries(dataset.ColRainfall)
	rain.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7)
	price := dataset.NewSeries(dataset.ColPriceClose)
	price.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1200)

	table := dataset.MergeByDate(temp, rain, price)
	snap := testSnapshot()
	snap.Table = table
	stub := &stubDashboardService{snap: snap}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/climate", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload TablePayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload.Columns, dataset.ColTempMax)
	assert.Contains(t, payload.Columns, dataset.ColRainfall)
	assert.NotContains(t, payload.Columns, dataset.ColPriceClose)
}

func TestGetSeason(t *testing.T) {
	gen := dataset.NewSeasonGenerator(1)
	rain, ndvi := gen.Season(2024)
	stub := &stubDashboardService{season: dataset.MergeByDate(rain, ndvi)}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/season", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload TablePayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 366, payload.Rows)
	assert.Len(t, payload.Columns[dataset.ColNDVI], 366)
}

func TestRefreshEndpoint(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.refreshed)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "refreshed", body["status"])
	assert.False(t, stub.strict)
}

func TestRefreshStrictParameter(t *testing.T) {
	stub := &stubDashboardService{snap: testSnapshot()}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/refresh?strict=true", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.strict)
}

func TestRefreshStrictClimateFailureIsBadGateway(t *testing.T) {
	stub := &stubDashboardService{err: fmt.Errorf("%w: connect timeout", services.ErrNoClimateData)}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/refresh?strict=1", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeClimateUnavailable, problem["type"])
}

func TestRefreshStrictQuoteFailureIsBadGateway(t *testing.T) {
	stub := &stubDashboardService{err: fmt.Errorf("%w: upstream 500", services.ErrNoQuoteData)}
	h := newTestHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/refresh?strict=1", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeQuotesUnavailable, problem["type"])
}

func TestTablePayloadNullsForMissing(t *testing.T) {
	rain := dataset.NewSeries(dataset.ColRainfall)
	rain.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	price := dataset.NewSeries(dataset.ColPriceClose)
	price.Set(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1200)

	payload := NewTablePayload(dataset.MergeByDate(rain, price))

	data, err := json.Marshal(payload)
	require.NoError(t, err, "NaN cells must not reach the JSON encoder")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	cols := decoded["columns"].(map[string]interface{})
	rainCol := cols[dataset.ColRainfall].([]interface{})
	assert.Equal(t, 5.0, rainCol[0])
	assert.Nil(t, rainCol[1])
}
