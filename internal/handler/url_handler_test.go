package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shortener/internal/domain"
	"shortener/pkg/logger"
)

// mockService is a mock implementation of URLService
type mockService struct {
	mock.Mock
}

func (m *mockService) ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.CreateURLResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateURLResponse), args.Error(1)
}

func (m *mockService) Resolve(ctx context.Context, code string) (*domain.Resolution, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resolution), args.Error(1)
}

func (m *mockService) GetStats(ctx context.Context, code string) (*domain.StatsView, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatsView), args.Error(1)
}

func setupHandlerTest() (*mockService, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	svc := new(mockService)
	h := NewURLHandler(svc, logger.NewLogger())

	router := gin.New()
	router.POST("/api/v1/shorten", h.ShortenURL)
	router.GET("/api/v1/urls/:code/stats", h.GetStats)
	router.GET("/:code", h.Redirect)

	return svc, router
}

func TestRedirect_Found(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("Resolve", mock.Anything, "1").
		Return(&domain.Resolution{Outcome: domain.OutcomeRedirect, TargetURL: "https://example.com"}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
}

func TestRedirect_Expired(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("Resolve", mock.Anything, "old").
		Return(&domain.Resolution{Outcome: domain.OutcomeExpired}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/old", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestRedirect_NotFound(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("Resolve", mock.Anything, "missing").
		Return(&domain.Resolution{Outcome: domain.OutcomeNotFound}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirect_StoreUnavailable(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("Resolve", mock.Anything, "1").
		Return(nil, domain.ErrStoreUnavailable)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/1", nil)
	router.ServeHTTP(w, req)

	// Retryable failure, not a 404
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestShortenURL_Created(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("ShortenURL", mock.Anything, mock.AnythingOfType("*domain.CreateURLRequest")).
		Return(&domain.CreateURLResponse{
			Code:        "1",
			ShortURL:    "https://short.url/1",
			OriginalURL: "https://example.com",
		}, nil)

	body := `{"url": "https://example.com"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp domain.CreateURLResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.Code)
}

func TestShortenURL_MissingURL(t *testing.T) {
	_, router := setupHandlerTest()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShortenURL_AliasConflict(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("ShortenURL", mock.Anything, mock.Anything).
		Return(nil, domain.ErrCodeTaken)

	body := `{"url": "https://example.com", "custom_alias": "promo"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetStats_OK(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("GetStats", mock.Anything, "1").
		Return(&domain.StatsView{Code: "1", OriginalURL: "https://example.com", TotalClicks: 3}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/urls/1/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var view domain.StatsView
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, int64(3), view.TotalClicks)
}

func TestGetStats_NotFound(t *testing.T) {
	svc, router := setupHandlerTest()

	svc.On("GetStats", mock.Anything, "missing").
		Return(nil, domain.ErrURLNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/urls/missing/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
