package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shortener/internal/config"
	"shortener/internal/counter"
	"shortener/internal/domain"
	"shortener/internal/flusher"
	"shortener/internal/handler"
	"shortener/internal/repository"
	postgresRepo "shortener/internal/repository/postgres"
	"shortener/internal/service"
	"shortener/pkg/logger"
)

// Exercises the full path against a real PostgreSQL instance:
// shorten -> resolve -> buffered click -> flush -> durable stats.
// The click buffer runs in-process so the suite needs no Redis.
type URLShortenerIntegrationTestSuite struct {
	suite.Suite
	db     *gorm.DB
	repo   repository.URLRepository
	buffer counter.ClickBuffer
	sched  *flusher.Scheduler
	router *gin.Engine
	cfg    *config.Config
	logger *logger.Logger
}

func (s *URLShortenerIntegrationTestSuite) SetupSuite() {
	s.logger = logger.NewLogger()

	s.cfg = &config.Config{
		Environment:   "test",
		BaseURL:       "http://localhost:8081",
		CacheTTL:      time.Hour,
		StoreTimeout:  2 * time.Second,
		FlushInterval: time.Hour, // flushes are triggered manually via shutdown drain
		FlushRetries:  1,
		FlushBackoff:  time.Millisecond,
	}

	dsn := "host=localhost user=test password=test dbname=urlshortener_test port=5432 sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		s.T().Skip("PostgreSQL not available, skipping integration suite:", err)
	}
	if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		s.T().Skip("PostgreSQL not reachable, skipping integration suite")
	}
	s.db = db

	s.Require().NoError(db.AutoMigrate(&domain.URL{}, &domain.URLStats{}))

	s.repo = postgresRepo.NewURLRepository(db)
	s.buffer = counter.NewMemoryBuffer()
	s.sched = flusher.NewScheduler(s.buffer, s.repo, s.logger, s.cfg.FlushInterval, s.cfg.FlushRetries, s.cfg.FlushBackoff)

	svc := service.NewURLService(s.repo, nil, s.buffer, s.cfg, s.logger)
	h := handler.NewURLHandler(svc, s.logger)

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.POST("/api/v1/shorten", h.ShortenURL)
	s.router.GET("/api/v1/urls/:code/stats", h.GetStats)
	s.router.GET("/:code", h.Redirect)
}

func (s *URLShortenerIntegrationTestSuite) SetupTest() {
	// Fresh tables with identities reset so the first record gets id 1
	s.Require().NoError(s.db.Exec("TRUNCATE url_stats, urls RESTART IDENTITY CASCADE").Error)
	_, err := s.buffer.DrainAll(context.Background())
	s.Require().NoError(err)
}

// flushNow runs the scheduler until its shutdown drain has persisted
// whatever is buffered
func (s *URLShortenerIntegrationTestSuite) flushNow() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.sched.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func (s *URLShortenerIntegrationTestSuite) shorten(body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func (s *URLShortenerIntegrationTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func (s *URLShortenerIntegrationTestSuite) TestShortenResolveFlushStats() {
	w := s.shorten(`{"url": "https://example.com/"}`)
	s.Require().Equal(http.StatusCreated, w.Code)

	var created domain.CreateURLResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.Equal("1", created.Code, "first record's code is base62 of id 1")

	// Three resolutions, three redirects
	for i := 0; i < 3; i++ {
		resp := s.get("/" + created.Code)
		s.Require().Equal(http.StatusFound, resp.Code)
		s.Equal("https://example.com", resp.Header().Get("Location"))
	}

	s.flushNow()

	// The durable aggregate carries all three clicks
	resp := s.get("/api/v1/urls/" + created.Code + "/stats")
	s.Require().Equal(http.StatusOK, resp.Code)

	var view domain.StatsView
	s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &view))
	s.Equal(int64(3), view.TotalClicks)
	s.NotNil(view.LastFlushed)
}

func (s *URLShortenerIntegrationTestSuite) TestFlushMergesAdditively() {
	w := s.shorten(`{"url": "https://example.org/page"}`)
	s.Require().Equal(http.StatusCreated, w.Code)

	var created domain.CreateURLResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))

	s.get("/" + created.Code)
	s.get("/" + created.Code)
	s.flushNow()

	s.get("/" + created.Code)
	s.flushNow()

	resp := s.get("/api/v1/urls/" + created.Code + "/stats")
	s.Require().Equal(http.StatusOK, resp.Code)

	var view domain.StatsView
	s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &view))
	s.Equal(int64(3), view.TotalClicks, "2 + 1, never max or last-write-wins")
}

func (s *URLShortenerIntegrationTestSuite) TestExpiredURLIsGone() {
	past := time.Now().Add(-time.Hour)
	url := &domain.URL{Code: "expired", OriginalURL: "https://example.com", ExpiresAt: &past, IsActive: true}
	s.Require().NoError(s.db.Create(url).Error)

	resp := s.get("/expired")
	s.Equal(http.StatusGone, resp.Code)
}

func (s *URLShortenerIntegrationTestSuite) TestInactiveURLIsNotFound() {
	url := &domain.URL{Code: "gone", OriginalURL: "https://example.com", IsActive: true}
	s.Require().NoError(s.db.Create(url).Error)
	// Deactivate via update: creating with a zero-value bool would be
	// overridden by the column default
	s.Require().NoError(s.db.Model(url).Update("is_active", false).Error)

	resp := s.get("/gone")
	s.Equal(http.StatusNotFound, resp.Code)
}

func (s *URLShortenerIntegrationTestSuite) TestCustomAliasRoundTrip() {
	w := s.shorten(`{"url": "https://example.net", "custom_alias": "launch"}`)
	s.Require().Equal(http.StatusCreated, w.Code)

	resp := s.get("/launch")
	s.Equal(http.StatusFound, resp.Code)

	// Same alias again conflicts
	w = s.shorten(`{"url": "https://other.example", "custom_alias": "launch"}`)
	s.Equal(http.StatusConflict, w.Code)
}

func TestURLShortenerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(URLShortenerIntegrationTestSuite))
}
