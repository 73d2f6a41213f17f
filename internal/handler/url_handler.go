package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortener/internal/domain"
	"shortener/internal/service"
	"shortener/pkg/logger"
)

// URLHandler handles HTTP requests for URL shortening operations
type URLHandler struct {
	service service.URLService
	logger  *logger.Logger
}

// NewURLHandler creates a new URL handler with dependencies
func NewURLHandler(service service.URLService, logger *logger.Logger) *URLHandler {
	return &URLHandler{
		service: service,
		logger:  logger,
	}
}

// ShortenURL handles POST /api/v1/shorten
// Creates a new shortened URL
func (h *URLHandler) ShortenURL(c *gin.Context) {
	var req domain.CreateURLRequest

	// Bind and validate request body
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	response, err := h.service.ShortenURL(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Redirect handles GET /:code
// Resolves the short code and redirects to the target URL
func (h *URLHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	if code == "" {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_code",
			Message: "Short code is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	switch res.Outcome {
	case domain.OutcomeRedirect:
		// 302 so browsers keep coming back and every click is counted
		c.Redirect(http.StatusFound, res.TargetURL)

	case domain.OutcomeExpired:
		c.JSON(http.StatusGone, domain.ErrorResponse{
			Error:   "url_expired",
			Message: "This URL has expired and is no longer available",
			Code:    http.StatusGone,
		})

	default:
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "not_found",
			Message: "The requested URL was not found",
			Code:    http.StatusNotFound,
		})
	}
}

// GetStats handles GET /api/v1/urls/:code/stats
// Returns durable aggregated statistics for a shortened URL
func (h *URLHandler) GetStats(c *gin.Context) {
	code := c.Param("code")

	if code == "" {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_code",
			Message: "Short code is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleError processes domain errors and returns appropriate HTTP responses
func (h *URLHandler) handleError(c *gin.Context, err error) {
	var appErr *domain.AppError

	switch {
	case errors.As(err, &appErr):
		// Log internal errors but don't expose details to users
		if appErr.Internal {
			h.logger.Error("Internal server error", "error", appErr.Err)
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "internal_error",
				Message: "An internal error occurred",
				Code:    appErr.StatusCode,
			})
		} else {
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "client_error",
				Message: appErr.Message,
				Code:    appErr.StatusCode,
			})
		}

	case errors.Is(err, domain.ErrURLNotFound):
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "not_found",
			Message: "The requested URL was not found",
			Code:    http.StatusNotFound,
		})

	case errors.Is(err, domain.ErrURLExpired):
		c.JSON(http.StatusGone, domain.ErrorResponse{
			Error:   "url_expired",
			Message: "This URL has expired and is no longer available",
			Code:    http.StatusGone,
		})

	case errors.Is(err, domain.ErrCodeTaken):
		c.JSON(http.StatusConflict, domain.ErrorResponse{
			Error:   "code_taken",
			Message: "This short code is already in use",
			Code:    http.StatusConflict,
		})

	case errors.Is(err, domain.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_url",
			Message: "The provided URL is invalid",
			Code:    http.StatusBadRequest,
		})

	case errors.Is(err, domain.ErrStoreUnavailable):
		// Retryable: the store timed out or was unreachable
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{
			Error:   "store_unavailable",
			Message: "The service is temporarily unavailable, please retry",
			Code:    http.StatusServiceUnavailable,
		})

	default:
		h.logger.Error("Unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
