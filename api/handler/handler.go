package handler

import (
	"errors"
	"net/http"

	"github.com/use-agent/fairscrape/models"
	"github.com/use-agent/fairscrape/pipeline"
)

// Renderer is what the handlers need from the browser.
type Renderer interface {
	pipeline.Driver
	Stats() models.PoolStats
}

// toScrapeError unwraps err to a ScrapeError, wrapping unknown errors as
// INTERNAL_ERROR.
func toScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeCollection:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

func invalidInput(err error) *models.ErrorDetail {
	return &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()}
}
