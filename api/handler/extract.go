package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/fairscrape/cache"
	"github.com/use-agent/fairscrape/extract"
	"github.com/use-agent/fairscrape/models"
)

// Extract returns a handler for POST /api/v1/extract: render one exhibitor
// page and return its record. With max_age set, a cached record that is
// young enough is returned without rendering.
func Extract(r Renderer, ex *extract.Extractor, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error:   invalidInput(err),
			})
			return
		}

		key := cache.Key(req.URL)
		maxAge := time.Duration(req.MaxAge) * time.Millisecond
		if rec, engine, ok := cc.Get(key, maxAge); ok {
			c.JSON(http.StatusOK, models.ExtractResponse{
				Success:    true,
				Data:       &rec,
				EngineUsed: engine,
				Cached:     true,
			})
			return
		}

		page, err := r.Render(c.Request.Context(), req.URL)
		if err != nil {
			se := toScrapeError(err)
			c.JSON(mapErrorToStatus(se), models.ExtractResponse{
				Success: false,
				Error:   se.ToDetail(),
			})
			return
		}

		rec := ex.Extract(page)
		rec.URL = req.URL
		cc.Set(key, rec, page.Engine)

		c.JSON(http.StatusOK, models.ExtractResponse{
			Success:    true,
			Data:       &rec,
			EngineUsed: page.Engine,
		})
	}
}
