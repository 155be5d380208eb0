package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/fairscrape/config"
	"github.com/use-agent/fairscrape/models"
	"github.com/use-agent/fairscrape/pipeline"
)

// Collect returns a handler for POST /api/v1/collect: render the listing and
// return the exhibitor page addresses.
func Collect(r Renderer, fair config.FairConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CollectRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, models.CollectResponse{
					Success: false,
					Error:   invalidInput(err),
				})
				return
			}
		}

		listingURL := req.ListingURL
		if listingURL == "" {
			listingURL = fair.ListingURL
		}

		urls, err := pipeline.CollectAddresses(c.Request.Context(), r, listingURL, fair.DetailPathPattern)
		if err != nil {
			se := toScrapeError(err)
			c.JSON(mapErrorToStatus(se), models.CollectResponse{
				Success: false,
				URLs:    []string{},
				Error:   se.ToDetail(),
			})
			return
		}

		total := len(urls)
		if req.Limit > 0 && len(urls) > req.Limit {
			urls = urls[:req.Limit]
		}
		c.JSON(http.StatusOK, models.CollectResponse{
			Success: true,
			URLs:    urls,
			Total:   total,
		})
	}
}
