package api

import (
	"datdash/internal/app"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// GET /comparison?ecosystem=solana&asOf=2026-01-15
//
// Returns one ComparisonReport per discovered ecosystem, keyed by ecosystem
// id. asOf defaults to now; ecosystem may repeat to narrow the build.
func (m ApiHandler) comparison(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			returnErrorJson(fmt.Errorf("invalid asOf date %q: %w", raw, err), c)
			return
		}
		asOf = parsed
	}

	reports, err := m.ComparisonHandler.Build(c, app.BuildInput{
		AsOf:         asOf,
		EcosystemIDs: c.QueryArray("ecosystem"),
	})
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, reports)
}
