package api

import (
	"github.com/gin-gonic/gin"
)

type ecosystemListEntry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	BenchmarkSymbol string   `json:"benchmark"`
	Tickers         []string `json:"tickers"`
}

// GET /ecosystems - the discovered ecosystem configs, for the dashboard's
// selector.
func (m ApiHandler) ecosystems(c *gin.Context) {
	configs, err := m.Registry.Discover(c)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	out := []ecosystemListEntry{}
	for _, config := range configs {
		tickers := []string{}
		for _, company := range config.Companies {
			tickers = append(tickers, company.Ticker)
		}
		out = append(out, ecosystemListEntry{
			ID:              config.ID,
			Name:            config.Name,
			BenchmarkSymbol: config.BenchmarkSymbol,
			Tickers:         tickers,
		})
	}

	c.JSON(200, out)
}
