package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// getStats returns the cached engine statistics snapshot.
func (s *APIV1Service) getStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.StatsCollector.GetStats())
}
