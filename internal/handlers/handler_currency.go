package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/dto"
)

// registerCurrencyRoutes registers routes related to currencies.
func registerCurrencyRoutes(rg *gin.RouterGroup, chart portssvc.ChartSvc) {
	rg.GET("/currencies", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.ToCurrencyResponses(chart.Currencies()))
	})
}
