package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/dto"
	"github.com/SscSPs/schoolbooks/internal/middleware"
)

// registerAdminRoutes registers balance maintenance routes.
func registerAdminRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceSvcFacade) {
	admin := rg.Group("/admin/balances")
	{
		admin.POST("/rebuild", rebuildBalances(balanceService))
		admin.GET("/verify", verifyBalances(balanceService))
	}
}

// rebuildBalances godoc
// @Summary Rebuild materialized balances from the journal
// @Tags admin
// @Success 204
// @Security BearerAuth
// @Router /admin/balances/rebuild [post]
func rebuildBalances(bs portssvc.BalanceWriterSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		userID, ok := middleware.GetUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := bs.Rebuild(c.Request.Context(), userID); err != nil {
			respondError(c, logger, err, "rebuild balances")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// verifyBalances godoc
// @Summary Compare materialized balances with a journal replay
// @Tags admin
// @Produce json
// @Param asOf query string false "Verification date (YYYY-MM-DD)" default(today)
// @Success 200 {object} dto.VerifyBalancesResponse
// @Security BearerAuth
// @Router /admin/balances/verify [get]
func verifyBalances(bs portssvc.BalanceVerifierSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		asOf, err := dto.ParseDate(c.DefaultQuery("asOf", time.Now().UTC().Format(time.DateOnly)))
		if err != nil {
			respondError(c, logger, err, "verify balances")
			return
		}
		drifts, err := bs.Verify(c.Request.Context(), asOf)
		if err != nil {
			respondError(c, logger, err, "verify balances")
			return
		}
		if drifts == nil {
			drifts = []domain.BalanceDrift{}
		}
		c.JSON(http.StatusOK, dto.VerifyBalancesResponse{
			AsOf:       dto.FormatDate(asOf),
			Consistent: len(drifts) == 0,
			Drifts:     drifts,
		})
	}
}
