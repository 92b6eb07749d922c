package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/dto"
	"github.com/SscSPs/schoolbooks/internal/middleware"
	"github.com/SscSPs/schoolbooks/internal/utils"
)

// accountHandler serves the chart of accounts and account balances.
type accountHandler struct {
	chart          portssvc.ChartSvc
	balanceService portssvc.BalanceReaderSvc
}

func newAccountHandler(chart portssvc.ChartSvc, bs portssvc.BalanceReaderSvc) *accountHandler {
	return &accountHandler{chart: chart, balanceService: bs}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, chart portssvc.ChartSvc, balanceService portssvc.BalanceReaderSvc) {
	h := newAccountHandler(chart, balanceService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID/balance", h.getAccountBalance)
	}
}

// listAccounts godoc
// @Summary List the chart of accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToAccountResponses(h.chart.Accounts()))
}

// getAccountBalance godoc
// @Summary Get an account balance
// @Description Balance as of the end of a date, positive on the account's normal side
// @Tags accounts
// @Produce json
// @Param accountID path string true "Account ID"
// @Param currency query string false "Currency code" default(base currency)
// @Param asOf query string false "Balance date (YYYY-MM-DD)" default(today)
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} map[string]string "Unknown account or currency"
// @Security BearerAuth
// @Router /accounts/{accountID}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")
	logger = logger.With(slog.String("account_id", accountID))

	account, err := h.chart.AccountByID(accountID)
	if err != nil {
		respondError(c, logger, err, "get account balance")
		return
	}
	currency, err := h.chart.Currency(c.DefaultQuery("currency", h.chart.BaseCurrency().CurrencyCode))
	if err != nil {
		respondError(c, logger, err, "get account balance")
		return
	}
	asOf, err := dto.ParseDate(c.DefaultQuery("asOf", time.Now().UTC().Format(time.DateOnly)))
	if err != nil {
		respondError(c, logger, err, "get account balance")
		return
	}

	balance, err := h.balanceService.BalanceAsOf(c.Request.Context(), account.AccountID, currency.CurrencyCode, asOf)
	if err != nil {
		respondError(c, logger, err, "get account balance")
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID:    account.AccountID,
		Code:         account.Code,
		CurrencyCode: currency.CurrencyCode,
		AsOf:         dto.FormatDate(asOf),
		Balance:      balance,
		Formatted:    utils.FormatWithCurrencyPrecision(balance, currency),
	})
}
