package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/dto"
	"github.com/SscSPs/schoolbooks/internal/middleware"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

// registerJournalRoutes registers journal specific routes
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.postJournalEntry)
		entries.GET("", h.listJournalEntries)
		entries.GET("/:entryID", h.getJournalEntry)
	}
}

// postJournalEntry godoc
// @Summary Post a journal entry
// @Description Validates and commits a balanced journal entry together with its balance updates
// @Tags journal
// @Accept json
// @Produce json
// @Param entry body dto.CreateJournalEntryRequest true "Journal entry"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} map[string]string "Invalid or unbalanced entry"
// @Failure 409 {object} map[string]string "Duplicate reference or closed period"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Security BearerAuth
// @Router /journal-entries [post]
func (h *journalHandler) postJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postJournalEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	draft, err := req.ToDraft(userID)
	if err != nil {
		respondError(c, logger, err, "post journal entry")
		return
	}

	entry, err := h.journalService.Post(c.Request.Context(), draft)
	if err != nil {
		respondError(c, logger, err, "post journal entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// getJournalEntry godoc
// @Summary Get a journal entry
// @Tags journal
// @Produce json
// @Param entryID path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} map[string]string "Journal entry not found"
// @Security BearerAuth
// @Router /journal-entries/{entryID} [get]
func (h *journalHandler) getJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	entry, err := h.journalService.GetJournalEntry(c.Request.Context(), entryID)
	if err != nil {
		respondError(c, logger.With(slog.String("entry_id", entryID)), err, "retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// listJournalEntries godoc
// @Summary List journal entries
// @Description Lists entries newest first with token-based pagination
// @Tags journal
// @Produce json
// @Param from query string false "Earliest entry date (YYYY-MM-DD)"
// @Param to query string false "Latest entry date (YYYY-MM-DD)"
// @Param periodID query string false "Accounting period"
// @Param accountID query string false "Entries touching this account"
// @Param kind query string false "STANDARD, CLOSING or OPENING"
// @Param limit query int false "Page size (max 100)"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListJournalEntriesResponse
// @Security BearerAuth
// @Router /journal-entries [get]
func (h *journalHandler) listJournalEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listJournalEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	filter, err := params.ToFilter()
	if err != nil {
		respondError(c, logger, err, "list journal entries")
		return
	}

	var nextToken *string
	if params.NextToken != "" {
		nextToken = &params.NextToken
	}
	entries, next, err := h.journalService.ListJournalEntries(c.Request.Context(), filter, params.Limit, nextToken)
	if err != nil {
		respondError(c, logger, err, "list journal entries")
		return
	}
	c.JSON(http.StatusOK, dto.ListJournalEntriesResponse{
		Entries:   dto.ToJournalEntryResponses(entries),
		NextToken: next,
	})
}
