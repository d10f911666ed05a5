package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thuvamathi/ai-solutions-lab-sub000/models"
	"github.com/thuvamathi/ai-solutions-lab-sub000/utils"
)

// GetQuotaHandler reports how many free-trial messages a visitor has left for a
// business. The widget checks this before forwarding a message to the AI; at
// zero it rejects the message locally.
func (h *APIHandler) GetQuotaHandler(c *gin.Context) {
	sessionID := c.Query("session_id")
	businessID := c.Query("business_id")

	remaining, err := h.quotaService.Remaining(sessionID, businessID)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	limit := h.quotaService.Limit()
	c.JSON(http.StatusOK, models.QuotaResponse{
		SessionID:    sessionID,
		BusinessID:   businessID,
		MessagesSent: limit - remaining,
		Remaining:    remaining,
		Limit:        limit,
	})
}

type incrementQuotaRequest struct {
	SessionID  string `json:"session_id"`
	BusinessID string `json:"business_id"`
}

// IncrementQuotaHandler records one consumed free-trial message. Callers must
// invoke it at most once per accepted message; the operation is deliberately
// not idempotent.
func (h *APIHandler) IncrementQuotaHandler(c *gin.Context) {
	var req incrementQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quota, err := h.quotaService.Increment(req.SessionID, req.BusinessID)
	if err != nil {
		if req.SessionID == "" || req.BusinessID == "" {
			utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to update quota", err)
		return
	}

	limit := h.quotaService.Limit()
	remaining := limit - quota.MessagesSent
	if remaining < 0 {
		remaining = 0
	}
	c.JSON(http.StatusOK, models.QuotaResponse{
		SessionID:    quota.SessionID,
		BusinessID:   quota.BusinessID,
		MessagesSent: quota.MessagesSent,
		Remaining:    remaining,
		Limit:        limit,
	})
}
