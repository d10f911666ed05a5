package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thuvamathi/ai-solutions-lab-sub000/models"
	"github.com/thuvamathi/ai-solutions-lab-sub000/repository"
	"github.com/thuvamathi/ai-solutions-lab-sub000/services"
	"github.com/thuvamathi/ai-solutions-lab-sub000/utils"
)

// ListAppointmentsHandler returns all appointments for a business, newest first.
func (h *APIHandler) ListAppointmentsHandler(c *gin.Context) {
	businessID := c.Query("business_id")
	if businessID == "" {
		utils.SendJSONError(c, http.StatusBadRequest, "business_id is required", nil)
		return
	}

	appointments, err := h.appointmentRepo.List(repository.AppointmentFilter{BusinessID: businessID})
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch appointments", err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

// ActiveAppointmentHandler returns the scheduled appointment tied to a chat
// conversation, or null when there is none. The widget calls this before
// showing the booking wizard, so it can route into reschedule instead.
func (h *APIHandler) ActiveAppointmentHandler(c *gin.Context) {
	conversationID := c.Query("conversation_id")

	appointment, err := h.bookingService.FindActive(conversationID)
	if err != nil {
		// FindActive fails open; an error here means bad input, not an outage.
		utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

// CreateAppointmentHandler books a new appointment for a conversation. A
// duplicate submission converges onto the existing appointment and still
// returns 201, with outcome "reconciled" in the body for observability.
func (h *APIHandler) CreateAppointmentHandler(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BusinessID == "" {
		utils.SendJSONError(c, http.StatusBadRequest, "business_id is required", nil)
		return
	}

	result, err := h.bookingService.CreateOrReschedule(&req, "")
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to create appointment", err)
		return
	}

	c.JSON(http.StatusCreated, models.BookingResponse{
		Outcome:          string(result.Outcome),
		ConfirmationCode: result.ConfirmationCode,
		Appointment:      result.Appointment,
	})
}

// RescheduleAppointmentHandler updates an existing appointment's date, time and
// service in place. The appointment keeps its identifier, creation time and
// status; completed or cancelled appointments are refused.
func (h *APIHandler) RescheduleAppointmentHandler(c *gin.Context) {
	id := c.Param("id")

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.bookingService.CreateOrReschedule(&req, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "Appointment not found", err)
			return
		}
		if errors.Is(err, services.ErrValidation) {
			utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to update appointment", err)
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Outcome:          string(result.Outcome),
		ConfirmationCode: result.ConfirmationCode,
		Appointment:      result.Appointment,
	})
}

// DeleteAppointmentHandler removes a single appointment by ID.
func (h *APIHandler) DeleteAppointmentHandler(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.appointmentRepo.DeleteByIDs([]string{id})
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to delete appointment", err)
		return
	}
	if deleted == 0 {
		utils.SendJSONError(c, http.StatusNotFound, "Appointment not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CleanupAppointmentsHandler removes race-induced duplicate scheduled
// appointments, keeping the oldest member of each duplicate group. Any
// persistence failure aborts the whole run with nothing deleted.
func (h *APIHandler) CleanupAppointmentsHandler(c *gin.Context) {
	result, err := h.bookingService.CleanupDuplicates()
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to cleanup appointments", err)
		return
	}

	log.Printf("INFO: [API] Appointment cleanup removed %d duplicates across %d groups.", result.AppointmentsRemoved, result.DuplicateGroupsFound)
	c.JSON(http.StatusOK, models.CleanupResponse{
		DuplicateGroupsFound: result.DuplicateGroupsFound,
		AppointmentsRemoved:  result.AppointmentsRemoved,
	})
}
