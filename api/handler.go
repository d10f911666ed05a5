package api

import (
	"github.com/thuvamathi/ai-solutions-lab-sub000/repository"
	"github.com/thuvamathi/ai-solutions-lab-sub000/services"
)

// APIHandler holds all dependencies for API handlers, such as repositories and services.
type APIHandler struct {
	bookingService  services.BookingService
	quotaService    services.QuotaService
	appointmentRepo repository.AppointmentRepository
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	bookingService services.BookingService,
	quotaService services.QuotaService,
	appointmentRepo repository.AppointmentRepository,
) *APIHandler {
	return &APIHandler{
		bookingService:  bookingService,
		quotaService:    quotaService,
		appointmentRepo: appointmentRepo,
	}
}
