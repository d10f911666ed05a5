package models

// BookingRequest is the payload for creating or rescheduling an appointment.
type BookingRequest struct {
	BusinessID      string `json:"business_id"`
	ConversationID  string `json:"conversation_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	ServiceType     string `json:"service_type"`
	AppointmentDate string `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes"`
}

// BookingResponse is returned for create/reschedule calls. Outcome tells the
// caller whether the appointment was freshly created, reconciled against an
// existing duplicate, rescheduled in place, or degraded (synthetic confirmation
// issued while persistence was unreachable).
type BookingResponse struct {
	Outcome          string       `json:"outcome"`
	ConfirmationCode string       `json:"confirmation_code"`
	Appointment      *Appointment `json:"appointment"`
}

// QuotaResponse reports a visitor's remaining free-trial messages for a business.
type QuotaResponse struct {
	SessionID    string `json:"session_id"`
	BusinessID   string `json:"business_id"`
	MessagesSent int    `json:"messages_sent"`
	Remaining    int    `json:"remaining"`
	Limit        int    `json:"limit"`
}

// CleanupResponse reports the result of a duplicate-appointment cleanup run.
type CleanupResponse struct {
	DuplicateGroupsFound int   `json:"duplicate_groups_found"`
	AppointmentsRemoved  int64 `json:"appointments_removed"`
}
