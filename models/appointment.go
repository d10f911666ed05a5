package models

import "time"

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
// Completed and cancelled appointments must never be rescheduled back to life.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Appointment represents one scheduled meeting between a business and a customer.
// ConversationID links the appointment to the chat session that produced it, so
// the booking flow can route a returning visitor into reschedule instead of
// creating a second appointment for the same conversation.
type Appointment struct {
	ID              string            `json:"id" gorm:"primaryKey;column:id"`
	BusinessID      string            `json:"business_id" gorm:"column:business_id;index"`
	ConversationID  string            `json:"conversation_id" gorm:"column:conversation_id;index"`
	CustomerName    string            `json:"customer_name" gorm:"column:customer_name"`
	CustomerEmail   string            `json:"customer_email" gorm:"column:customer_email"`
	CustomerPhone   string            `json:"customer_phone" gorm:"column:customer_phone"`
	ServiceType     string            `json:"service_type" gorm:"column:service_type"`
	AppointmentDate string            `json:"appointment_date" gorm:"column:appointment_date"` // YYYY-MM-DD
	AppointmentTime string            `json:"appointment_time" gorm:"column:appointment_time"` // e.g. "10:00 AM"
	Duration        int               `json:"duration" gorm:"column:duration"`                 // minutes
	Status          AppointmentStatus `json:"status" gorm:"column:status;index"`
	Notes           string            `json:"notes" gorm:"column:notes"`
	CreatedAt       time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

// TableName specifies the table name for the Appointment model.
func (Appointment) TableName() string {
	return "appointments"
}

// DedupeKey is the tuple under which concurrent duplicate submissions are
// detected: two scheduled appointments sharing this key are the same logical
// booking, and the oldest one by creation time is authoritative.
func (a *Appointment) DedupeKey() string {
	return a.ConversationID + "|" + a.CustomerEmail + "|" + a.AppointmentDate + "|" + a.AppointmentTime
}

// ServiceDurations maps a service type to its appointment length in minutes.
var ServiceDurations = map[string]int{
	"consultation":      30,
	"business-planning": 60,
	"financial-review":  45,
	"strategy-session":  90,
	"follow-up":         30,
}

// DefaultServiceDuration is used for service types missing from ServiceDurations.
const DefaultServiceDuration = 60

// DurationForService returns the booked duration in minutes for a service type.
func DurationForService(serviceType string) int {
	if d, ok := ServiceDurations[serviceType]; ok {
		return d
	}
	return DefaultServiceDuration
}
