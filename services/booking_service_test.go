package services

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/thuvamathi/ai-solutions-lab-sub000/models"
	"github.com/thuvamathi/ai-solutions-lab-sub000/repository"
)

// MockAppointmentRepository is a mock type for the AppointmentRepository interface
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) List(filter repository.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetByID(id string) (*models.Appointment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Insert(appointment *models.Appointment) error {
	args := m.Called(appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Update(id string, fields map[string]interface{}) (*models.Appointment, error) {
	args := m.Called(id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) DeleteByIDs(ids []string) (int64, error) {
	args := m.Called(ids)
	return args.Get(0).(int64), args.Error(1)
}

var confirmationCodePattern = regexp.MustCompile(`^APT-[0-9A-Z]{6}$`)

// nextWeekday returns a bookable date (a weekday at least a week out) in the
// YYYY-MM-DD format the booking form submits.
func nextWeekday() string {
	d := time.Now().AddDate(0, 0, 7)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func validBookingRequest() *models.BookingRequest {
	return &models.BookingRequest{
		BusinessID:      "biz_1",
		ConversationID:  "conv_1",
		CustomerName:    "Alice Example",
		CustomerEmail:   "alice@example.com",
		ServiceType:     "consultation",
		AppointmentDate: nextWeekday(),
		AppointmentTime: "10:00 AM",
	}
}

func TestBookingService_FindActive(t *testing.T) {
	t.Run("Empty conversation ID returns none without querying", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		appointment, err := service.FindActive("")

		assert.NoError(t, err)
		assert.Nil(t, appointment)
		mockRepo.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("Returns the scheduled appointment for the conversation", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)
		existing := &models.Appointment{ID: "apt_1", ConversationID: "conv_1", Status: models.AppointmentStatusScheduled}

		mockRepo.On("List", repository.AppointmentFilter{
			ConversationID: "conv_1",
			Status:         models.AppointmentStatusScheduled,
		}).Return([]*models.Appointment{existing}, nil).Once()

		appointment, err := service.FindActive("conv_1")

		assert.NoError(t, err)
		assert.Equal(t, existing, appointment)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Returns none after the appointment was cancelled", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		// The scheduled-status filter excludes the cancelled row at the query.
		mockRepo.On("List", mock.AnythingOfType("repository.AppointmentFilter")).
			Return([]*models.Appointment{}, nil).Once()

		appointment, err := service.FindActive("conv_1")

		assert.NoError(t, err)
		assert.Nil(t, appointment)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Prefers the most recently created when several exist", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)
		newer := &models.Appointment{ID: "apt_new", CreatedAt: time.Now()}
		older := &models.Appointment{ID: "apt_old", CreatedAt: time.Now().Add(-time.Hour)}

		// Repository lists newest first.
		mockRepo.On("List", mock.AnythingOfType("repository.AppointmentFilter")).
			Return([]*models.Appointment{newer, older}, nil).Once()

		appointment, err := service.FindActive("conv_1")

		assert.NoError(t, err)
		assert.Equal(t, "apt_new", appointment.ID)
	})

	t.Run("Lookup failure fails open to none found", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		mockRepo.On("List", mock.AnythingOfType("repository.AppointmentFilter")).
			Return(nil, errors.New("DB down")).Once()

		appointment, err := service.FindActive("conv_1")

		assert.NoError(t, err)
		assert.Nil(t, appointment)
	})
}

func TestBookingService_Create(t *testing.T) {
	t.Run("Creates a scheduled appointment with derived duration", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		mockRepo.On("Insert", mock.MatchedBy(func(a *models.Appointment) bool {
			return a.Status == models.AppointmentStatusScheduled &&
				a.Duration == 30 &&
				a.ID != "" &&
				a.CustomerEmail == "alice@example.com"
		})).Return(nil).Once()

		result, err := service.CreateOrReschedule(validBookingRequest(), "")

		assert.NoError(t, err)
		assert.Equal(t, BookingOutcomeCreated, result.Outcome)
		assert.NotNil(t, result.Appointment)
		assert.Regexp(t, confirmationCodePattern, result.ConfirmationCode)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Derives duration from the service type table", func(t *testing.T) {
		cases := map[string]int{
			"consultation":      30,
			"business-planning": 60,
			"financial-review":  45,
			"strategy-session":  90,
			"follow-up":         30,
			"something-else":    60,
		}
		for serviceType, want := range cases {
			t.Run(serviceType, func(t *testing.T) {
				mockRepo := new(MockAppointmentRepository)
				service := NewBookingService(mockRepo)

				mockRepo.On("Insert", mock.MatchedBy(func(a *models.Appointment) bool {
					return a.Duration == want
				})).Return(nil).Once()

				req := validBookingRequest()
				req.ServiceType = serviceType
				_, err := service.CreateOrReschedule(req, "")

				assert.NoError(t, err)
				mockRepo.AssertExpectations(t)
			})
		}
	})

	t.Run("Duplicate submission reconciles onto the existing appointment", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)
		existing := &models.Appointment{
			ID:             "11111111-2222-3333-4444-555555abcdef",
			ConversationID: "conv_1",
			CustomerEmail:  "alice@example.com",
			Status:         models.AppointmentStatusScheduled,
		}

		mockRepo.On("Insert", mock.AnythingOfType("*models.Appointment")).
			Return(&repository.ConflictError{ExistingID: existing.ID}).Once()
		mockRepo.On("GetByID", existing.ID).Return(existing, nil).Once()

		result, err := service.CreateOrReschedule(validBookingRequest(), "")

		assert.NoError(t, err)
		assert.Equal(t, BookingOutcomeReconciled, result.Outcome)
		assert.Equal(t, existing.ID, result.Appointment.ID)
		assert.Equal(t, "APT-ABCDEF", result.ConfirmationCode)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Retried submission returns the same confirmation code", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)
		req := validBookingRequest()

		var createdID string
		mockRepo.On("Insert", mock.AnythingOfType("*models.Appointment")).
			Run(func(args mock.Arguments) {
				createdID = args.Get(0).(*models.Appointment).ID
			}).Return(nil).Once()

		first, err := service.CreateOrReschedule(req, "")
		assert.NoError(t, err)
		assert.Equal(t, BookingOutcomeCreated, first.Outcome)

		mockRepo.On("Insert", mock.AnythingOfType("*models.Appointment")).
			Return(&repository.ConflictError{ExistingID: createdID}).Once()
		mockRepo.On("GetByID", createdID).Return(first.Appointment, nil).Once()

		second, err := service.CreateOrReschedule(req, "")
		assert.NoError(t, err)
		assert.Equal(t, BookingOutcomeReconciled, second.Outcome)
		assert.Equal(t, first.ConfirmationCode, second.ConfirmationCode)
		assert.Equal(t, first.Appointment.ID, second.Appointment.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Persistence outage yields a degraded synthetic confirmation", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		mockRepo.On("Insert", mock.AnythingOfType("*models.Appointment")).
			Return(errors.New("connection refused")).Once()

		result, err := service.CreateOrReschedule(validBookingRequest(), "")

		assert.NoError(t, err)
		assert.Equal(t, BookingOutcomeDegraded, result.Outcome)
		assert.Nil(t, result.Appointment)
		assert.Regexp(t, `^APT-\d{6}$`, result.ConfirmationCode)
		mockRepo.AssertExpectations(t)
	})
}

func TestBookingService_Reschedule(t *testing.T) {
	existingID := "11111111-2222-3333-4444-555555abcdef"

	t.Run("Updates date and time in place, preserving identity", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)
		createdAt := time.Now().Add(-48 * time.Hour)
		existing := &models.Appointment{
			ID:        existingID,
			Status:    models.AppointmentStatusScheduled,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}

		req := validBookingRequest()
		req.ServiceType = "strategy-session"

		mockRepo.On("GetByID", existingID).Return(existing, nil).Once()
		mockRepo.On("Update", existingID, mock.MatchedBy(func(fields map[string]interface{}) bool {
			_, hasStatus := fields["status"]
			updatedAt, hasUpdatedAt := fields["updated_at"].(time.Time)
			return !hasStatus && hasUpdatedAt && updatedAt.After(createdAt) &&
				fields["appointment_date"] == req.AppointmentDate &&
				fields["duration"] == 90
		})).Return(&models.Appointment{
			ID:              existingID,
			Status:          models.AppointmentStatusScheduled,
			AppointmentDate: req.AppointmentDate,
			AppointmentTime: req.AppointmentTime,
			Duration:        90,
			CreatedAt:       createdAt,
			UpdatedAt:       time.Now(),
		}, nil).Once()

		result, err := service.CreateOrReschedule(req, existingID)

		assert.NoError(t, err)
		assert.Equal(t, BookingOutcomeRescheduled, result.Outcome)
		assert.Equal(t, existingID, result.Appointment.ID)
		assert.Equal(t, createdAt, result.Appointment.CreatedAt)
		assert.True(t, result.Appointment.UpdatedAt.After(createdAt))
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown appointment is a hard not-found failure", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		mockRepo.On("GetByID", existingID).Return(nil, repository.ErrNotFound).Once()

		result, err := service.CreateOrReschedule(validBookingRequest(), existingID)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Cancelled appointments are never resurrected", func(t *testing.T) {
		for _, status := range []models.AppointmentStatus{
			models.AppointmentStatusCancelled,
			models.AppointmentStatusCompleted,
		} {
			t.Run(string(status), func(t *testing.T) {
				mockRepo := new(MockAppointmentRepository)
				service := NewBookingService(mockRepo)

				mockRepo.On("GetByID", existingID).
					Return(&models.Appointment{ID: existingID, Status: status}, nil).Once()

				result, err := service.CreateOrReschedule(validBookingRequest(), existingID)

				assert.Nil(t, result)
				assert.ErrorIs(t, err, ErrValidation)
				mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			})
		}
	})
}

func TestBookingService_Validation(t *testing.T) {
	mutations := map[string]func(*models.BookingRequest){
		"missing name":         func(r *models.BookingRequest) { r.CustomerName = "" },
		"missing email":        func(r *models.BookingRequest) { r.CustomerEmail = "" },
		"missing service type": func(r *models.BookingRequest) { r.ServiceType = "" },
		"missing date":         func(r *models.BookingRequest) { r.AppointmentDate = "" },
		"missing time":         func(r *models.BookingRequest) { r.AppointmentTime = "" },
		"malformed date":       func(r *models.BookingRequest) { r.AppointmentDate = "03/10/2030" },
		"date in the past":     func(r *models.BookingRequest) { r.AppointmentDate = "2020-01-06" },
		"weekend date": func(r *models.BookingRequest) {
			d := time.Now().AddDate(0, 0, 7)
			for d.Weekday() != time.Saturday {
				d = d.AddDate(0, 0, 1)
			}
			r.AppointmentDate = d.Format("2006-01-02")
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			mockRepo := new(MockAppointmentRepository)
			service := NewBookingService(mockRepo)

			req := validBookingRequest()
			mutate(req)
			result, err := service.CreateOrReschedule(req, "")

			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrValidation)
			mockRepo.AssertNotCalled(t, "Insert", mock.Anything)
		})
	}
}

func TestBookingService_CleanupDuplicates(t *testing.T) {
	t.Run("Keeps the oldest of each duplicate group and the unique rows", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		base := time.Now().Add(-time.Hour)
		dupe := func(id string, offset time.Duration) *models.Appointment {
			return &models.Appointment{
				ID:              id,
				ConversationID:  "conv_1",
				CustomerEmail:   "alice@example.com",
				AppointmentDate: "2030-03-11",
				AppointmentTime: "10:00 AM",
				Status:          models.AppointmentStatusScheduled,
				CreatedAt:       base.Add(offset),
			}
		}
		unique := &models.Appointment{
			ID:              "apt_unique",
			ConversationID:  "conv_2",
			CustomerEmail:   "bob@example.com",
			AppointmentDate: "2030-03-12",
			AppointmentTime: "2:00 PM",
			Status:          models.AppointmentStatusScheduled,
			CreatedAt:       base,
		}

		mockRepo.On("List", repository.AppointmentFilter{Status: models.AppointmentStatusScheduled}).
			Return([]*models.Appointment{
				dupe("apt_t3", 2*time.Minute),
				dupe("apt_t1", 0),
				dupe("apt_t2", time.Minute),
				unique,
			}, nil).Once()
		mockRepo.On("DeleteByIDs", mock.MatchedBy(func(ids []string) bool {
			return assert.ObjectsAreEqual([]string{"apt_t2", "apt_t3"}, ids)
		})).Return(int64(2), nil).Once()

		result, err := service.CleanupDuplicates()

		assert.NoError(t, err)
		assert.Equal(t, 1, result.DuplicateGroupsFound)
		assert.Equal(t, int64(2), result.AppointmentsRemoved)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Nothing to remove on a clean table", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		mockRepo.On("List", mock.AnythingOfType("repository.AppointmentFilter")).
			Return([]*models.Appointment{}, nil).Once()
		mockRepo.On("DeleteByIDs", mock.MatchedBy(func(ids []string) bool { return len(ids) == 0 })).
			Return(int64(0), nil).Once()

		result, err := service.CleanupDuplicates()

		assert.NoError(t, err)
		assert.Equal(t, 0, result.DuplicateGroupsFound)
		assert.Equal(t, int64(0), result.AppointmentsRemoved)
	})

	t.Run("List failure aborts with nothing deleted", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		mockRepo.On("List", mock.AnythingOfType("repository.AppointmentFilter")).
			Return(nil, errors.New("DB down")).Once()

		result, err := service.CleanupDuplicates()

		assert.Nil(t, result)
		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "DeleteByIDs", mock.Anything)
	})

	t.Run("Delete failure aborts the whole run", func(t *testing.T) {
		mockRepo := new(MockAppointmentRepository)
		service := NewBookingService(mockRepo)

		rows := []*models.Appointment{
			{ID: "a", ConversationID: "c", CustomerEmail: "e", AppointmentDate: "2030-01-07", AppointmentTime: "9:00 AM", CreatedAt: time.Now().Add(-time.Minute)},
			{ID: "b", ConversationID: "c", CustomerEmail: "e", AppointmentDate: "2030-01-07", AppointmentTime: "9:00 AM", CreatedAt: time.Now()},
		}
		mockRepo.On("List", mock.AnythingOfType("repository.AppointmentFilter")).Return(rows, nil).Once()
		mockRepo.On("DeleteByIDs", mock.Anything).Return(int64(0), fmt.Errorf("DB down")).Once()

		result, err := service.CleanupDuplicates()

		assert.Nil(t, result)
		assert.Error(t, err)
	})
}
