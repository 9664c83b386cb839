package dto

import (
	"time"

	"github.com/google/uuid"

	"hotela/internal/domains/booking/model"
	guestModel "hotela/internal/domains/guest/model"
	"hotela/shared"
	"hotela/shared/constant"
	gDto "hotela/shared/dto"
	gModel "hotela/shared/model"
	"hotela/shared/timezone"
)

type CreateBookingRequest struct {
	RoomID         string `json:"room_id"          validate:"required,uuid"`
	GuestFirstName string `json:"guest_first_name" validate:"required,max=100"`
	GuestLastName  string `json:"guest_last_name"  validate:"required,max=100"`
	GuestEmail     string `json:"guest_email"      validate:"required,email,max=100"`
	GuestPhone     string `json:"guest_phone"      validate:"omitempty,max=20"`
	CheckInDate    string `json:"check_in_date"    validate:"required,datetime=2006-01-02"`
	CheckOutDate   string `json:"check_out_date"   validate:"required,datetime=2006-01-02"`
	Channel        string `json:"channel"          validate:"omitempty,oneof=online phone in_person agent"`
	Notes          string `json:"notes"            validate:"omitempty,max=500"`
}

// ParseDates returns the typed check-in and check-out dates. Both are
// calendar dates at midnight UTC.
func (c *CreateBookingRequest) ParseDates() (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(constant.DateOnlyFormat, c.CheckInDate)
	if err != nil {
		return checkIn, checkOut, err //nolint:wrapcheck
	}

	checkOut, err = time.Parse(constant.DateOnlyFormat, c.CheckOutDate)

	return checkIn, checkOut, err //nolint:wrapcheck
}

func (c *CreateBookingRequest) ToModel(user, guestID string, checkIn, checkOut time.Time) model.Booking {
	channel := model.ChannelOnline
	if c.Channel != "" {
		channel = model.Channel(c.Channel)
	}

	return model.Booking{
		ID:           uuid.NewString(),
		RoomID:       c.RoomID,
		GuestID:      guestID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Status:       model.StatusConfirmed,
		Channel:      channel,
		Notes:        c.Notes,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

func (c *CreateBookingRequest) ToGuestModel(user string) guestModel.Guest {
	return guestModel.Guest{
		ID:        uuid.NewString(),
		FirstName: c.GuestFirstName,
		LastName:  c.GuestLastName,
		Email:     c.GuestEmail,
		Phone:     c.GuestPhone,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type ValidateBookingRequest struct {
	RoomID           string `json:"room_id"            validate:"required,uuid"`
	CheckInDate      string `json:"check_in_date"      validate:"required,datetime=2006-01-02"`
	CheckOutDate     string `json:"check_out_date"     validate:"required,datetime=2006-01-02"`
	ExcludeBookingID string `json:"exclude_booking_id" validate:"omitempty,uuid"`
}

func (v *ValidateBookingRequest) ParseDates() (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(constant.DateOnlyFormat, v.CheckInDate)
	if err != nil {
		return checkIn, checkOut, err //nolint:wrapcheck
	}

	checkOut, err = time.Parse(constant.DateOnlyFormat, v.CheckOutDate)

	return checkIn, checkOut, err //nolint:wrapcheck
}

type UpdateBookingRequest struct {
	Notes string `db:"notes" json:"notes" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID             string `json:"id"`
	RoomID         string `json:"room_id"`
	RoomNumber     string `json:"room_number"`
	GuestID        string `json:"guest_id"`
	GuestFirstName string `json:"guest_first_name"`
	GuestLastName  string `json:"guest_last_name"`
	GuestEmail     string `json:"guest_email"`
	CheckInDate    string `json:"check_in_date"`
	CheckOutDate   string `json:"check_out_date"`
	Status         string `json:"status"`
	Channel        string `json:"channel"`
	Notes          string `json:"notes"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.RoomID = model.RoomID
	r.RoomNumber = model.RoomNumber
	r.GuestID = model.GuestID
	r.GuestFirstName = model.GuestFirstName
	r.GuestLastName = model.GuestLastName
	r.GuestEmail = model.GuestEmail
	r.CheckInDate = model.CheckInDate.Format(constant.DateOnlyFormat)
	r.CheckOutDate = model.CheckOutDate.Format(constant.DateOnlyFormat)
	r.Status = string(model.Status)
	r.Channel = string(model.Channel)
	r.Notes = model.Notes
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
