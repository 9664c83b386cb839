package dto

import (
	"time"

	"github.com/google/uuid"

	"hotela/internal/domains/room/model"
	"hotela/shared"
	"hotela/shared/constant"
	gDto "hotela/shared/dto"
	gModel "hotela/shared/model"
	"hotela/shared/timezone"
)

type CreateRoomRequest struct {
	RoomNumber    string  `json:"room_number"     validate:"required,max=20"`
	RoomType      string  `json:"room_type"       validate:"required,oneof=single double suite family deluxe"`
	Capacity      int     `json:"capacity"        validate:"required,min=1"`
	PricePerNight float64 `json:"price_per_night" validate:"min=0"`
	Description   string  `json:"description"     validate:"omitempty,max=500"`
}

func (c *CreateRoomRequest) ToModel(user string) model.Room {
	return model.Room{
		ID:            uuid.NewString(),
		RoomNumber:    c.RoomNumber,
		RoomType:      model.RoomType(c.RoomType),
		Capacity:      c.Capacity,
		PricePerNight: c.PricePerNight,
		Description:   c.Description,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateRoomRequest struct {
	RoomNumber    string   `db:"room_number"     json:"room_number"     validate:"omitempty,max=20"`
	RoomType      string   `db:"room_type"       json:"room_type"       validate:"omitempty,oneof=single double suite family deluxe"`
	Capacity      *int     `db:"capacity"        json:"capacity"        validate:"omitempty,min=1"`
	PricePerNight *float64 `db:"price_per_night" json:"price_per_night" validate:"omitempty,min=0"`
	Description   string   `db:"description"     json:"description"     validate:"omitempty,max=500"`
}

type RoomResponse struct {
	ID            string  `json:"id"`
	RoomNumber    string  `json:"room_number"`
	RoomType      string  `json:"room_type"`
	Capacity      int     `json:"capacity"`
	PricePerNight float64 `json:"price_per_night"`
	Description   string  `json:"description"`

	// Derived from active bookings at response time, never persisted.
	IsAvailable  bool   `json:"is_available"`
	NextFreeDate string `json:"next_free_date"`

	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.RoomNumber = model.RoomNumber
	r.RoomType = string(model.RoomType)
	r.Capacity = model.Capacity
	r.PricePerNight = model.PricePerNight
	r.Description = model.Description
	r.Metadata.FromModel(model.Metadata)
}

// SetAvailability stamps the derived availability fields onto the response.
func (r *RoomResponse) SetAvailability(isAvailable bool, nextFreeDate time.Time) {
	r.IsAvailable = isAvailable
	r.NextFreeDate = nextFreeDate.Format(constant.DateOnlyFormat)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}

type RoomAvailabilityResponse struct {
	RoomID       string `json:"room_id"`
	Date         string `json:"date"`
	IsAvailable  bool   `json:"is_available"`
	NextFreeDate string `json:"next_free_date"`
}

type OpenPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type OpenPeriodsResponse struct {
	RoomID      string       `json:"room_id"`
	FromDate    string       `json:"from_date"`
	HorizonDays int          `json:"horizon_days"`
	OpenPeriods []OpenPeriod `json:"open_periods"`
}
