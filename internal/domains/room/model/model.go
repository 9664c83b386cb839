package model

import "hotela/shared/model"

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID            = "id"
	FieldRoomNumber    = "room_number"
	FieldRoomType      = "room_type"
	FieldCapacity      = "capacity"
	FieldPricePerNight = "price_per_night"
	FieldDescription   = "description"
)

type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double"
	RoomTypeSuite  RoomType = "suite"
	RoomTypeFamily RoomType = "family"
	RoomTypeDeluxe RoomType = "deluxe"
)

// Valid reports whether the room type is one of the known categories.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeSingle, RoomTypeDouble, RoomTypeSuite, RoomTypeFamily, RoomTypeDeluxe:
		return true
	}

	return false
}

type Room struct {
	ID            string   `db:"id"`
	RoomNumber    string   `db:"room_number"`
	RoomType      RoomType `db:"room_type"`
	Capacity      int      `db:"capacity"`
	PricePerNight float64  `db:"price_per_night"`
	Description   string   `db:"description"`
	model.Metadata
}
