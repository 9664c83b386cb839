package model

import (
	"time"

	"hotela/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID           = "id"
	FieldRoomID       = "room_id"
	FieldGuestID      = "guest_id"
	FieldCheckInDate  = "check_in_date"
	FieldCheckOutDate = "check_out_date"
	FieldStatus       = "status"
	FieldChannel      = "channel"
	FieldNotes        = "notes"
)

type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusCanceled   Status = "canceled"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
)

// Valid reports whether the status is one of the known booking states.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCanceled, StatusCheckedIn, StatusCheckedOut:
		return true
	}

	return false
}

// Active reports whether a booking in this status occupies its room.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// CanTransitionTo encodes the allowed front-desk status transitions:
// confirmed -> canceled, confirmed -> checked_in, checked_in -> checked_out.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusConfirmed:
		return next == StatusCanceled || next == StatusCheckedIn
	case StatusCheckedIn:
		return next == StatusCheckedOut
	case StatusCanceled, StatusCheckedOut:
		return false
	}

	return false
}

// ActiveStatuses returns the statuses that block room availability, in a
// shape usable by an IN filter.
func ActiveStatuses() []string {
	return []string{string(StatusConfirmed), string(StatusCheckedIn)}
}

type Channel string

const (
	ChannelOnline   Channel = "online"
	ChannelPhone    Channel = "phone"
	ChannelInPerson Channel = "in_person"
	ChannelAgent    Channel = "agent"
)

// Valid reports whether the channel is one of the known booking channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelOnline, ChannelPhone, ChannelInPerson, ChannelAgent:
		return true
	}

	return false
}

// Booking holds a guest's reservation of a room for the half-open date
// interval [CheckInDate, CheckOutDate). The check-out night is not occupied.
type Booking struct {
	ID           string    `db:"id"`
	RoomID       string    `db:"room_id"`
	GuestID      string    `db:"guest_id"`
	CheckInDate  time.Time `db:"check_in_date"`
	CheckOutDate time.Time `db:"check_out_date"`
	Status       Status    `db:"status"`
	Channel      Channel   `db:"channel"`
	Notes        string    `db:"notes"`

	// Display columns resolved through the join, never written.
	RoomNumber     string `db:"booking_room_number" table:"rooms"  column:"room_number"`
	GuestFirstName string `db:"guest_first_name"    table:"guests" column:"first_name"`
	GuestLastName  string `db:"guest_last_name"     table:"guests" column:"last_name"`
	GuestEmail     string `db:"guest_email"         table:"guests" column:"email"`

	model.Metadata
}

// GetJoinQuery resolves room and guest display columns for read queries.
func (b Booking) GetJoinQuery() string {
	return "JOIN rooms ON rooms.id = bookings.room_id JOIN guests ON guests.id = bookings.guest_id"
}

// Active reports whether this booking currently occupies its room.
func (b Booking) Active() bool {
	return b.Status.Active()
}
