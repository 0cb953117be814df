package model

import "time"

// PaymentStatus of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMode records how the buyer paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentUPI    PaymentMode = "UPI"
	PaymentCard   PaymentMode = "Card"
	PaymentOnline PaymentMode = "Online"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// EntryState is derived from people_entered and total_people; it is never
// stored.
type EntryState string

const (
	EntryPending EntryState = "Pending-Entry"
	EntryPartial EntryState = "Partially-Entered"
	EntryFull    EntryState = "Fully-Entered"
)

func (s EntryState) Valid() bool {
	switch s {
	case EntryPending, EntryPartial, EntryFull:
		return true
	}
	return false
}

// PassHolder is one named occupant on a booking.  Holders are embedded in
// the booking row as a JSON array.
type PassHolder struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Booking is one purchase: a category, a buyer, a headcount and the gate
// counters.  PassTypeName and PassTypePrice are snapshotted at creation and
// overwritten by the live category values when the category still exists.
//
// BookingID and EntryStatus are computed at the read boundary.
type Booking struct {
	ID                string        `json:"id"`
	PassTypeID        string        `json:"pass_type_id"`
	PassTypeName      string        `json:"pass_type_name"`
	PassTypePrice     int64         `json:"pass_type_price"`
	NumberBand        string        `json:"-"`
	BookingNumber     string        `json:"booking_number"`
	BookingID         string        `json:"booking_id"`
	BuyerName         string        `json:"buyer_name"`
	BuyerPhone        string        `json:"buyer_phone"`
	PassHolders       []PassHolder  `json:"pass_holders"`
	TotalPeople       int           `json:"total_people"`
	TotalPasses       int           `json:"total_passes"`
	TotalAmount       int64         `json:"total_amount"`
	PeopleEntered     int           `json:"people_entered"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PaymentMode       PaymentMode   `json:"payment_mode"`
	Notes             string        `json:"notes"`
	PaymentScreenshot *string       `json:"payment_screenshot"`
	CheckedIn         bool          `json:"checked_in"`
	CheckedInAt       *time.Time    `json:"checked_in_at,omitempty"`
	ScannedBy         *string       `json:"scanned_by,omitempty"`
	EntryStatus       EntryState    `json:"entry_status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// State derives the gate state from the counters.
func (b *Booking) State() EntryState {
	switch {
	case b.PeopleEntered <= 0:
		return EntryPending
	case b.PeopleEntered >= b.TotalPeople:
		return EntryFull
	default:
		return EntryPartial
	}
}

// Remaining is how many more people may still enter.
func (b *Booking) Remaining() int {
	if r := b.TotalPeople - b.PeopleEntered; r > 0 {
		return r
	}
	return 0
}

// BookingSummary is the minimal view returned alongside a duplicate phone
// conflict.
type BookingSummary struct {
	ID            string        `json:"id"`
	BookingID     string        `json:"booking_id"`
	BuyerName     string        `json:"buyer_name"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}
