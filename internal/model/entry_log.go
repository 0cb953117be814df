package model

import "time"

// EntryLog is one accepted check-in, written in the same transaction as
// the counter increment.  BookingNumber and BuyerName are joined in on read.
type EntryLog struct {
	ID            uint64    `json:"id"`
	BookingID     string    `json:"booking_id"`
	BookingNumber string    `json:"booking_number,omitempty"`
	BuyerName     string    `json:"buyer_name,omitempty"`
	People        int       `json:"people"`
	EnteredAfter  int       `json:"entered_after"`
	ScannedBy     string    `json:"scanned_by"`
	StaffID       uint64    `json:"staff_id"`
	CreatedAt     time.Time `json:"created_at"`
}
