// Package queue carries the back office's asynchronous traffic: pass
// dispatch requests over RabbitMQ and the gate entry stream over Kafka.
package queue

import "github.com/Shine-Infosolutions/eventbackend/internal/model"

// PassDispatchEvent asks the dispatch worker to deliver a pass.  It holds
// everything needed to render and send the pass without querying MySQL.
type PassDispatchEvent struct {
	BookingID     string             `json:"booking_id"`
	DisplayID     string             `json:"display_id"`
	EventName     string             `json:"event_name"`
	PassType      string             `json:"pass_type"`
	Price         int64              `json:"price"`
	BuyerName     string             `json:"buyer_name"`
	BuyerPhone    string             `json:"buyer_phone"`
	PassHolders   []model.PassHolder `json:"pass_holders"`
	TotalPeople   int                `json:"total_people"`
	TotalAmount   int64              `json:"total_amount"`
	PaymentStatus string             `json:"payment_status"`
	Channel       string             `json:"channel"`   // sms | whatsapp | email
	Recipient     string             `json:"recipient"` // phone number or email address
	Token         string             `json:"token"`
	PassURL       string             `json:"pass_url"`
	RequestedBy   string             `json:"requested_by"`
	RequestedAt   string             `json:"requested_at"`
}

// EntryRecordedEvent is streamed after every accepted check-in.
type EntryRecordedEvent struct {
	BookingID     string `json:"booking_id"`
	DisplayID     string `json:"display_id"`
	People        int    `json:"people"`
	PeopleEntered int    `json:"people_entered"`
	TotalPeople   int    `json:"total_people"`
	ScannedBy     string `json:"scanned_by"`
	StaffID       uint64 `json:"staff_id"`
	EnteredAt     string `json:"entered_at"`
}
