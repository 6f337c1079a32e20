// Package events defines the topics, CloudEvent types and payloads exchanged over Kafka.
package events

import "time"

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types published by this service.
const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingDeleted   = "booking.deleted"
)

// Payment event types consumed by this service.
const (
	PaymentPrepaymentReceived = "payment.prepayment_received"
)

// BookingEvent is the payload of every booking.* event.
type BookingEvent struct {
	BookingID    int64     `json:"booking_id"`
	RoomID       int64     `json:"room_id"`
	PetIDs       []int64   `json:"pet_ids"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	CheckInDate  string    `json:"check_in_date"`
	CheckOutDate string    `json:"check_out_date"`
	ChangedBy    int64     `json:"changed_by,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PrepaymentReceivedEvent is published by the payment service when a deposit clears.
type PrepaymentReceivedEvent struct {
	BookingID  int64     `json:"booking_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
