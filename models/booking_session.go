package models

import "time"

// Booking steps. A session only ever moves forward through these; the only
// way back is deleting the session entirely.
const (
	StepSearchCompleted  = "search_completed"
	StepRoomSelected     = "room_selected"
	StepBookingCompleted = "booking_completed"
)

// Session status values.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// RoomOption is one priced, bookable offer surfaced to the caller. Options
// are immutable once captured at search time.
type RoomOption struct {
	ChoiceNumber   int     `json:"choice_number"`
	RoomCode       string  `json:"room_code"`
	RoomName       string  `json:"room_name"`
	RatePackage    string  `json:"rate_package"`
	PriceBeforeTax float64 `json:"price_before_tax"`
	TotalWithFees  float64 `json:"total_with_fees"`
	// RateData carries the full provider rate so the browser automation
	// service can match the exact offer on the hotel site.
	RateData Rate `json:"rate_data"`
}

// GuestInfo is the contact block collected before completing a booking.
type GuestInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	ZipCode   string `json:"zip_code"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
}

// PaymentSummary is what survives of the card after a booking completes.
// The full card number and CVV are never persisted.
type PaymentSummary struct {
	CardholderName string `json:"cardholder_name"`
	CardLastFour   string `json:"card_last_four"`
	ExpiryMonth    string `json:"expiry_month"`
	ExpiryYear     string `json:"expiry_year"`
}

// BookingSession holds booking flow context between webhook tool calls.
type BookingSession struct {
	SessionID   string `json:"session_id"`
	CallerPhone string `json:"caller_phone"`
	Step        string `json:"step"`
	Status      string `json:"status"`
	Hotel       string `json:"hotel"`

	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Guests       int    `json:"guests"`
	Occasion     string `json:"occasion,omitempty"`

	RoomOptions  []RoomOption `json:"room_options,omitempty"`
	RoomChoice   int          `json:"room_choice,omitempty"`
	SelectedRoom *RoomOption  `json:"selected_room,omitempty"`

	GuestInfo   *GuestInfo      `json:"guest_info,omitempty"`
	PaymentInfo *PaymentSummary `json:"payment_info,omitempty"`

	// Handles correlating this session with an external browser-automation
	// run. Unset when the handshake never succeeded.
	BrowserSessionID  string `json:"browser_session_id,omitempty"`
	BrowserCustomerID string `json:"browser_customer_id,omitempty"`

	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	// UnconfirmedFallback marks confirmations synthesized locally because
	// the automation collaborator never returned one.
	UnconfirmedFallback bool `json:"unconfirmed_fallback,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
