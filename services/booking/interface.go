package booking

import (
	"context"

	"guestara/services/automation"
	"guestara/services/rates"
	"guestara/services/session"

	"go.uber.org/zap"
)

// SearchRequest carries the arguments of the search tool plus the caller's
// number from the call metadata.
type SearchRequest struct {
	CheckInDate  string
	CheckOutDate string
	Adults       int
	Occasion     string
	CallerPhone  string
}

type SelectRoomRequest struct {
	RoomChoice  int
	CallerPhone string
}

// CompleteBookingRequest carries the guest contact block and card details
// collected by voice. Phone falls back to the session's caller number when
// the tool did not supply one.
type CompleteBookingRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	ZipCode   string
	City      string
	State     string
	Country   string

	CardNumber     string
	ExpiryMonth    string
	ExpiryYear     string
	CVV            string
	CardholderName string

	CallerPhone string
}

type ResetRequest struct {
	SessionID   string
	CallerPhone string
}

// StepResult is the outcome of one tool invocation: a spoken message for
// the voice layer plus structured data threaded into later tool calls.
// Success=false means a corrective prompt with no session mutation.
type StepResult struct {
	Message string
	Success bool
	Data    map[string]interface{}
}

// VoiceBookingService is the booking state machine driven by webhook tool
// calls. Every method converts validation and upstream failures into
// corrective StepResults; a non-nil error means a store-level fault the
// handler must answer with an apology.
type VoiceBookingService interface {
	StartSearch(ctx context.Context, req SearchRequest) (*StepResult, error)
	SelectRoom(ctx context.Context, req SelectRoomRequest) (*StepResult, error)
	CompleteBooking(ctx context.Context, req CompleteBookingRequest) (*StepResult, error)
	Reset(ctx context.Context, req ResetRequest) (*StepResult, error)
}

// DefaultVoiceBookingService wires the session store against the rate
// provider and the browser-automation collaborator.
type DefaultVoiceBookingService struct {
	Sessions   session.Store
	Rates      rates.Provider
	Automation automation.Client
	HotelCode  string
	HotelName  string
	Logger     *zap.Logger
}

func NewVoiceBookingService(sessions session.Store, ratesProvider rates.Provider, automationClient automation.Client, hotelCode, hotelName string, logger *zap.Logger) *DefaultVoiceBookingService {
	return &DefaultVoiceBookingService{
		Sessions:   sessions,
		Rates:      ratesProvider,
		Automation: automationClient,
		HotelCode:  hotelCode,
		HotelName:  hotelName,
		Logger:     logger,
	}
}
