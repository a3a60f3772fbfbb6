// File: services/automation/client.go
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"guestara/models"

	"go.uber.org/zap"
)

// Per-operation budgets. Completion is allowed longer since it drives a real
// multi-step browser flow on the hotel site.
const (
	searchTimeout   = 30 * time.Second
	selectTimeout   = 30 * time.Second
	completeTimeout = 60 * time.Second
	fullTimeout     = 120 * time.Second
)

// ErrNoConfirmation is returned when the service reports success without a
// confirmation number, or reports failure outright.
var ErrNoConfirmation = errors.New("automation service returned no confirmation number")

// SessionHandle correlates a booking session with a browser-automation run.
type SessionHandle struct {
	SessionID  string
	CustomerID string
}

// RoomSelection names the exact offer to lock in on the hotel site.
type RoomSelection struct {
	CheckInDate  string
	CheckOutDate string
	RateCode     string
	RoomCode     string
	Guests       int
}

// CardDetails crosses this process boundary exactly once, on the way to the
// automation service; it is never stored.
type CardDetails struct {
	Number         string
	ExpiryMonth    string
	ExpiryYear     string
	CVV            string
	CardholderName string
}

// BookingOrder is everything the automation service needs to finish a
// booking: guest contact block, the selected offer, and payment.
type BookingOrder struct {
	Guest     models.GuestInfo
	Selection RoomSelection
	Payment   CardDetails
}

// Client drives the external browser-automation service.
type Client interface {
	// StartSession opens a browser run for the given stay dates.
	StartSession(ctx context.Context, checkInDate, checkOutDate string) (*SessionHandle, error)
	// SelectRoom locks the offer in an existing run.
	SelectRoom(ctx context.Context, handle SessionHandle, sel RoomSelection) error
	// CompleteBooking finishes the booking in an existing run and returns
	// the confirmation number.
	CompleteBooking(ctx context.Context, handle SessionHandle, order BookingOrder) (string, error)
	// CompleteBookingFull runs the whole flow in one call, for sessions
	// that never got a handle.
	CompleteBookingFull(ctx context.Context, order BookingOrder) (string, error)
}

// HTTPClient implements Client against the automation service's REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	// Timeouts are per-operation via context; the transport-level timeout
	// only backstops the slowest allowed call.
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: fullTimeout + 10*time.Second},
		logger:     logger,
	}
}

type roomPayload struct {
	RateCode string `json:"rateCode"`
	RoomCode string `json:"roomCode"`
	Guests   int    `json:"guests"`
	Children int    `json:"children"`
}

type guestPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type bookingDetailsPayload struct {
	CheckInDate  string        `json:"checkInDate"`
	CheckOutDate string        `json:"checkOutDate"`
	Rooms        []roomPayload `json:"rooms"`
}

type paymentPayload struct {
	CreditCardNumber string `json:"creditCardNumber"`
	ExpiryMonth      string `json:"expiryMonth"`
	ExpiryYear       string `json:"expiryYear"`
	CVV              string `json:"cvv"`
	CardholderName   string `json:"cardholderName"`
}

type automationResponse struct {
	Success            bool   `json:"success"`
	SessionID          string `json:"sessionId"`
	CustomerID         string `json:"customerId"`
	ConfirmationNumber string `json:"confirmationNumber"`
	Error              string `json:"error"`
}

func (c *HTTPClient) StartSession(ctx context.Context, checkInDate, checkOutDate string) (*SessionHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	body := map[string]string{
		"checkInDate":  checkInDate,
		"checkOutDate": checkOutDate,
	}
	var resp automationResponse
	if err := c.post(ctx, "/book/search", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.SessionID == "" {
		return nil, fmt.Errorf("automation search did not start a session: %s", resp.Error)
	}
	return &SessionHandle{SessionID: resp.SessionID, CustomerID: resp.CustomerID}, nil
}

func (c *HTTPClient) SelectRoom(ctx context.Context, handle SessionHandle, sel RoomSelection) error {
	ctx, cancel := context.WithTimeout(ctx, selectTimeout)
	defer cancel()

	body := map[string]interface{}{
		"checkInDate":  sel.CheckInDate,
		"checkOutDate": sel.CheckOutDate,
		"rooms": []roomPayload{{
			RateCode: sel.RateCode,
			RoomCode: sel.RoomCode,
			Guests:   sel.Guests,
		}},
		"sessionId":  handle.SessionID,
		"customerId": handle.CustomerID,
	}
	var resp automationResponse
	if err := c.post(ctx, "/book/start", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("automation room selection failed: %s", resp.Error)
	}
	return nil
}

func (c *HTTPClient) CompleteBooking(ctx context.Context, handle SessionHandle, order BookingOrder) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completeTimeout)
	defer cancel()

	body := c.orderPayload(order)
	body["sessionId"] = handle.SessionID
	body["customerId"] = handle.CustomerID

	var resp automationResponse
	if err := c.post(ctx, "/book/complete", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.ConfirmationNumber == "" {
		return "", ErrNoConfirmation
	}
	return resp.ConfirmationNumber, nil
}

func (c *HTTPClient) CompleteBookingFull(ctx context.Context, order BookingOrder) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fullTimeout)
	defer cancel()

	var resp automationResponse
	if err := c.post(ctx, "/book/full", c.orderPayload(order), &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.ConfirmationNumber == "" {
		return "", ErrNoConfirmation
	}
	return resp.ConfirmationNumber, nil
}

func (c *HTTPClient) orderPayload(order BookingOrder) map[string]interface{} {
	return map[string]interface{}{
		"guestInfo": guestPayload{
			FirstName: order.Guest.FirstName,
			LastName:  order.Guest.LastName,
			Email:     order.Guest.Email,
			Phone:     order.Guest.Phone,
			Address:   order.Guest.Address,
		},
		"bookingDetails": bookingDetailsPayload{
			CheckInDate:  order.Selection.CheckInDate,
			CheckOutDate: order.Selection.CheckOutDate,
			Rooms: []roomPayload{{
				RateCode: order.Selection.RateCode,
				RoomCode: order.Selection.RoomCode,
				Guests:   order.Selection.Guests,
			}},
		},
		"paymentInfo": paymentPayload{
			CreditCardNumber: order.Payment.Number,
			ExpiryMonth:      order.Payment.ExpiryMonth,
			ExpiryYear:       order.Payment.ExpiryYear,
			CVV:              order.Payment.CVV,
			CardholderName:   order.Payment.CardholderName,
		},
	}
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out *automationResponse) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal automation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to build automation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("automation request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("automation %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode automation response: %w", err)
	}
	return nil
}
