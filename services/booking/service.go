// File: services/booking/service.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guestara/models"
	"guestara/services/automation"
	"guestara/services/session"
	"guestara/utils"

	"go.uber.org/zap"
)

// StartSearch fetches every available rate for the property, creates a new
// booking session in search_completed keyed to the caller's number, and
// best-effort opens a correlated browser-automation run. No rates means no
// session.
func (s *DefaultVoiceBookingService) StartSearch(ctx context.Context, req SearchRequest) (*StepResult, error) {
	if req.CheckInDate == "" || req.CheckOutDate == "" {
		return &StepResult{
			Message: "I need check-in and check-out dates to search for hotel rates.",
		}, nil
	}
	if req.Adults <= 0 {
		req.Adults = 2
	}

	allRates, err := s.Rates.GetRates(ctx, s.HotelCode, req.CheckInDate, req.CheckOutDate, req.Adults, 0)
	if err != nil {
		s.Logger.Error("Rate provider call failed", zap.Error(err))
		return &StepResult{
			Message: "I'm having trouble getting hotel rates right now. Please try again.",
		}, nil
	}
	if len(allRates) == 0 {
		return &StepResult{
			Message: fmt.Sprintf("I'm sorry, I couldn't find any available rates for %s for those dates.", s.HotelName),
		}, nil
	}

	options := buildRoomOptions(allRates)
	sess := &models.BookingSession{
		SessionID:    session.NewSessionID(time.Now()),
		CallerPhone:  utils.NormalizePhone(req.CallerPhone),
		Step:         models.StepSearchCompleted,
		Hotel:        s.HotelCode,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		Guests:       req.Adults,
		Occasion:     req.Occasion,
		RoomOptions:  options,
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create booking session: %w", err)
	}

	// Best effort: a failed handshake leaves the handles unset and never
	// blocks the search result.
	if handle, err := s.Automation.StartSession(ctx, req.CheckInDate, req.CheckOutDate); err != nil {
		s.Logger.Warn("Failed to start browser automation session", zap.Error(err))
	} else {
		if _, err := s.Sessions.Update(ctx, sess.SessionID, func(bs *models.BookingSession) {
			bs.BrowserSessionID = handle.SessionID
			bs.BrowserCustomerID = handle.CustomerID
		}); err != nil {
			s.Logger.Warn("Failed to record browser automation handles", zap.Error(err))
		}
	}

	guestWord := "guests"
	if req.Adults == 1 {
		guestWord = "guest"
	}
	message := fmt.Sprintf("Perfect! I found %d available options for your stay from %s to %s for %d %s:\n\n%s",
		len(options), req.CheckInDate, req.CheckOutDate, req.Adults, guestWord, describeOptions(options))

	s.Logger.Info("Hotel search completed",
		zap.String("sessionID", sess.SessionID),
		zap.Int("options", len(options)))

	return &StepResult{
		Message: message,
		Success: true,
		Data: map[string]interface{}{
			"session_id":       sess.SessionID,
			"room_options":     options,
			"search_completed": true,
		},
	}, nil
}

// SelectRoom resolves the caller's session, validates the spoken choice
// against the offered options, and advances the session to room_selected.
// The automation notification is best effort.
func (s *DefaultVoiceBookingService) SelectRoom(ctx context.Context, req SelectRoomRequest) (*StepResult, error) {
	sess, result, err := s.resolveSession(ctx, req.CallerPhone,
		"I couldn't find your booking session. Please search for hotels first.")
	if sess == nil {
		return result, err
	}

	if sess.Step == models.StepBookingCompleted {
		return &StepResult{
			Message: "That booking is already confirmed. If you'd like to make another reservation, just ask me to start over.",
		}, nil
	}
	if len(sess.RoomOptions) == 0 {
		return &StepResult{
			Message: "I couldn't find the room options. Please search for hotels again.",
		}, nil
	}

	selected, vr := validateRoomChoice(req.RoomChoice, sess.RoomOptions)
	if !vr.OK {
		return &StepResult{Message: vr.Message}, nil
	}

	updated, err := s.Sessions.Update(ctx, sess.SessionID, func(bs *models.BookingSession) {
		bs.Step = models.StepRoomSelected
		bs.RoomChoice = req.RoomChoice
		bs.SelectedRoom = selected
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save room selection: %w", err)
	}

	if sess.BrowserSessionID != "" && sess.BrowserCustomerID != "" {
		handle := automation.SessionHandle{
			SessionID:  sess.BrowserSessionID,
			CustomerID: sess.BrowserCustomerID,
		}
		sel := automation.RoomSelection{
			CheckInDate:  sess.CheckInDate,
			CheckOutDate: sess.CheckOutDate,
			RateCode:     selected.RateData.Code,
			RoomCode:     selected.RateData.RoomCode,
			Guests:       sess.Guests,
		}
		if err := s.Automation.SelectRoom(ctx, handle, sel); err != nil {
			s.Logger.Warn("Browser automation room selection failed", zap.Error(err))
		}
	}

	s.Logger.Info("Room selected",
		zap.String("sessionID", sess.SessionID),
		zap.Int("choice", req.RoomChoice))

	return &StepResult{
		Message: fmt.Sprintf("Perfect! I've selected the %s at $%.0f per night. Now I need your information to complete the booking. What name should I put the reservation under?",
			describeRoom(selected), selected.PriceBeforeTax),
		Success: true,
		Data: map[string]interface{}{
			"session_id":    updated.SessionID,
			"selected_room": selected,
			"next_step":     "collect_guest_and_payment_info",
		},
	}, nil
}

// CompleteBooking validates the collected guest and payment details, drives
// the automation collaborator to execute the real booking, and advances the
// session to its terminal step. When the collaborator yields no
// confirmation, a fallback number is synthesized so the caller is never
// left without one.
func (s *DefaultVoiceBookingService) CompleteBooking(ctx context.Context, req CompleteBookingRequest) (*StepResult, error) {
	sess, result, err := s.resolveSession(ctx, req.CallerPhone,
		"I couldn't find your booking session. Please start the booking process again.")
	if sess == nil {
		return result, err
	}

	if sess.Step == models.StepBookingCompleted {
		return &StepResult{
			Message: fmt.Sprintf("This booking is already confirmed. Your confirmation number is %s.", sess.ConfirmationNumber),
		}, nil
	}
	if sess.SelectedRoom == nil {
		return &StepResult{
			Message: "I need you to select a room first. Please start the booking process again.",
		}, nil
	}

	// The caller's number was captured at search time; only fall back to a
	// spoken phone number when it wasn't.
	if sess.CallerPhone != "" {
		req.Phone = sess.CallerPhone
	}

	if vr := validateGuestInfo(&req); !vr.OK {
		return &StepResult{
			Message: vr.Message,
			Data:    map[string]interface{}{"missing_fields": vr.MissingFields},
		}, nil
	}
	if vr := validatePayment(&req, time.Now()); !vr.OK {
		return &StepResult{
			Message: vr.Message,
			Data:    map[string]interface{}{"missing_fields": vr.MissingFields},
		}, nil
	}

	guest := models.GuestInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		ZipCode:   req.ZipCode,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
	}
	order := automation.BookingOrder{
		Guest: guest,
		Selection: automation.RoomSelection{
			CheckInDate:  sess.CheckInDate,
			CheckOutDate: sess.CheckOutDate,
			RateCode:     sess.SelectedRoom.RateData.Code,
			RoomCode:     sess.SelectedRoom.RateData.RoomCode,
			Guests:       sess.Guests,
		},
		Payment: automation.CardDetails{
			Number:         req.CardNumber,
			ExpiryMonth:    padMonth(req.ExpiryMonth),
			ExpiryYear:     req.ExpiryYear,
			CVV:            req.CVV,
			CardholderName: req.CardholderName,
		},
	}

	confirmation, confErr := s.executeBooking(ctx, sess, order)
	fallback := false
	if confErr != nil {
		s.Logger.Warn("Browser automation booking failed, falling back to synthesized confirmation",
			zap.String("sessionID", sess.SessionID), zap.Error(confErr))
		confirmation = fallbackConfirmation()
		fallback = true
	}

	completedAt := time.Now()
	if _, err := s.Sessions.Update(ctx, sess.SessionID, func(bs *models.BookingSession) {
		bs.Step = models.StepBookingCompleted
		bs.Status = models.StatusCompleted
		bs.ConfirmationNumber = confirmation
		bs.UnconfirmedFallback = fallback
		bs.GuestInfo = &guest
		bs.PaymentInfo = &models.PaymentSummary{
			CardholderName: req.CardholderName,
			CardLastFour:   cardLastFour(req.CardNumber),
			ExpiryMonth:    padMonth(req.ExpiryMonth),
			ExpiryYear:     req.ExpiryYear,
		}
		bs.CompletedAt = &completedAt
	}); err != nil {
		// The booking itself went through; losing the session write is a
		// diagnostic problem, not a caller-facing one.
		s.Logger.Warn("Failed to record completed booking in session",
			zap.String("sessionID", sess.SessionID), zap.Error(err))
	}

	s.Logger.Info("Booking completed",
		zap.String("sessionID", sess.SessionID),
		zap.String("confirmation", confirmation),
		zap.Bool("fallback", fallback))

	return &StepResult{
		Message: fmt.Sprintf("Excellent! Your reservation has been confirmed, %s. Your confirmation number is %s. You'll receive a confirmation email at %s shortly with all the details. Thank you for choosing %s!",
			req.FirstName, confirmation, req.Email, s.HotelName),
		Success: true,
		Data: map[string]interface{}{
			"session_id":          sess.SessionID,
			"confirmation_number": confirmation,
			"booking_completed":   true,
		},
	}, nil
}

// executeBooking runs the automation completion call, preferring the
// existing browser run and falling back to the one-shot full flow when the
// search-time handshake never happened.
func (s *DefaultVoiceBookingService) executeBooking(ctx context.Context, sess *models.BookingSession, order automation.BookingOrder) (string, error) {
	if sess.BrowserSessionID != "" && sess.BrowserCustomerID != "" {
		handle := automation.SessionHandle{
			SessionID:  sess.BrowserSessionID,
			CustomerID: sess.BrowserCustomerID,
		}
		return s.Automation.CompleteBooking(ctx, handle, order)
	}
	s.Logger.Info("No browser session found, using full booking flow",
		zap.String("sessionID", sess.SessionID))
	return s.Automation.CompleteBookingFull(ctx, order)
}

// Reset deletes the caller's session (or the explicitly named one). It
// always reports success so the voice interaction stays smooth, and tells
// the truth about whether anything was cleared in the structured data.
func (s *DefaultVoiceBookingService) Reset(ctx context.Context, req ResetRequest) (*StepResult, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		if sess, err := s.Sessions.ResolveByCaller(ctx, utils.NormalizePhone(req.CallerPhone)); err == nil {
			sessionID = sess.SessionID
		} else if !errors.Is(err, session.ErrNotFound) {
			s.Logger.Warn("Failed to resolve session for reset", zap.Error(err))
		}
	}

	cleared := false
	if sessionID != "" {
		switch err := s.Sessions.Delete(ctx, sessionID); {
		case err == nil:
			cleared = true
		case errors.Is(err, session.ErrNotFound):
			s.Logger.Info("Session not found or already cleared", zap.String("sessionID", sessionID))
		default:
			s.Logger.Warn("Failed to clear session", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}

	return &StepResult{
		Message: fmt.Sprintf("Absolutely! I've cleared your current booking. Let's start fresh - what dates would you like to stay at %s?", s.HotelName),
		Success: true,
		Data: map[string]interface{}{
			"action":          "start_over",
			"session_cleared": cleared,
			"next_step":       "collect_dates",
		},
	}, nil
}

// resolveSession locates the caller's session from their number. A nil
// session return means the caller should receive the accompanying
// StepResult (or the error, for store faults).
func (s *DefaultVoiceBookingService) resolveSession(ctx context.Context, callerPhone, notFoundMessage string) (*models.BookingSession, *StepResult, error) {
	digits := utils.NormalizePhone(callerPhone)
	if digits == "" {
		return nil, &StepResult{Message: notFoundMessage}, nil
	}

	sess, err := s.Sessions.ResolveByCaller(ctx, digits)
	if errors.Is(err, session.ErrNotFound) {
		return nil, &StepResult{Message: notFoundMessage}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve session for caller: %w", err)
	}
	return sess, nil, nil
}
