// File: handlers/webhook.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"guestara/models"
	"guestara/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Tool names the voice platform dispatches to this backend.
const (
	ToolSearchHotel     = "search_hotel"
	ToolSelectRoom      = "select_room"
	ToolCompleteBooking = "complete_booking"
	ToolStartOver       = "start_over"
)

// WebhookHandler answers the voice platform's tool invocations. Every tool
// call gets a spoken result back, even when everything underneath is on
// fire.
type WebhookHandler struct {
	Booking booking.VoiceBookingService
	Logger  *zap.Logger
}

func NewWebhookHandler(bookingSvc booking.VoiceBookingService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Booking: bookingSvc, Logger: logger}
}

// HandleWebhook is the main webhook endpoint for voice platform messages.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Logger.Warn("Invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	// Only function calls need handling; the platform manages the
	// conversation itself.
	switch payload.Message.Type {
	case models.MessageTypeToolCalls, models.MessageTypeFunctionCall:
		h.handleFunctionCall(c, &payload)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}
}

// TestWebhook verifies the voice platform integration is reachable.
func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Webhook is working!",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *WebhookHandler) handleFunctionCall(c *gin.Context, payload *models.WebhookPayload) {
	name, args, toolCallID := extractFunctionCall(payload)
	if name == "" {
		h.Logger.Warn("No tool calls or function calls found in message")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No function calls found"})
		return
	}

	callerPhone := extractCallerPhone(payload)
	h.Logger.Info("Function call received",
		zap.String("function", name),
		zap.String("toolCallID", toolCallID))

	ctx := c.Request.Context()
	var (
		result *booking.StepResult
		err    error
	)
	switch name {
	case ToolSearchHotel:
		result, err = h.Booking.StartSearch(ctx, booking.SearchRequest{
			CheckInDate:  argString(args, "check_in_date"),
			CheckOutDate: argString(args, "check_out_date"),
			Adults:       argInt(args, "adults", argInt(args, "guests", 2)),
			Occasion:     argString(args, "occasion"),
			CallerPhone:  callerPhone,
		})
	case ToolSelectRoom:
		result, err = h.Booking.SelectRoom(ctx, booking.SelectRoomRequest{
			RoomChoice:  argInt(args, "room_choice", 1),
			CallerPhone: callerPhone,
		})
	case ToolCompleteBooking:
		result, err = h.Booking.CompleteBooking(ctx, booking.CompleteBookingRequest{
			FirstName:      argString(args, "first_name"),
			LastName:       argString(args, "last_name"),
			Email:          argString(args, "email"),
			Phone:          argString(args, "phone"),
			Address:        argString(args, "address"),
			ZipCode:        argString(args, "zip_code"),
			City:           argString(args, "city"),
			State:          argString(args, "state"),
			Country:        argString(args, "country"),
			CardNumber:     argString(args, "card_number"),
			ExpiryMonth:    argString(args, "expiry_month"),
			ExpiryYear:     argString(args, "expiry_year"),
			CVV:            argString(args, "cvv"),
			CardholderName: argString(args, "cardholder_name"),
			CallerPhone:    callerPhone,
		})
	case ToolStartOver:
		result, err = h.Booking.Reset(ctx, booking.ResetRequest{
			SessionID:   argString(args, "session_id"),
			CallerPhone: callerPhone,
		})
	default:
		h.Logger.Warn("Unknown function call", zap.String("function", name))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown function: " + name})
		return
	}

	if err != nil {
		// Store-level fault: log the detail, speak an apology. The voice
		// platform needs a spoken result for every invocation.
		h.Logger.Error("Function call failed",
			zap.String("function", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope(toolCallID,
			"I'm having trouble processing that right now. Please try again in a moment.", nil))
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, envelope(toolCallID, result.Message, result.Data))
}

func envelope(toolCallID, message string, data map[string]interface{}) models.WebhookResponse {
	return models.WebhookResponse{
		Results: []models.ToolCallResult{{
			ToolCallID: toolCallID,
			Result:     message,
			Data:       data,
		}},
	}
}

// extractFunctionCall pulls the function name, arguments, and tool-call id
// out of either envelope format the platform sends.
func extractFunctionCall(payload *models.WebhookPayload) (string, map[string]interface{}, string) {
	if calls := payload.Message.ToolCalls; len(calls) > 0 {
		call := calls[0]
		return call.Function.Name, parseArguments(call.Function.Arguments), call.ID
	}
	if fc := payload.Message.FunctionCall; fc != nil {
		params := fc.Parameters
		if params == nil {
			params = map[string]interface{}{}
		}
		return fc.Name, params, "unknown"
	}
	return "", nil, ""
}

// parseArguments decodes tool arguments, which may arrive either as a JSON
// object or as a JSON-encoded string.
func parseArguments(raw json.RawMessage) map[string]interface{} {
	args := map[string]interface{}{}
	if len(raw) == 0 {
		return args
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return args
		}
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			zap.L().Warn("Failed to parse arguments JSON", zap.String("arguments", s))
		}
		return args
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		zap.L().Warn("Failed to parse arguments JSON", zap.Error(err))
	}
	return args
}

// extractCallerPhone reads the caller number from the call metadata, with
// the alternate top-level customer path as fallback.
func extractCallerPhone(payload *models.WebhookPayload) string {
	if n := payload.Call.Customer.Number; n != "" {
		return n
	}
	if payload.Customer != nil {
		return payload.Customer.Number
	}
	return ""
}
