package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"guestara/models"
)

// ValidationResult is a structured pass/fail outcome. Validators never
// mutate the session and never panic; every failure carries the corrective
// message read back to the caller.
type ValidationResult struct {
	OK            bool
	Message       string
	MissingFields []string
}

func valid() ValidationResult {
	return ValidationResult{OK: true}
}

func invalid(message string, missing ...string) ValidationResult {
	return ValidationResult{OK: false, Message: message, MissingFields: missing}
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// validateRoomChoice checks the choice against the enumerated options and
// returns the matching option on success.
func validateRoomChoice(choice int, options []models.RoomOption) (*models.RoomOption, ValidationResult) {
	for i := range options {
		if options[i].ChoiceNumber == choice {
			return &options[i], valid()
		}
	}
	return nil, invalid(fmt.Sprintf("Please choose a room between 1 and %d from the search results.", len(options)))
}

// friendlyGuestFields maps argument names to how they are spoken back.
var friendlyGuestFields = []struct {
	name     string
	friendly string
	value    func(*CompleteBookingRequest) string
}{
	{"first_name", "first name", func(r *CompleteBookingRequest) string { return r.FirstName }},
	{"last_name", "last name", func(r *CompleteBookingRequest) string { return r.LastName }},
	{"email", "email address", func(r *CompleteBookingRequest) string { return r.Email }},
	{"phone", "phone number", func(r *CompleteBookingRequest) string { return r.Phone }},
	{"address", "street address", func(r *CompleteBookingRequest) string { return r.Address }},
	{"zip_code", "zip code", func(r *CompleteBookingRequest) string { return r.ZipCode }},
	{"city", "city", func(r *CompleteBookingRequest) string { return r.City }},
	{"state", "state", func(r *CompleteBookingRequest) string { return r.State }},
	{"country", "country", func(r *CompleteBookingRequest) string { return r.Country }},
}

// validateGuestInfo checks the contact block for completeness, naming every
// missing field in friendly prose.
func validateGuestInfo(req *CompleteBookingRequest) ValidationResult {
	var missing []string
	for _, f := range friendlyGuestFields {
		if strings.TrimSpace(f.value(req)) == "" {
			missing = append(missing, f.friendly)
		}
	}
	if len(missing) == 0 {
		return valid()
	}
	return invalid(fmt.Sprintf("I still need your %s", joinProse(missing)), missing...)
}

// validatePayment applies the payment gates in order, short-circuiting on
// the first failure. now anchors the expiry check: a card expiring in the
// current month/year is still valid.
func validatePayment(req *CompleteBookingRequest, now time.Time) ValidationResult {
	var missing []string
	if strings.TrimSpace(req.CardNumber) == "" {
		missing = append(missing, "card number")
	}
	if strings.TrimSpace(req.ExpiryMonth) == "" {
		missing = append(missing, "expiry month")
	}
	if strings.TrimSpace(req.ExpiryYear) == "" {
		missing = append(missing, "expiry year")
	}
	if strings.TrimSpace(req.CVV) == "" {
		missing = append(missing, "CVV")
	}
	if strings.TrimSpace(req.CardholderName) == "" {
		missing = append(missing, "cardholder name")
	}
	if len(missing) > 0 {
		return invalid(fmt.Sprintf("I still need your %s to complete the booking.", strings.Join(missing, " and ")), missing...)
	}

	if !emailPattern.MatchString(req.Email) {
		return invalid("Please provide a valid email address.", "email")
	}

	phoneDigits := nonDigits.ReplaceAllString(req.Phone, "")
	if len(phoneDigits) < 10 {
		return invalid("Please provide a valid phone number with at least 10 digits.", "phone")
	}

	cardDigits := nonDigits.ReplaceAllString(req.CardNumber, "")
	if len(cardDigits) < 13 || len(cardDigits) > 19 {
		return invalid("Please provide a valid credit card number.", "card number")
	}

	month, errM := strconv.Atoi(strings.TrimSpace(req.ExpiryMonth))
	year, errY := strconv.Atoi(strings.TrimSpace(req.ExpiryYear))
	if errM != nil || errY != nil {
		return invalid("Please provide valid expiry month and year.", "expiry month", "expiry year")
	}
	if month < 1 || month > 12 {
		return invalid("Please provide a valid expiry month (01-12).", "expiry month")
	}
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return invalid("This card appears to be expired. Please provide a valid card.", "expiry month", "expiry year")
	}

	cvvDigits := nonDigits.ReplaceAllString(req.CVV, "")
	if len(cvvDigits) < 3 || len(cvvDigits) > 4 {
		return invalid("Please provide a valid CVV (3 or 4 digits).", "CVV")
	}

	return valid()
}

// joinProse renders "a", "a and b", or "a, b and c".
func joinProse(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// cardLastFour returns the redacted tail stored in the payment summary.
func cardLastFour(cardNumber string) string {
	digits := nonDigits.ReplaceAllString(cardNumber, "")
	if len(digits) < 4 {
		return "XXXX"
	}
	return digits[len(digits)-4:]
}

// padMonth normalizes a spoken month to two digits for the booking site.
func padMonth(month string) string {
	m := strings.TrimSpace(month)
	if len(m) == 1 {
		return "0" + m
	}
	return m
}
