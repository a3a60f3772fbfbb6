package booking

import (
	"fmt"
	"strings"

	"guestara/models"
)

// roomNames maps the property's room codes to names a caller can hear.
var roomNames = map[string]string{
	"PRDD":  "Proper Double Room",
	"PRKG":  "Proper King Room",
	"JSTE":  "Junior Suite",
	"PSTE":  "Proper Suite",
	"JS1DD": "Junior Suite with Double Beds",
	"JS1PK": "Junior Suite with King Bed",
	"PK1DD": "Proper King Room with Double Beds",
	"BUNK":  "Bunk Room",
}

// RoomName converts a room code to a human-readable room name.
func RoomName(roomCode string) string {
	if name, ok := roomNames[roomCode]; ok {
		return name
	}
	return fmt.Sprintf("%s Room", roomCode)
}

// buildRoomOptions numbers every returned rate as a choice the caller can
// pick by saying its number. No filtering happens here: all options are
// surfaced and the voice layer reasons over them.
func buildRoomOptions(allRates []models.Rate) []models.RoomOption {
	options := make([]models.RoomOption, 0, len(allRates))
	for i, rate := range allRates {
		options = append(options, models.RoomOption{
			ChoiceNumber:   i + 1,
			RoomCode:       rate.RoomCode,
			RoomName:       RoomName(rate.RoomCode),
			RatePackage:    rate.Description,
			PriceBeforeTax: rate.BasePriceBeforeTax,
			TotalWithFees:  rate.Tax.TotalWithTaxesAndFees,
			RateData:       rate,
		})
	}
	return options
}

// describeRoom renders "Room Name (Rate Package)" for spoken responses,
// dropping the package when it adds nothing.
func describeRoom(opt *models.RoomOption) string {
	if opt.RatePackage != "" && opt.RatePackage != opt.RoomName {
		return fmt.Sprintf("%s (%s)", opt.RoomName, opt.RatePackage)
	}
	return opt.RoomName
}

// describeOptions renders the numbered list read to the caller after a
// search.
func describeOptions(options []models.RoomOption) string {
	lines := make([]string, 0, len(options))
	for i := range options {
		opt := &options[i]
		lines = append(lines, fmt.Sprintf("%d. %s - $%.0f per night, $%.0f total with taxes and fees",
			opt.ChoiceNumber, describeRoom(opt), opt.PriceBeforeTax, opt.TotalWithFees))
	}
	return strings.Join(lines, "\n")
}
