// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// whatsappPrefix is the channel tag Twilio puts in front of WhatsApp numbers.
const whatsappPrefix = "whatsapp:"

// StripChannel removes the WhatsApp channel prefix from a Twilio address.
func StripChannel(input string) string {
	return strings.TrimPrefix(strings.TrimSpace(input), whatsappPrefix)
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := StripChannel(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
