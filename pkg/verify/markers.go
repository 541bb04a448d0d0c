// Package verify cross-checks a finished conversation against the two
// independent truth sources: the bookings table and the captured outbound
// messages. It also exposes the terminal-marker probes the driver polls
// mid-conversation.
package verify

import (
	"strings"

	"github.com/villacarmen/bookprobe/pkg/gateway"
)

const (
	// ConfirmationHeader prefixes the customer-facing confirmation, which the
	// agent sends as a button menu.
	ConfirmationHeader = "*Confirmación de Reserva"
	// AdminNotificationMarker appears in the plain-text notification the agent
	// sends to the operator after inserting a booking.
	AdminNotificationMarker = "Nueva reserva insertada por el Asistente IA"
	// FailureMenuPhrase appears in the list menu the agent sends when rice
	// input could not be resolved — a terminal failure for the conversation.
	FailureMenuPhrase = "Elige uno de nuestros arroces"
)

// ConfirmationSeen reports whether a customer confirmation menu has been
// captured in the given messages.
func ConfirmationSeen(msgs []gateway.CapturedMessage) bool {
	for _, m := range msgs {
		if m.Type == "menu_button" && strings.HasPrefix(m.Text, ConfirmationHeader) {
			return true
		}
	}
	return false
}

// FailureMenuSeen reports whether the terminal rice-failure menu has been
// captured in the given messages.
func FailureMenuSeen(msgs []gateway.CapturedMessage) bool {
	for _, m := range msgs {
		if m.Type == "menu_list" && strings.Contains(m.Text, FailureMenuPhrase) {
			return true
		}
	}
	return false
}
