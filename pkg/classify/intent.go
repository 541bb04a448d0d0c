// Package classify maps the agent's free-text replies onto a fixed set of
// negotiation intents. The rules are shallow keyword/pattern heuristics by
// design: the point is a deterministic, inspectable priority chain, not
// language understanding.
package classify

// Intent is the negotiation state inferred from the agent's latest reply.
type Intent string

const (
	// IntentUnknown — no rule matched the reply.
	IntentUnknown Intent = "unknown"
	// IntentConfirmRequest — the agent asks the customer to confirm the booking.
	IntentConfirmRequest Intent = "confirm_request"
	// IntentAvailability — the requested slot is taken and the agent suggests
	// alternative times.
	IntentAvailability Intent = "availability"
	// IntentStrollerCount — the agent asks how many strollers.
	IntentStrollerCount Intent = "stroller_count"
	// IntentStrollerYesNo — the agent asks whether the party brings a stroller.
	IntentStrollerYesNo Intent = "stroller_yesno"
	// IntentHighChairCount — the agent asks how many high chairs.
	IntentHighChairCount Intent = "highchair_count"
	// IntentHighChairYesNo — the agent asks whether high chairs are needed.
	IntentHighChairYesNo Intent = "highchair_yesno"
	// IntentDateQuestion — explicit "which day" question.
	IntentDateQuestion Intent = "date_question"
	// IntentTimeQuestion — explicit "what time" question.
	IntentTimeQuestion Intent = "time_question"
	// IntentPartyQuestion — explicit "how many people" question.
	IntentPartyQuestion Intent = "party_question"
	// IntentRiceQuestion — the agent asks about the rice decision, type or
	// servings.
	IntentRiceQuestion Intent = "rice_question"
	// IntentRiceTypeServings — the agent asks for rice type and servings in
	// one prompt.
	IntentRiceTypeServings Intent = "rice_type_servings"
	// IntentServingsOnly — the agent asks for a serving count alone.
	IntentServingsOnly Intent = "servings_only"
	// IntentConfirmFallback — looser confirmation phrasing, matched last.
	IntentConfirmFallback Intent = "confirm_fallback"
)

// Result is the outcome of classifying one reply.
type Result struct {
	Intent Intent
	// Times holds every HH:MM token found in the reply. Populated only for
	// IntentAvailability, where the suggested hours drive renegotiation.
	Times []string
}
