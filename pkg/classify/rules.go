package classify

import (
	"regexp"
	"strings"
)

var (
	timeTokenRe = regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`)

	dateQuestionRe  = regexp.MustCompile(`¿\s*para\s+qué\s+d[ií]a|para\s+que\s+dia`)
	timeQuestionRe  = regexp.MustCompile(`¿\s*a\s+qué\s+hora|a\s+que\s+hora`)
	partyQuestionRe = regexp.MustCompile(`¿\s*para\s+cu[aá]ntas\s+personas|para\s+cuantas\s+personas`)
)

// rule is one predicate→intent pair. Rules are evaluated top to bottom and
// the first match wins, so the slice order *is* the priority order.
type rule struct {
	name   string
	intent Intent
	match  func(raw, low string) bool
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isQuestion(raw string) bool {
	return strings.ContainsAny(raw, "¿?")
}

// rules encodes the negotiation heuristics in strict priority order:
// confirmation beats everything, availability renegotiation beats extras,
// strollers are checked before high chairs (prompts often mention both),
// explicit date/time/party questions beat the rice question, and the loose
// keyword fallbacks come last before the bare confirmation keyword.
var rules = []rule{
	{
		name:   "confirmation request",
		intent: IntentConfirmRequest,
		match: func(raw, low string) bool {
			return containsAny(low, "¿confirmo", "confirmo?", "me confirmas",
				"tu confirmación", "tu confirmacion")
		},
	},
	{
		name:   "availability renegotiation",
		intent: IntentAvailability,
		match: func(raw, low string) bool {
			return containsAny(low, "disponibilidad", "no tenemos hueco",
				"no hay disponibilidad", "completamente reserv") &&
				strings.Contains(low, ":")
		},
	},
	{
		name:   "stroller count",
		intent: IntentStrollerCount,
		match: func(raw, low string) bool {
			return containsAny(low, "carrito", "cochecito") && containsAny(low, "cuánt", "cuant")
		},
	},
	{
		name:   "stroller yes/no",
		intent: IntentStrollerYesNo,
		match: func(raw, low string) bool {
			return containsAny(low, "carrito", "cochecito")
		},
	},
	{
		name:   "high chair count",
		intent: IntentHighChairCount,
		match: func(raw, low string) bool {
			return strings.Contains(low, "trona") && containsAny(low, "cuánt", "cuant")
		},
	},
	{
		name:   "high chair yes/no",
		intent: IntentHighChairYesNo,
		match: func(raw, low string) bool {
			return strings.Contains(low, "trona")
		},
	},
	{
		name:   "explicit date question",
		intent: IntentDateQuestion,
		match: func(raw, low string) bool {
			return dateQuestionRe.MatchString(low)
		},
	},
	{
		name:   "explicit time question",
		intent: IntentTimeQuestion,
		match: func(raw, low string) bool {
			return timeQuestionRe.MatchString(low)
		},
	},
	{
		name:   "explicit party-size question",
		intent: IntentPartyQuestion,
		match: func(raw, low string) bool {
			return partyQuestionRe.MatchString(low)
		},
	},
	{
		name:   "rice question",
		intent: IntentRiceQuestion,
		match: func(raw, low string) bool {
			return strings.Contains(low, "arroz") &&
				containsAny(low, "quer", "tipo", "racion") &&
				isQuestion(raw)
		},
	},
	{
		name:   "loose date question",
		intent: IntentDateQuestion,
		match: func(raw, low string) bool {
			return containsAny(low, "día", "fecha") && isQuestion(raw)
		},
	},
	{
		name:   "loose time question",
		intent: IntentTimeQuestion,
		match: func(raw, low string) bool {
			return strings.Contains(low, "hora") && isQuestion(raw)
		},
	},
	{
		name:   "loose party-size question",
		intent: IntentPartyQuestion,
		match: func(raw, low string) bool {
			return strings.Contains(low, "personas") && isQuestion(raw)
		},
	},
	{
		name:   "rice type and servings",
		intent: IntentRiceTypeServings,
		match: func(raw, low string) bool {
			return strings.Contains(low, "raciones") && strings.Contains(low, "tipo")
		},
	},
	{
		name:   "servings only",
		intent: IntentServingsOnly,
		match: func(raw, low string) bool {
			return strings.Contains(low, "raciones")
		},
	},
	{
		name:   "confirmation keyword fallback",
		intent: IntentConfirmFallback,
		match: func(raw, low string) bool {
			return strings.Contains(low, "confirm")
		},
	},
}

// Classify inspects the agent's latest reply and returns the first matching
// negotiation intent, or IntentUnknown when nothing matches.
func Classify(reply string) Result {
	low := strings.ToLower(reply)
	for _, r := range rules {
		if r.match(reply, low) {
			res := Result{Intent: r.intent}
			if r.intent == IntentAvailability {
				res.Times = ExtractTimes(low)
			}
			return res
		}
	}
	return Result{Intent: IntentUnknown}
}

// ExtractTimes returns every HH:MM token in the reply, in order of appearance.
func ExtractTimes(reply string) []string {
	return timeTokenRe.FindAllString(reply, -1)
}

// PreferredTime picks the suggested hour to renegotiate to: the first token
// different from the current target, falling back to the first token. Empty
// when no tokens were extracted.
func PreferredTime(times []string, current string) string {
	if len(times) == 0 {
		return ""
	}
	for _, t := range times {
		if t != current {
			return t
		}
	}
	return times[0]
}

// RuleNames exposes the priority order for tests and diagnostics.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
