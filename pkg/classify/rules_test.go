package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Intent
	}{
		{
			name:  "explicit confirmation request",
			reply: "Todo anotado. ¿Me confirmas la reserva?",
			want:  IntentConfirmRequest,
		},
		{
			name:  "confirmation beats rice keywords",
			reply: "¿Confirmo la reserva con el arroz para 2 raciones?",
			want:  IntentConfirmRequest,
		},
		{
			name:  "availability with alternative hours",
			reply: "Lo siento, no hay disponibilidad a las 14:30. Tenemos hueco a las 15:00.",
			want:  IntentAvailability,
		},
		{
			name:  "availability wording without hours is not availability",
			reply: "Tenemos poca disponibilidad ese fin de semana",
			want:  IntentUnknown,
		},
		{
			name:  "stroller count",
			reply: "¿Cuántos carritos de bebé traéis?",
			want:  IntentStrollerCount,
		},
		{
			name:  "stroller yes/no",
			reply: "¿Traéis carrito?",
			want:  IntentStrollerYesNo,
		},
		{
			name:  "high chair count",
			reply: "¿Cuántas tronas necesitáis?",
			want:  IntentHighChairCount,
		},
		{
			name:  "high chair yes/no",
			reply: "¿Necesitáis trona para el bebé?",
			want:  IntentHighChairYesNo,
		},
		{
			name:  "stroller checked before high chair",
			reply: "¿Traéis carrito o necesitáis trona?",
			want:  IntentStrollerYesNo,
		},
		{
			name:  "explicit date question",
			reply: "¿Para qué día sería la reserva?",
			want:  IntentDateQuestion,
		},
		{
			name:  "explicit date question without accents",
			reply: "para que dia queréis venir",
			want:  IntentDateQuestion,
		},
		{
			name:  "explicit time question",
			reply: "Perfecto. ¿A qué hora queréis venir?",
			want:  IntentTimeQuestion,
		},
		{
			name:  "explicit party-size question",
			reply: "¿Para cuántas personas?",
			want:  IntentPartyQuestion,
		},
		{
			name:  "rice question",
			reply: "¿Queréis encargar arroz con la reserva?",
			want:  IntentRiceQuestion,
		},
		{
			name:  "explicit date beats rice",
			reply: "¿Para qué día queréis el arroz que habéis encargado?",
			want:  IntentDateQuestion,
		},
		{
			name:  "loose date fallback",
			reply: "Dime el día que os viene mejor, ¿vale?",
			want:  IntentDateQuestion,
		},
		{
			name:  "loose time fallback",
			reply: "¿Y la hora?",
			want:  IntentTimeQuestion,
		},
		{
			name:  "loose party fallback",
			reply: "¿Cuántas personas vendréis al final?",
			want:  IntentPartyQuestion,
		},
		{
			name:  "rice type and servings prompt",
			reply: "¿Qué tipo de arroz y cuántas raciones queréis?",
			want:  IntentRiceQuestion,
		},
		{
			name:  "type and servings without question mark",
			reply: "Necesito saber el tipo y las raciones.",
			want:  IntentRiceTypeServings,
		},
		{
			name:  "servings only",
			reply: "Las raciones mínimas son 2.",
			want:  IntentServingsOnly,
		},
		{
			name:  "confirmation keyword fallback",
			reply: "Todo listo para confirmar.",
			want:  IntentConfirmFallback,
		},
		{
			name:  "unclassifiable",
			reply: "Un momento, por favor.",
			want:  IntentUnknown,
		},
		{
			name:  "empty reply",
			reply: "",
			want:  IntentUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.reply)
			assert.Equal(t, tt.want, got.Intent)
		})
	}
}

func TestClassifyAvailabilityExtractsTimes(t *testing.T) {
	res := Classify("No hay disponibilidad a las 14:30. Os podemos ofrecer 15:00 o 16:00.")
	assert.Equal(t, IntentAvailability, res.Intent)
	assert.Equal(t, []string{"14:30", "15:00", "16:00"}, res.Times)
}

func TestClassifyNonAvailabilityHasNoTimes(t *testing.T) {
	res := Classify("Perfecto, reservado a las 14:30. ¿Me confirmas la reserva?")
	assert.Equal(t, IntentConfirmRequest, res.Intent)
	assert.Nil(t, res.Times)
}

func TestExtractTimes(t *testing.T) {
	assert.Equal(t, []string{"9:00", "14:30"}, ExtractTimes("a las 9:00 o a las 14:30"))
	assert.Empty(t, ExtractTimes("no hay horas en este texto"))
}

func TestPreferredTime(t *testing.T) {
	// First token different from the current target wins.
	assert.Equal(t, "15:00", PreferredTime([]string{"14:30", "15:00"}, "14:30"))
	// All tokens equal to current: fall back to the first.
	assert.Equal(t, "14:30", PreferredTime([]string{"14:30", "14:30"}, "14:30"))
	assert.Equal(t, "", PreferredTime(nil, "14:30"))
}

func TestRulePriorityOrder(t *testing.T) {
	names := RuleNames()
	assert.Equal(t, "confirmation request", names[0])
	assert.Equal(t, "availability renegotiation", names[1])
	assert.Equal(t, "confirmation keyword fallback", names[len(names)-1])
}
