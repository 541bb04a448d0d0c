package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villacarmen/bookprobe/pkg/gateway"
	"github.com/villacarmen/bookprobe/pkg/scenario"
	"github.com/villacarmen/bookprobe/pkg/verify"
)

const testPhone = "34692747052"

var testDT = scenario.DateTime{
	UserDate: "15/05/2027",
	UserTime: "14:30",
	DBDate:   "2027-05-15",
	DBTime:   "14:30",
}

// fakeAgent replays scripted replies, one per send, and accumulates them as
// the captured state the terminal probe reads.
type fakeAgent struct {
	replies      []gateway.CapturedMessage
	defaultReply *gateway.CapturedMessage
	sendErr      error

	sent     []string
	captured []gateway.CapturedMessage
}

func (a *fakeAgent) SendAndWait(ctx context.Context, text, phone string) (*gateway.CapturedMessage, error) {
	if a.sendErr != nil {
		return nil, a.sendErr
	}
	a.sent = append(a.sent, text)

	var reply gateway.CapturedMessage
	switch {
	case len(a.replies) > 0:
		reply = a.replies[0]
		a.replies = a.replies[1:]
	case a.defaultReply != nil:
		reply = *a.defaultReply
	default:
		return nil, errors.New("script exhausted")
	}
	reply.Phone = phone
	a.captured = append(a.captured, reply)
	return &reply, nil
}

func (a *fakeAgent) CapturedForPhone(ctx context.Context, phone string) ([]gateway.CapturedMessage, error) {
	return a.captured, nil
}

func text(s string) gateway.CapturedMessage {
	return gateway.CapturedMessage{Type: "text", Text: s}
}

func confirmationMenu() gateway.CapturedMessage {
	return gateway.CapturedMessage{
		Type: "menu_button",
		Text: verify.ConfirmationHeader + "*\n\nFecha: " + testDT.DBDate,
	}
}

func failureMenu() gateway.CapturedMessage {
	return gateway.CapturedMessage{
		Type: "menu_list",
		Text: "Ese no está en la carta. " + verify.FailureMenuPhrase + ":",
	}
}

func scenarioByKey(t *testing.T, key string) scenario.Scenario {
	t.Helper()
	for _, sc := range scenario.Matrix() {
		if sc.Key == key {
			return sc
		}
	}
	t.Fatalf("unknown scenario key %q", key)
	return scenario.Scenario{}
}

func TestRunHappyPathReachesConfirmation(t *testing.T) {
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora queréis venir?"),
		text("¿Queréis encargar arroz?"),
		text("¿Me confirmas la reserva?"),
		confirmationMenu(),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "A1"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, testDT.UserTime, res.EffectiveTime)

	require.Len(t, agent.sent, 5)
	assert.Equal(t, "No queremos arroz", agent.sent[3])
	assert.Equal(t, "Sí, confirmo", agent.sent[4])
}

func TestRunRiceScenarioAnswersWithTypeAndServings(t *testing.T) {
	sc := scenarioByKey(t, "A2")
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora?"),
		text("¿Queréis encargar arroz?"),
		text("¿Me confirmas la reserva?"),
		confirmationMenu(),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), sc, testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, "Sí, queremos Arroz de chorizo para 2 raciones", agent.sent[3])
}

func TestRunFailureMenuTerminatesDuringSeeding(t *testing.T) {
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora?"),
		text("¿Queréis arroz?"),
		failureMenu(),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "B1"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailureMenu, res.Outcome)
	assert.Len(t, agent.sent, 4)
}

func TestRunAbandonsAfterSeedForC2(t *testing.T) {
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora queréis venir?"),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "C2"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, res.Outcome)
	assert.Len(t, agent.sent, 2)
}

func TestRunNegativeScenarioStopsInsteadOfNegotiating(t *testing.T) {
	// D2 switches topic and never resumes: after the seed script the driver
	// must walk away even though the agent keeps asking questions.
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora?"),
		text("Estamos en la Calle Mayor 1. ¿Seguimos con la reserva?"),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "D2"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, res.Outcome)
	assert.Len(t, agent.sent, 3)
}

func TestRunB3ResubmitsInvalidServings(t *testing.T) {
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora?"),
		text("¿Queréis arroz?"),
		text("El mínimo son 2 raciones. ¿Cuántas queréis?"),
		text("Sigue sin ser válido."),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "B3"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAbandoned, res.Outcome)

	require.Len(t, agent.sent, 5)
	assert.Equal(t, "1 ración", agent.sent[4])
}

func TestRunAvailabilityRenegotiationUpdatesEffectiveTime(t *testing.T) {
	sc := scenarioByKey(t, "E1")
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora?"),
		text("Anotado."),
		text("Actualizado a 4."),
		text("No hay disponibilidad a las 14:30. Tenemos hueco a las 17:00 o 18:00."),
		text("Hecho, a las 17:00. ¿Me confirmas la reserva?"),
		confirmationMenu(),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), sc, testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, "17:00", res.EffectiveTime)
	assert.Contains(t, agent.sent, "A las 17:00")
}

func TestRunStallsWhenNoAlternativeOffered(t *testing.T) {
	agent := &fakeAgent{replies: []gateway.CapturedMessage{
		text("¡Hola! ¿Para qué día y cuántas personas?"),
		text("¿A qué hora?"),
		// Availability phrasing with no concrete hours: nothing to pick.
		text("No hay disponibilidad ese día: lo sentimos mucho."),
	}}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "A1"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStalled, res.Outcome)
}

func TestRunStepLimit(t *testing.T) {
	vague := text("Un momento, por favor.")
	agent := &fakeAgent{defaultReply: &vague}

	res, err := New(agent, testPhone, WithMaxSteps(6)).Run(context.Background(), scenarioByKey(t, "A1"), testDT)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStepLimit, res.Outcome)
	assert.Equal(t, 6, res.Steps)
	assert.Len(t, agent.sent, 6)
}

func TestRunTransportErrorAbortsWithPartialTurns(t *testing.T) {
	agent := &fakeAgent{sendErr: errors.New("webhook rejected message: status 500")}

	res, err := New(agent, testPhone).Run(context.Background(), scenarioByKey(t, "A1"), testDT)
	require.Error(t, err)
	assert.Empty(t, res.Outcome)
	require.Len(t, res.Turns, 1)
	assert.False(t, res.Turns[0].Passed)
}
