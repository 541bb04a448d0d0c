// Package driver runs one scenario's conversation against the agent: it
// seeds the scenario-specific opening script, then classifies each reply and
// answers it until a terminal marker appears or the step budget runs out.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/villacarmen/bookprobe/pkg/classify"
	"github.com/villacarmen/bookprobe/pkg/gateway"
	"github.com/villacarmen/bookprobe/pkg/scenario"
	"github.com/villacarmen/bookprobe/pkg/verify"
)

// DefaultMaxSteps bounds the number of sent utterances per scenario.
const DefaultMaxSteps = 30

// Agent is the conversational surface the driver needs: send-and-wait for
// the next reply, plus the read-only capture probe used for terminal markers.
// transport.Client satisfies it.
type Agent interface {
	SendAndWait(ctx context.Context, text, phone string) (*gateway.CapturedMessage, error)
	CapturedForPhone(ctx context.Context, phone string) ([]gateway.CapturedMessage, error)
}

// Outcome is the terminal state a conversation ended in.
type Outcome string

const (
	// OutcomeConfirmed — the confirmation menu was captured.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeFailureMenu — the terminal rice-failure menu was captured.
	OutcomeFailureMenu Outcome = "failure_menu"
	// OutcomeAbandoned — the driver deliberately stopped sending, either
	// because the scenario is terminal by definition or because a negative
	// scenario reached its expected stopping point.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeStalled — the reply could not be classified and no further
	// utterance could be synthesized. Whether this is a pass depends on the
	// scenario's expectation; the driver only reports it.
	OutcomeStalled Outcome = "stalled"
	// OutcomeStepLimit — the step budget was exhausted before any terminal
	// marker appeared.
	OutcomeStepLimit Outcome = "step_limit_exceeded"
)

// Turn is one exchange: the utterance sent and the reply received (nil when
// the poll timed out). The pass flag only feeds diagnostic logging.
type Turn struct {
	UserInput string
	SentAt    time.Time
	Reply     *gateway.CapturedMessage
	Passed    bool
	Errors    []string
}

// Result is what a finished (or aborted) conversation produced.
type Result struct {
	Outcome Outcome
	Turns   []Turn
	Steps   int
	// EffectiveTime is the reservation time the agent ultimately accepted.
	// It starts as the requested slot and is overwritten whenever an
	// availability renegotiation picks a different hour; the verifier must
	// use it instead of the originally requested time.
	EffectiveTime string
}

// Driver drives one conversation at a time. It is strictly synchronous: the
// only blocking points are the capture polls inside Agent.SendAndWait.
type Driver struct {
	agent    Agent
	phone    string
	maxSteps int
	logger   *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxSteps overrides the step budget.
func WithMaxSteps(n int) Option {
	return func(d *Driver) { d.maxSteps = n }
}

// WithLogger sets the slog logger for turn-level diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New creates a driver for the given phone.
func New(agent Agent, phone string, opts ...Option) *Driver {
	d := &Driver{
		agent:    agent,
		phone:    phone,
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// loopState is the mutable negotiation state threaded through one run.
// targetTime carries the effective time: the last agent-accepted hour wins
// over the originally requested one.
type loopState struct {
	targetParty int
	targetTime  string
}

// Run executes the scenario's conversation and returns the terminal outcome.
// Transport errors and poll timeouts abort the run; the partial Result is
// still returned so the caller can log the turns that did happen.
func (d *Driver) Run(ctx context.Context, sc scenario.Scenario, dt scenario.DateTime) (Result, error) {
	res := Result{EffectiveTime: dt.UserTime}
	st := &loopState{targetParty: sc.PartySize, targetTime: dt.UserTime}

	var lastReply *gateway.CapturedMessage

	send := func(text string) error {
		turn := Turn{UserInput: text, SentAt: time.Now(), Passed: true}
		reply, err := d.agent.SendAndWait(ctx, text, d.phone)
		if err != nil {
			turn.Passed = false
			turn.Errors = append(turn.Errors, err.Error())
			res.Turns = append(res.Turns, turn)
			return fmt.Errorf("turn %d failed: %w", len(res.Turns), err)
		}
		turn.Reply = reply
		res.Turns = append(res.Turns, turn)
		lastReply = reply
		d.logger.Debug("turn completed",
			"scenario", sc.Key, "step", len(res.Turns),
			"user", text, "reply_type", reply.Type)
		return nil
	}

	finish := func(out Outcome) (Result, error) {
		res.Outcome = out
		res.EffectiveTime = st.targetTime
		return res, nil
	}
	fail := func(err error) (Result, error) {
		res.EffectiveTime = st.targetTime
		return res, err
	}

	// Seed the scenario-specific opening script. Terminal markers are probed
	// after every send: some openings are terminal in one shot.
	for _, msg := range SeedScript(sc, dt, d.phone) {
		if err := send(msg); err != nil {
			return fail(err)
		}
		res.Steps++
		out, done, err := d.terminal(ctx)
		if err != nil {
			return fail(err)
		}
		if done {
			return finish(out)
		}
		if res.Steps >= d.maxSteps {
			break
		}
	}

	// Scenarios that stop mid-flow by definition send nothing after seeding.
	if sc.Key == "C2" || sc.Key == "D2" {
		return finish(OutcomeAbandoned)
	}

	for res.Steps < d.maxSteps {
		if lastReply == nil {
			return finish(OutcomeStalled)
		}
		out, done, err := d.terminal(ctx)
		if err != nil {
			return fail(err)
		}
		if done {
			return finish(out)
		}

		if !sc.ExpectInsert {
			// B3 keeps forcing the failure path: whenever servings are
			// prompted again, resubmit the deliberately invalid count
			// instead of auto-correcting.
			if sc.Key == "B3" && isServingsReprompt(lastReply.Text) {
				if err := send("1 ración"); err != nil {
					return fail(err)
				}
				res.Steps++
				continue
			}
			return finish(OutcomeAbandoned)
		}

		next, ok := d.nextUtterance(sc, dt, st, lastReply.Text)
		if !ok {
			return finish(OutcomeStalled)
		}
		if err := send(next); err != nil {
			return fail(err)
		}
		res.Steps++

		out, done, err = d.terminal(ctx)
		if err != nil {
			return fail(err)
		}
		if done {
			return finish(out)
		}
	}

	return finish(OutcomeStepLimit)
}

// terminal probes the capture for a terminal marker.
func (d *Driver) terminal(ctx context.Context) (Outcome, bool, error) {
	msgs, err := d.agent.CapturedForPhone(ctx, d.phone)
	if err != nil {
		return "", false, fmt.Errorf("terminal probe failed: %w", err)
	}
	if verify.ConfirmationSeen(msgs) {
		return OutcomeConfirmed, true, nil
	}
	if verify.FailureMenuSeen(msgs) {
		return OutcomeFailureMenu, true, nil
	}
	return "", false, nil
}

// nextUtterance maps the classified reply to the customer's answer. The
// second return is false when no utterance can be synthesized.
func (d *Driver) nextUtterance(sc scenario.Scenario, dt scenario.DateTime, st *loopState, reply string) (string, bool) {
	cls := classify.Classify(reply)
	switch cls.Intent {
	case classify.IntentConfirmRequest, classify.IntentConfirmFallback:
		return "Sí, confirmo", true

	case classify.IntentAvailability:
		chosen := classify.PreferredTime(cls.Times, st.targetTime)
		if chosen == "" {
			return "", false
		}
		st.targetTime = chosen
		d.logger.Info("availability renegotiation",
			"scenario", sc.Key, "accepted_time", chosen)
		return "A las " + chosen, true

	case classify.IntentStrollerCount:
		if sc.Key == "A4" {
			return "1", true
		}
		return "0", true
	case classify.IntentStrollerYesNo:
		if sc.Key == "A4" {
			return "Sí", true
		}
		return "Sin carrito", true
	case classify.IntentHighChairCount:
		if sc.Key == "A4" {
			return "2", true
		}
		return "0", true
	case classify.IntentHighChairYesNo:
		if sc.Key == "A4" {
			return "Sí", true
		}
		return "Sin tronas", true

	case classify.IntentDateQuestion:
		return fmt.Sprintf("Para %d personas. Sábado %s", st.targetParty, dt.UserDate), true
	case classify.IntentTimeQuestion:
		return "A las " + st.targetTime, true
	case classify.IntentPartyQuestion:
		return fmt.Sprintf("Para %d personas", st.targetParty), true

	case classify.IntentRiceQuestion:
		return riceAnswer(sc)

	case classify.IntentRiceTypeServings:
		switch {
		case sc.Rice == scenario.RiceRequested && sc.RiceType != "" && sc.RiceServings > 0:
			return fmt.Sprintf("Queremos %s para %d raciones", sc.RiceType, sc.RiceServings), true
		case sc.Rice == scenario.RiceDeclined:
			return "No queremos arroz", true
		case sc.RiceType != "":
			return fmt.Sprintf("Queremos arroz de %s para %d raciones", sc.RiceType, servingsOrDefault(sc)), true
		default:
			return "2 raciones", true
		}

	case classify.IntentServingsOnly:
		if sc.Key == "B3" {
			return "1 ración", true
		}
		if sc.RiceServings > 0 {
			return fmt.Sprintf("%d raciones", sc.RiceServings), true
		}
		return "2 raciones", true

	default:
		// Unclassifiable: nudge completion-expected scenarios toward the
		// confirmation; everything else stalls.
		if sc.ExpectInsert {
			return "Sí, confirmo", true
		}
		return "", false
	}
}

func riceAnswer(sc scenario.Scenario) (string, bool) {
	switch sc.Rice {
	case scenario.RiceDeclined:
		return "No queremos arroz", true
	case scenario.RiceRequested:
		return fmt.Sprintf("Sí, queremos %s para %d raciones", sc.RiceType, sc.RiceServings), true
	default:
		if sc.RiceType != "" {
			return fmt.Sprintf("Sí, queremos arroz de %s para %d raciones", sc.RiceType, servingsOrDefault(sc)), true
		}
		return "", false
	}
}

func servingsOrDefault(sc scenario.Scenario) int {
	if sc.RiceServings > 0 {
		return sc.RiceServings
	}
	return 2
}

func isServingsReprompt(reply string) bool {
	low := strings.ToLower(reply)
	return strings.Contains(low, "racion") ||
		strings.Contains(low, "mínimo") || strings.Contains(low, "minimo")
}
