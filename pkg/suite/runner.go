// Package suite runs the full scenario matrix sequentially: reset remote
// state, drive the conversation, verify the outcome against storage and
// capture, and always leave a conversation log behind.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/villacarmen/bookprobe/pkg/driver"
	"github.com/villacarmen/bookprobe/pkg/gateway"
	"github.com/villacarmen/bookprobe/pkg/scenario"
	"github.com/villacarmen/bookprobe/pkg/storage"
)

// Messenger is the transport surface the runner needs. transport.Client
// satisfies it.
type Messenger interface {
	driver.Agent
	Captured(ctx context.Context) ([]gateway.CapturedMessage, error)
	ResetAll(ctx context.Context) error
	ClearAgentState(ctx context.Context, phone string) error
}

// Checker is the outcome verification surface. verify.Verifier satisfies it.
type Checker interface {
	AssertInserted(ctx context.Context, sc scenario.Scenario, phoneLast9, phone, dbDate, dbTime string, captured []gateway.CapturedMessage) (*storage.BookingRow, error)
	AssertNotInserted(ctx context.Context, sc scenario.Scenario, phoneLast9, phone, dbDate, dbTime string, captured []gateway.CapturedMessage) error
}

// Config holds the per-run knobs of the suite.
type Config struct {
	// ClientPhone is the simulated customer's full phone number.
	ClientPhone string
	// PhoneLast9 is what the agent stores as the contact phone.
	PhoneLast9 string
	// LogsDir receives one conversation log per scenario.
	LogsDir string
	// SettleDelay gives async sends a moment to land in the capture after
	// the driver ends.
	SettleDelay time.Duration
	// MaxSteps bounds each conversation; zero means driver.DefaultMaxSteps.
	MaxSteps int
}

// Runner executes scenarios one at a time. There is no shared mutable state
// between scenarios besides the agent's storage, which is intentionally never
// reset — unique dates per scenario avoid collisions instead.
type Runner struct {
	cfg       Config
	messenger Messenger
	checker   Checker
	logWriter *driver.LogWriter
	logger    *slog.Logger
}

// NewRunner creates a runner. The logs directory is created eagerly so a
// failure to write logs surfaces before any scenario runs.
func NewRunner(cfg Config, messenger Messenger, checker Checker, logger *slog.Logger) (*Runner, error) {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = driver.DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	lw, err := driver.NewLogWriter(cfg.LogsDir)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:       cfg,
		messenger: messenger,
		checker:   checker,
		logWriter: lw,
		logger:    logger,
	}, nil
}

// ScenarioResult is the verdict for one scenario.
type ScenarioResult struct {
	Scenario scenario.Scenario
	Outcome  driver.Outcome
	Err      error
	LogPath  string
	Duration time.Duration
}

// Passed reports whether the scenario's expected outcome held.
func (r ScenarioResult) Passed() bool { return r.Err == nil }

// Summary aggregates the whole run.
type Summary struct {
	Results []ScenarioResult
}

// FailedCount returns the number of failed scenarios.
func (s Summary) FailedCount() int {
	n := 0
	for _, r := range s.Results {
		if !r.Passed() {
			n++
		}
	}
	return n
}

// AllPassed reports whether every scenario held its expectation.
func (s Summary) AllPassed() bool { return s.FailedCount() == 0 }

// Run executes the full matrix and returns the aggregated summary. Only
// setup-level problems (log directory, context cancellation) are returned as
// an error; per-scenario failures live in the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	scenarios := scenario.Matrix()
	offsetDays := scenario.SaltedOffsetDays(time.Now())

	r.logger.Info("running booking matrix",
		"scenarios", len(scenarios), "base_offset_days", offsetDays)

	var summary Summary
	for idx, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := r.runOne(ctx, idx, sc, offsetDays)
		if res.Passed() {
			r.logger.Info("scenario passed", "scenario", sc.Key, "outcome", res.Outcome)
		} else {
			r.logger.Error("scenario failed", "scenario", sc.Key, "error", res.Err)
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, idx int, sc scenario.Scenario, offsetDays int) ScenarioResult {
	result := ScenarioResult{Scenario: sc}
	start := time.Now()

	dt, err := scenario.DateTimeFor(idx, offsetDays)
	if err != nil {
		result.Err = fmt.Errorf("%s: date allocation failed: %w", sc.Key, err)
		return result
	}

	// Remote state reset must complete before the first utterance.
	if err := r.messenger.ResetAll(ctx); err != nil {
		result.Err = fmt.Errorf("%s: %w", sc.Key, err)
		return result
	}
	if err := r.messenger.ClearAgentState(ctx, r.cfg.ClientPhone); err != nil {
		result.Err = fmt.Errorf("%s: %w", sc.Key, err)
		return result
	}

	drv := driver.New(r.messenger, r.cfg.ClientPhone,
		driver.WithMaxSteps(r.cfg.MaxSteps),
		driver.WithLogger(r.logger))

	driveRes, driveErr := drv.Run(ctx, sc, dt)
	result.Outcome = driveRes.Outcome

	// Give async sends a moment to be captured before the final snapshot.
	select {
	case <-time.After(r.cfg.SettleDelay):
	case <-ctx.Done():
	}

	result.Err = r.evaluate(ctx, sc, dt, driveRes, driveErr)
	result.Duration = time.Since(start)

	// The log is written for every scenario, and wrapped so that a logging
	// failure never masks the scenario verdict.
	result.LogPath = r.writeLog(sc, driveRes, result.Err, result.Duration)
	return result
}

func (r *Runner) evaluate(ctx context.Context, sc scenario.Scenario, dt scenario.DateTime, driveRes driver.Result, driveErr error) error {
	if driveErr != nil {
		return fmt.Errorf("%s: %w", sc.Key, driveErr)
	}

	effectiveTime := driveRes.EffectiveTime
	if effectiveTime == "" {
		effectiveTime = dt.DBTime
	}

	if sc.ExpectInsert &&
		(driveRes.Outcome == driver.OutcomeStepLimit || driveRes.Outcome == driver.OutcomeStalled) {
		return fmt.Errorf("%s: did not reach booking confirmation within %d steps (outcome: %s)",
			sc.Key, r.cfg.MaxSteps, driveRes.Outcome)
	}

	captured, err := r.messenger.Captured(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", sc.Key, err)
	}

	if sc.ExpectInsert {
		row, err := r.checker.AssertInserted(ctx, sc,
			r.cfg.PhoneLast9, r.cfg.ClientPhone, dt.DBDate, effectiveTime, captured)
		if err != nil {
			return err
		}
		r.logger.Info("booking inserted", "scenario", sc.Key, "booking_id", row.ID,
			"date", dt.DBDate, "time", effectiveTime)
		return nil
	}
	return r.checker.AssertNotInserted(ctx, sc,
		r.cfg.PhoneLast9, r.cfg.ClientPhone, dt.DBDate, effectiveTime, captured)
}

func (r *Runner) writeLog(sc scenario.Scenario, driveRes driver.Result, verdictErr error, duration time.Duration) string {
	turns := driveRes.Turns
	if verdictErr != nil && len(turns) > 0 {
		// Attach the failure to the last turn for easier debugging.
		turns[len(turns)-1].Passed = false
		turns[len(turns)-1].Errors = append(turns[len(turns)-1].Errors, verdictErr.Error())
	}
	path, err := r.logWriter.Save(driver.ConversationLog{
		Name:     sc.Name,
		Phone:    r.cfg.ClientPhone,
		Turns:    turns,
		Passed:   verdictErr == nil,
		Duration: duration,
	})
	if err != nil {
		r.logger.Warn("failed to write conversation log", "scenario", sc.Key, "error", err)
		return ""
	}
	return path
}
