package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Status is the terminal state of one stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome is what a stage reports back to the engine. A Failed outcome is
// fatal and halts the pipeline; warnings are surfaced but never halt.
type Outcome struct {
	Status   Status
	Reason   string
	Warnings []string
}

// Succeeded returns a successful outcome.
func Succeeded() Outcome {
	return Outcome{Status: StatusSucceeded}
}

// SucceededWarn returns a successful outcome carrying warnings.
func SucceededWarn(warnings ...string) Outcome {
	return Outcome{Status: StatusSucceeded, Warnings: warnings}
}

// Failed returns a fatal outcome with the given reason.
func Failed(reason string) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason}
}

// Failedf returns a fatal outcome with a formatted reason.
func Failedf(format string, args ...interface{}) Outcome {
	return Outcome{Status: StatusFailed, Reason: fmt.Sprintf(format, args...)}
}

// Skipped returns a non-fatal outcome for a stage that did not need to run.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Stage is one ordered step of the pipeline: a name and the function that
// produces its outcome.
type Stage struct {
	Name string
	Run  func(ctx context.Context) Outcome
}

// Record is one entry of the append-only audit trail.
type Record struct {
	Stage     string
	Outcome   Outcome
	StartedAt time.Time
	Elapsed   time.Duration
}

// StageError reports which stage halted the pipeline and why.
type StageError struct {
	Stage  string
	Reason string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %s", e.Stage, e.Reason)
}

// Engine drives stages strictly in order. Each stage's precondition depends
// on the previous stage's postcondition, so there is no parallelism and no
// automatic retry: the first fatal outcome halts the run. The engine is
// built for exactly one run against one host; running two engines
// concurrently against the same host and application identity is undefined
// behavior and a caller responsibility.
type Engine struct {
	stages  []Stage
	journal *Journal
}

// NewEngine creates an engine over an ordered stage list.
func NewEngine(journal *Journal, stages ...Stage) *Engine {
	return &Engine{stages: stages, journal: journal}
}

// Run executes the stages in order and returns the ordered record of every
// stage outcome produced, which is the audit artifact even when the run
// fails. The error is a *StageError on the first fatal outcome.
func (e *Engine) Run(ctx context.Context) ([]Record, error) {
	records := make([]Record, 0, len(e.stages))

	for _, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			rec := Record{
				Stage:     stage.Name,
				Outcome:   Failed("run cancelled: " + err.Error()),
				StartedAt: time.Now(),
			}
			records = append(records, rec)
			e.journal.Record(rec)
			return records, &StageError{Stage: stage.Name, Reason: rec.Outcome.Reason}
		}

		e.journal.Debugf("stage %s: starting", stage.Name)
		start := time.Now()
		outcome := stage.Run(ctx)
		rec := Record{
			Stage:     stage.Name,
			Outcome:   outcome,
			StartedAt: start,
			Elapsed:   time.Since(start),
		}
		records = append(records, rec)
		e.journal.Record(rec)

		if outcome.Status == StatusFailed {
			return records, &StageError{Stage: stage.Name, Reason: outcome.Reason}
		}
	}

	return records, nil
}
