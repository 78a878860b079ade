package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/surmigrate/surmigrate/internal/dialect"
	"github.com/surmigrate/surmigrate/internal/ledger"
	"github.com/surmigrate/surmigrate/internal/migration"
	"github.com/surmigrate/surmigrate/internal/protocol"
	"github.com/surmigrate/surmigrate/internal/source"
)

// State is a stage of a run.
type State int

const (
	StatePending State = iota
	StateDiscovering
	StateClassifying
	StateOrdering
	StateReadingLedger
	StateExecutingOneOffs
	StateExecutingIdempotents
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDiscovering:
		return "discovering"
	case StateClassifying:
		return "classifying"
	case StateOrdering:
		return "ordering"
	case StateReadingLedger:
		return "reading ledger"
	case StateExecutingOneOffs:
		return "executing one-off migrations"
	case StateExecutingIdempotents:
		return "executing idempotent migrations"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// EventType identifies what an Event reports.
type EventType int

const (
	// EventState is sent on every state transition.
	EventState EventType = iota
	// EventPlanned is sent once ordering is complete.
	EventPlanned
	// EventSkipped is sent for a one-off already in the ledger.
	EventSkipped
	// EventStarted is sent before a migration is submitted.
	EventStarted
	// EventExecuted is sent after a migration succeeded.
	EventExecuted
	// EventFailed is sent when the run fails.
	EventFailed
)

// Event is a progress observation from a run.
type Event struct {
	Type  EventType
	State State
	File  migration.File
	// Plan is set on EventPlanned.
	Plan migration.Plan
	Err  error
}

// Observer receives run events synchronously, in order.
type Observer func(Event)

// Report summarizes a run.
type Report struct {
	ExecutedOneOffs     []string
	SkippedOneOffs      []string
	ExecutedIdempotents []string
}

// Executed returns the number of migrations submitted successfully.
func (r *Report) Executed() int {
	return len(r.ExecutedOneOffs) + len(r.ExecutedIdempotents)
}

// Options configures a Runner.
type Options struct {
	Dir        string
	Extensions []string
	Logger     *slog.Logger
	Observer   Observer
}

// Runner drives a whole run: discover, classify, order, read the ledger,
// then execute one-offs followed by idempotents. The first error ends the
// run.
type Runner struct {
	reader   *source.Reader
	ledger   *ledger.Store
	executor *Executor
	logger   *slog.Logger
	observer Observer
	state    State
}

// NewRunner creates a runner that talks to the database through client.
func NewRunner(client protocol.Client, d dialect.Dialect, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = func(Event) {}
	}
	return &Runner{
		reader:   source.NewReader(opts.Dir, opts.Extensions, logger),
		ledger:   ledger.NewStore(client, d, logger),
		executor: New(client, d, logger),
		logger:   logger,
		observer: observer,
	}
}

// State returns the current state of the run.
func (r *Runner) State() State {
	return r.state
}

// Run executes the migrations. It can be called once.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.state != StatePending {
		return nil, fmt.Errorf("runner already used, state %s", r.state)
	}

	report := &Report{}
	if err := r.run(ctx, report); err != nil {
		r.state = StateFailed
		r.observer(Event{Type: EventFailed, State: StateFailed, Err: err})
		return report, err
	}
	r.transition(StateDone)
	r.logger.Debug("migration run complete",
		"executed", report.Executed(),
		"skipped", len(report.SkippedOneOffs))
	return report, nil
}

func (r *Runner) run(ctx context.Context, report *Report) error {
	r.transition(StateDiscovering)
	discovered, err := r.reader.Discover()
	if err != nil {
		return err
	}

	r.transition(StateClassifying)
	files := migration.Classify(discovered)

	r.transition(StateOrdering)
	plan, err := migration.Build(files)
	if err != nil {
		return err
	}
	r.logger.Debug("ordered migrations", "dir", r.reader.Dir(), "one_offs", len(plan.OneOffs), "idempotents", len(plan.Idempotents))
	r.observer(Event{Type: EventPlanned, State: StateOrdering, Plan: plan})

	r.transition(StateReadingLedger)
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return err
	}

	r.transition(StateExecutingOneOffs)
	for _, f := range plan.OneOffs {
		if applied.Has(f.ID) {
			r.logger.Debug("skipping applied one-off migration", "file", f.Name, "id", f.ID)
			report.SkippedOneOffs = append(report.SkippedOneOffs, f.Name)
			r.observer(Event{Type: EventSkipped, State: r.state, File: f})
			continue
		}
		if err := r.execute(ctx, f); err != nil {
			return err
		}
		report.ExecutedOneOffs = append(report.ExecutedOneOffs, f.Name)
	}

	r.transition(StateExecutingIdempotents)
	for _, f := range plan.Idempotents {
		if err := r.execute(ctx, f); err != nil {
			return err
		}
		report.ExecutedIdempotents = append(report.ExecutedIdempotents, f.Name)
	}

	return nil
}

func (r *Runner) execute(ctx context.Context, f migration.File) error {
	r.observer(Event{Type: EventStarted, State: r.state, File: f})
	if err := r.executor.Execute(ctx, f); err != nil {
		return err
	}
	r.observer(Event{Type: EventExecuted, State: r.state, File: f})
	return nil
}

func (r *Runner) transition(s State) {
	r.state = s
	r.observer(Event{Type: EventState, State: s})
}
