// Package saga runs multi-step workflows whose steps span systems that
// cannot share a transaction, with best-effort compensation on failure.
package saga

import (
	"context"
	"fmt"

	"github.com/NeoReef/game-backend/pkg/logger"
)

// Step is one named unit of work. Compensate, when set, undoes the step
// after a later step fails; compensation errors are logged, never
// propagated.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order and compensates completed steps in reverse
// order when one fails.
type Saga struct {
	name  string
	log   *logger.Logger
	steps []Step
}

// New creates an empty saga.
func New(name string, log *logger.Logger) *Saga {
	if log == nil {
		log = logger.NewDefault("saga")
	}
	return &Saga{name: name, log: log}
}

// Add appends a step.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the steps. On failure it compensates every previously
// completed step (latest first, best effort) and returns the failing
// step's error wrapped with its name.
func (s *Saga) Run(ctx context.Context) error {
	var done []Step
	for _, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			s.compensate(ctx, done)
			return fmt.Errorf("%s: step %s: %w", s.name, step.Name, err)
		}
		done = append(done, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.log.Errorf("%s: compensate %s failed: %v", s.name, step.Name, err)
		} else {
			s.log.Warnf("%s: compensated %s", s.name, step.Name)
		}
	}
}
