package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// step is one unit of a compensated write sequence. compensate may be nil for
// steps that need no undo (the terminal step, typically).
type step struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

type saga struct {
	logger *zap.Logger
}

const compensateTimeout = 10 * time.Second

// run executes the steps in order. On failure it undoes the completed steps
// in reverse, best effort: compensation runs on a fresh short-lived context
// so an already-cancelled request context cannot strand partial state, and
// compensation errors are logged rather than propagated since the original
// failure is the one the caller must see.
func (s *saga) run(ctx context.Context, steps []step) error {
	for i, st := range steps {
		if err := st.run(ctx); err != nil {
			s.rollback(steps[:i])
			return &StoreError{Op: st.name, Err: err}
		}
	}
	return nil
}

func (s *saga) rollback(completed []step) {
	for i := len(completed) - 1; i >= 0; i-- {
		st := completed[i]
		if st.compensate == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
		if err := st.compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed, manual cleanup needed",
				zap.String("step", st.name),
				zap.Error(fmt.Errorf("compensate %s: %w", st.name, err)))
		}
		cancel()
	}
}
