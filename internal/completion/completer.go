package completion

import (
	"context"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

// Completer periodically promotes Confirmed occurrences whose end time has
// passed to Completed, so attendance can be recorded without anyone having
// to touch them by hand.
type Completer struct {
	logger     *zap.SugaredLogger
	rehearsals rehearsalsService
	period     time.Duration
}

type rehearsalsService interface {
	CompleteElapsed(ctx context.Context) ([]*model.RehearsalOccurrence, error)
}

func NewCompleter(logger *zap.SugaredLogger, rehearsals rehearsalsService, period time.Duration) *Completer {
	if period <= 0 {
		period = time.Minute
	}

	return &Completer{
		logger:     logger,
		rehearsals: rehearsals,
		period:     period,
	}
}

func (c *Completer) Start(ctx context.Context) {
	// initial sweep
	c.sweep(ctx)

	ticker := time.NewTicker(c.period)
	done := make(chan bool)

	closer.Bind(func() {
		done <- true
		ticker.Stop()
	})

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Completer) sweep(ctx context.Context) {
	occs, err := c.rehearsals.CompleteElapsed(ctx)
	if err != nil {
		c.logger.Errorw("failed completing elapsed occurrences", "err", err)
		return
	}

	if len(occs) != 0 {
		c.logger.Infow("completed elapsed occurrences", "count", len(occs))
	}
}
