package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs steps strictly in order and remembers which ones completed so
// they can be undone in reverse.
type saga struct {
	logger *zap.Logger
	steps  []sagaStep
	done   []sagaStep
}

func (sg *saga) add(step sagaStep) {
	sg.steps = append(sg.steps, step)
}

func (sg *saga) run(ctx context.Context) error {
	for _, step := range sg.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before %s: %w", step.name, err)
		}
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		sg.done = append(sg.done, step)
	}
	return nil
}

func (sg *saga) rollback(ctx context.Context) error {
	var errs []error
	for i := len(sg.done) - 1; i >= 0; i-- {
		step := sg.done[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			sg.logger.Error("compensation failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.name, err))
			continue
		}
		sg.logger.Info("step compensated", zap.String("step", step.name))
	}
	return errors.Join(errs...)
}
