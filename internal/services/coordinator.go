package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
)

// TxRunner runs fn inside one storage transaction. fn must use the context it
// is given so its writes join the transaction.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Step is one write in a multi-collection mutation.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepError records which write of a mutation failed.
type StepError struct {
	Op   string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

const primaryStep = "primary"

// Coordinator groups writes that must land together. Steps run in order on
// the session context; the first failure aborts the transaction and no later
// step is attempted.
type Coordinator struct {
	tx  TxRunner
	log zerolog.Logger
}

func NewCoordinator(tx TxRunner, log zerolog.Logger) *Coordinator {
	return &Coordinator{tx: tx, log: log}
}

// Execute runs primary, then the steps fanOut builds from the id primary
// produced. The returned error is always an *apperror.Error.
func (c *Coordinator) Execute(
	ctx context.Context,
	op string,
	primary func(ctx context.Context) (primitive.ObjectID, error),
	fanOut func(id primitive.ObjectID) []Step,
) (primitive.ObjectID, error) {
	var id primitive.ObjectID
	err := c.tx.InTransaction(ctx, func(txCtx context.Context) error {
		var err error
		id, err = primary(txCtx)
		if err != nil {
			return &StepError{Op: op, Step: primaryStep, Err: err}
		}
		if fanOut == nil {
			return nil
		}
		return runSteps(txCtx, op, fanOut(id))
	})
	if err != nil {
		return primitive.NilObjectID, c.fail(ctx, op, err)
	}
	return id, nil
}

// Run executes steps in one transaction with no generated id.
func (c *Coordinator) Run(ctx context.Context, op string, steps ...Step) error {
	err := c.tx.InTransaction(ctx, func(txCtx context.Context) error {
		return runSteps(txCtx, op, steps)
	})
	if err != nil {
		return c.fail(ctx, op, err)
	}
	return nil
}

func runSteps(ctx context.Context, op string, steps []Step) error {
	for _, s := range steps {
		if err := s.Run(ctx); err != nil {
			return &StepError{Op: op, Step: s.Name, Err: err}
		}
	}
	return nil
}

func (c *Coordinator) fail(ctx context.Context, op string, err error) error {
	appErr := apperror.Classify(err)

	log := logging.FromContext(ctx, c.log)
	evt := log.Debug()
	if appErr.Status >= 500 {
		evt = log.Error()
	}
	step := ""
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		step = stepErr.Step
	}
	evt.Err(err).Str("op", op).Str("step", step).Int("status", appErr.Status).Msg("transaction aborted")

	// keep the StepError reachable through errors.As
	return appErr.Wrap(err)
}

// must turns a "nothing matched" result into err.
func must(matched bool, err error, onMiss error) error {
	if err != nil {
		return err
	}
	if !matched {
		return onMiss
	}
	return nil
}
