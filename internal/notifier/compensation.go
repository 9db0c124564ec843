package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
)

// Outcome classifies a failed side-effecting operation
type Outcome int

const (
	// OutcomeConflict means the target moved on and a compensating action
	// followed by a retry may succeed
	OutcomeConflict Outcome = iota
	// OutcomeFatal means the failure is returned to the caller as-is
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConflict:
		return "conflict"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classifier decides the outcome of an error
type Classifier func(err error) Outcome

// ClassifyAppendError treats any append failure as a conflict, except
// cancellation and configuration errors.
func ClassifyAppendError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeFatal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeFatal
	case domain.IsConfigurationError(err):
		return OutcomeFatal
	default:
		return OutcomeConflict
	}
}

// ClassifyStrict only compensates explicit manifest conflicts
func ClassifyStrict(err error) Outcome {
	if domain.IsConflict(err) {
		return OutcomeConflict
	}
	return OutcomeFatal
}

// CompensationPolicy retries an operation after a compensating action when
// it fails with a conflict
type CompensationPolicy struct {
	MaxCompensations int
	Classify         Classifier
}

// DefaultCompensationPolicy compensates once, for any non-fatal failure
func DefaultCompensationPolicy() CompensationPolicy {
	return CompensationPolicy{
		MaxCompensations: 1,
		Classify:         ClassifyAppendError,
	}
}

// normalize fills a zero policy with defaults, keeping a positive limit
func (p CompensationPolicy) normalize() CompensationPolicy {
	if p.Classify == nil {
		limit := p.MaxCompensations
		p = DefaultCompensationPolicy()
		if limit > 0 {
			p.MaxCompensations = limit
		}
	}
	if p.MaxCompensations < 0 {
		p.MaxCompensations = 0
	}
	return p
}

// Run calls op. While op fails with a conflict and compensations remain,
// compensate is called with the failure and op is tried again. The error of
// the last attempt, or of a failed compensation, is returned.
func (p CompensationPolicy) Run(
	ctx context.Context,
	op func(ctx context.Context) error,
	compensate func(ctx context.Context, attempt int, cause error) error,
) error {
	p = p.normalize()

	err := op(ctx)
	for attempt := 1; err != nil; attempt++ {
		if attempt > p.MaxCompensations || p.Classify(err) != OutcomeConflict {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if cerr := compensate(ctx, attempt, err); cerr != nil {
			return fmt.Errorf("compensation failed: %w (after: %v)", cerr, err)
		}
		err = op(ctx)
	}
	return nil
}
