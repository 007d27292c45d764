// =============================================================================
// Bulk Order Composer - Session
// =============================================================================
//
// A Composer is one user's bulk order session. It owns the raw input, the
// validated batch and the last submission result, and moves between states
// only through its operations.
//
// STATES:
//   Empty -> Parsed -> ValidatedClean | ValidatedWithErrors
//   ValidatedClean -> Submitting -> Completed | Failed
//   Failed -> Submitting (retry of the retained batch, same idempotency key)
//
//   Parse is allowed from any state except Submitting and always lands in
//   Parsed, discarding the previous batch. Reset returns to Empty.
//
// CONCURRENCY:
//   All operations are safe to call from multiple goroutines. Only Submit
//   blocks, and while it does every other Submit fails with
//   ErrSubmissionInProgress. Close abandons an in-flight submission; its
//   eventual reply is dropped.
//
// =============================================================================

package composer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/aggregate"
	"github.com/unlimiteddatagh/bulkorder/internal/input"
	"github.com/unlimiteddatagh/bulkorder/internal/logging"
	"github.com/unlimiteddatagh/bulkorder/internal/submission"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/internal/validation"
)

// =============================================================================
// STATES
// =============================================================================

// State is the position of a session in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateParsed
	StateValidatedClean
	StateValidatedWithErrors
	StateSubmitting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateParsed:
		return "parsed"
	case StateValidatedClean:
		return "validated"
	case StateValidatedWithErrors:
		return "validated-with-errors"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrSubmissionInProgress is returned by any mutating call made while a
	// submission is in flight.
	ErrSubmissionInProgress = errors.New("submission already in progress")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
)

// Submitter sends a batch. *submission.Coordinator implements it.
type Submitter interface {
	Submit(ctx context.Context, batch submission.Batch) (types.BatchSubmissionResult, error)
}

// =============================================================================
// COMPOSER
// =============================================================================

// Composer is a single bulk order session.
type Composer struct {
	catalog   validation.PriceLookup
	submitter Submitter
	logger    *zap.Logger

	mu             sync.Mutex
	state          State
	lines          []types.RawEntryLine
	items          []types.OrderLineItem
	errs           []*types.ValidationError
	lastResult     *types.BatchSubmissionResult
	idempotencyKey string
	cancel         context.CancelFunc
	closed         bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) { c.logger = logging.OrNop(l) }
}

// New creates an empty session validating against catalog and submitting
// through submitter.
func New(catalog validation.PriceLookup, submitter Submitter, opts ...Option) *Composer {
	c := &Composer{
		catalog:   catalog,
		submitter: submitter,
		logger:    zap.NewNop(),
		state:     StateEmpty,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Parse replaces the session input with raw. Previous lines, items and errors
// are discarded, so parsing the same text twice is the same as parsing it once.
func (c *Composer) Parse(raw string) error {
	return c.ParseLines(input.Collect(input.Lines(raw)))
}

// ParseLines replaces the session input with already split lines, such as
// the rows of a CSV or XLSX file.
func (c *Composer) ParseLines(lines []types.RawEntryLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable(); err != nil {
		return err
	}

	c.lines = slices.Clone(lines)
	c.items = nil
	c.errs = nil
	c.idempotencyKey = ""
	c.state = StateParsed

	c.logger.Debug("parsed input", zap.Int("lines", len(lines)))
	return nil
}

// Validate runs the line validator over the parsed input.
func (c *Composer) Validate() (*validation.ValidationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable(); err != nil {
		return nil, err
	}
	switch c.state {
	case StateParsed, StateValidatedClean, StateValidatedWithErrors:
	default:
		return nil, fmt.Errorf("%w: cannot validate in state %s", ErrInvalidState, c.state)
	}

	result := validation.NewValidator(c.catalog).ValidateAll(slices.Values(c.lines))

	c.items = result.Items
	c.errs = result.Errors
	c.idempotencyKey = ""
	if len(result.Errors) == 0 {
		c.state = StateValidatedClean
	} else {
		c.state = StateValidatedWithErrors
	}

	c.logger.Info("validated batch",
		zap.Int("items", len(result.Items)),
		zap.Int("errors", len(result.Errors)),
		zap.Stringer("state", c.state),
	)
	return result, nil
}

// Submit sends the validated batch. It is allowed from ValidatedClean and
// from Failed; every other state fails with submission.ErrPreconditionFailed
// without a network call.
//
// RETURNS:
//   - The submission result, also available through LastResult.
//   - nil when the server processed the batch, an error wrapping
//     submission.ErrSubmissionFailed when the whole batch failed, or
//     ErrClosed when the session was closed while waiting for the reply.
func (c *Composer) Submit(ctx context.Context) (types.BatchSubmissionResult, error) {
	c.mu.Lock()

	if err := c.checkMutable(); err != nil {
		c.mu.Unlock()
		return types.BatchSubmissionResult{}, err
	}

	from := c.state
	switch from {
	case StateValidatedClean, StateFailed:
	case StateValidatedWithErrors:
		n := len(c.errs)
		c.mu.Unlock()
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: batch has %d validation error(s)",
			submission.ErrPreconditionFailed, n)
	default:
		c.mu.Unlock()
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: %w: cannot submit in state %s",
			submission.ErrPreconditionFailed, ErrInvalidState, from)
	}

	if c.idempotencyKey == "" {
		c.idempotencyKey = uuid.NewString()
	}

	batch := submission.Batch{
		Items:            slices.Clone(c.items),
		ValidationErrors: len(c.errs),
		IdempotencyKey:   c.idempotencyKey,
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateSubmitting
	c.mu.Unlock()

	result, err := c.submitter.Submit(ctx, batch)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel = nil
	if c.closed {
		c.logger.Info("dropping reply for closed session", zap.String("idempotency_key", batch.IdempotencyKey))
		return types.BatchSubmissionResult{}, ErrClosed
	}

	switch {
	case err == nil:
		c.lastResult = &result
		c.lines = nil
		c.items = nil
		c.errs = nil
		c.idempotencyKey = ""
		c.state = StateCompleted
		return result, nil

	case errors.Is(err, submission.ErrSubmissionFailed):
		c.lastResult = &result
		c.state = StateFailed
		return result, err

	default:
		// Nothing was sent.
		c.state = from
		return result, err
	}
}

// Reset discards everything and returns the session to Empty.
func (c *Composer) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable(); err != nil {
		return err
	}

	c.lines = nil
	c.items = nil
	c.errs = nil
	c.lastResult = nil
	c.idempotencyKey = ""
	c.state = StateEmpty
	return nil
}

// Close tears the session down. An in-flight submission is abandoned and
// its reply ignored. Close is idempotent.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Composer) checkMutable() error {
	if c.closed {
		return ErrClosed
	}
	if c.state == StateSubmitting {
		return ErrSubmissionInProgress
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns a copy of the current line items.
func (c *Composer) Items() []types.OrderLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Errors returns a copy of the current validation errors.
func (c *Composer) Errors() []*types.ValidationError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.errs)
}

// LastResult returns the most recent submission result, if any.
func (c *Composer) LastResult() (types.BatchSubmissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastResult == nil {
		return types.BatchSubmissionResult{}, false
	}
	return *c.lastResult, true
}

// Summary aggregates the current line items.
func (c *Composer) Summary() aggregate.Summary {
	return aggregate.Aggregate(c.Items())
}

// IdempotencyKey returns the key the next Submit will use, or "" if one has
// not been assigned yet.
func (c *Composer) IdempotencyKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idempotencyKey
}
