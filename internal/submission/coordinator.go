// =============================================================================
// Bulk Order Composer - Submission Coordinator
// =============================================================================
//
// This module sends a validated batch to the bulk order endpoint and maps the
// server's reply back onto the batch, one outcome per line item.
//
// SUBMISSION PIPELINE:
//   1. Check preconditions (non-empty, error-free batch; session present)
//   2. Make exactly one bulk order call
//   3. On transport or server failure, fail every item with one reason
//   4. Otherwise reconcile the reply per phone number
//
// RECONCILIATION RULES:
//   - An item the server reports as successful is successful
//   - An item the server reports as failed or invalid is failed with the
//     server's reason; a failure report wins over a success report
//   - An item the server never mentions is failed with
//     "no-server-response-for-item"
//
// Retries are not done here. A retry is a new call to Submit with the same
// batch and idempotency key.
//
// =============================================================================

package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/apiclient"
	"github.com/unlimiteddatagh/bulkorder/internal/logging"
	"github.com/unlimiteddatagh/bulkorder/internal/session"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/internal/validation"
)

var (
	// ErrPreconditionFailed means Submit was called with a batch that must not
	// be sent. No network call was made.
	ErrPreconditionFailed = errors.New("submission precondition failed")

	// ErrSubmissionFailed means the call failed as a whole. Every item of the
	// batch is reported as failed and the batch may be retried.
	ErrSubmissionFailed = errors.New("submission failed")
)

// BulkOrderClient is the backend call the coordinator depends on.
type BulkOrderClient interface {
	SubmitBulkOrder(ctx context.Context, token string, req apiclient.BulkOrderRequest) (*apiclient.BulkOrderResponse, error)
}

// Batch is what the coordinator submits.
type Batch struct {
	// Items are the validated line items, in input order.
	Items []types.OrderLineItem

	// ValidationErrors is the number of rejected lines in the same session.
	// Any value above zero blocks submission.
	ValidationErrors int

	// IdempotencyKey identifies this batch across retries.
	IdempotencyKey string
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator submits batches on behalf of one session.
type Coordinator struct {
	client  BulkOrderClient
	session session.Provider
	logger  *zap.Logger
}

// NewCoordinator creates a Coordinator. A nil logger disables logging.
func NewCoordinator(client BulkOrderClient, provider session.Provider, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		client:  client,
		session: provider,
		logger:  logging.OrNop(logger),
	}
}

// Submit sends batch and reconciles the reply.
//
// RETURNS:
//   - The reconciled result. On ErrSubmissionFailed it lists every item as
//     failed. On ErrPreconditionFailed it is the zero value.
//   - An error wrapping ErrPreconditionFailed or ErrSubmissionFailed, or nil
//     when the server processed the batch (even if no item succeeded).
func (c *Coordinator) Submit(ctx context.Context, batch Batch) (types.BatchSubmissionResult, error) {
	// =========================================================================
	// STEP 1: PRECONDITIONS
	// =========================================================================

	if len(batch.Items) == 0 {
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: batch is empty", ErrPreconditionFailed)
	}
	if batch.ValidationErrors > 0 {
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: batch has %d validation error(s)", ErrPreconditionFailed, batch.ValidationErrors)
	}

	token, err := c.session.AuthToken()
	if err != nil {
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
	}
	userID, err := c.session.UserID()
	if err != nil {
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
	}

	// =========================================================================
	// STEP 2: ONE CALL
	// =========================================================================

	req := apiclient.BulkOrderRequest{
		UserID:         userID,
		Items:          make([]apiclient.BulkOrderItem, 0, len(batch.Items)),
		IdempotencyKey: batch.IdempotencyKey,
	}
	for _, item := range batch.Items {
		req.Items = append(req.Items, apiclient.BulkOrderItem{
			PhoneNumber: item.PhoneNumber,
			Network:     string(item.Network),
			CapacityGB:  item.CapacityGB,
			UnitPrice:   item.UnitPrice,
		})
	}

	log := c.logger.With(zap.Int("items", len(batch.Items)), zap.String("idempotency_key", batch.IdempotencyKey))
	log.Info("submitting bulk order")

	resp, err := c.client.SubmitBulkOrder(ctx, token, req)

	// =========================================================================
	// STEP 3: WHOLE-BATCH FAILURE
	// =========================================================================

	if err != nil {
		log.Warn("bulk order failed", zap.Error(err))
		return failAll(batch.Items, requestIDOf(err), err.Error()), fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	if !resp.Accepted() {
		reason := resp.Message
		if reason == "" {
			reason = fmt.Sprintf("server rejected batch with status %q", resp.Status)
		}
		log.Warn("bulk order rejected", zap.String("status", resp.Status), zap.String("request_id", resp.RequestID))
		return failAll(batch.Items, resp.RequestID, reason), fmt.Errorf("%w: %s", ErrSubmissionFailed, reason)
	}

	// =========================================================================
	// STEP 4: RECONCILE
	// =========================================================================

	result := Reconcile(batch.Items, resp)

	log.Info("bulk order reconciled",
		zap.String("request_id", result.RequestID),
		zap.Int("successful", result.SuccessfulCount),
		zap.Int("failed", result.FailedCount()),
	)
	if resp.SuccessfulOrders != result.SuccessfulCount {
		log.Warn("server success count disagrees with per-item outcomes",
			zap.Int("server_count", resp.SuccessfulOrders),
			zap.Int("reconciled_count", result.SuccessfulCount),
		)
	}

	return result, nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

type outcome struct {
	ok        bool
	reference string
	reason    string
}

// Reconcile maps the server's per-item outcomes onto items by phone number.
func Reconcile(items []types.OrderLineItem, resp *apiclient.BulkOrderResponse) types.BatchSubmissionResult {
	idx := newPhoneIndex(items)
	outcomes := make(map[int]outcome, len(items))

	record := func(phone string, o outcome) {
		i, ok := idx.find(phone)
		if !ok {
			return
		}
		prev, seen := outcomes[i]
		if seen && !prev.ok {
			return
		}
		outcomes[i] = o
	}

	for _, o := range resp.Orders {
		if o.Succeeded() {
			record(o.PhoneNumber, outcome{ok: true, reference: o.Reference})
		} else {
			record(o.PhoneNumber, outcome{reason: "server reported status " + o.Status})
		}
	}
	for _, o := range resp.InvalidOrders {
		reason := o.Reason
		if reason == "" {
			reason = "rejected by server"
		}
		record(o.PhoneNumber, outcome{reason: reason})
	}

	result := types.BatchSubmissionResult{
		TotalLineItems:      len(items),
		SuccessfulLineItems: []types.SuccessfulLineItem{},
		FailedLineItems:     []types.FailedLineItem{},
		NewAggregateBalance: resp.NewWalletBalance,
		RequestID:           resp.RequestID,
	}

	for i, item := range items {
		o, ok := outcomes[i]
		switch {
		case !ok:
			result.FailedLineItems = append(result.FailedLineItems, types.FailedLineItem{Item: item, Reason: string(types.ReasonNoServerResponse)})
		case o.ok:
			result.SuccessfulLineItems = append(result.SuccessfulLineItems, types.SuccessfulLineItem{Item: item, Reference: o.reference})
		default:
			result.FailedLineItems = append(result.FailedLineItems, types.FailedLineItem{Item: item, Reason: o.reason})
		}
	}
	result.SuccessfulCount = len(result.SuccessfulLineItems)

	return result
}

// phoneIndex finds the batch item a server-reported phone number refers to.
// The server may echo a number in local (0XXXXXXXXX) or international
// (233XXXXXXXXX) form; the local form is tried only when it is unambiguous.
type phoneIndex struct {
	exact map[string]int
	local map[string][]int
}

func newPhoneIndex(items []types.OrderLineItem) phoneIndex {
	idx := phoneIndex{
		exact: make(map[string]int, len(items)),
		local: make(map[string][]int, len(items)),
	}
	for i, item := range items {
		if _, dup := idx.exact[item.Key()]; !dup {
			idx.exact[item.Key()] = i
		}
		k := localForm(item.Key())
		idx.local[k] = append(idx.local[k], i)
	}
	return idx
}

func (p phoneIndex) find(phone string) (int, bool) {
	digits := validation.NormalizePhone(phone)
	if i, ok := p.exact[digits]; ok {
		return i, true
	}
	if matches := p.local[localForm(digits)]; len(matches) == 1 {
		return matches[0], true
	}
	return 0, false
}

// localForm rewrites a Ghanaian international number to its local form.
func localForm(digits string) string {
	if len(digits) == 12 && strings.HasPrefix(digits, "233") {
		return "0" + digits[3:]
	}
	return digits
}

func failAll(items []types.OrderLineItem, requestID, reason string) types.BatchSubmissionResult {
	result := types.BatchSubmissionResult{
		TotalLineItems:      len(items),
		SuccessfulLineItems: []types.SuccessfulLineItem{},
		FailedLineItems:     make([]types.FailedLineItem, 0, len(items)),
		RequestID:           requestID,
	}
	for _, item := range items {
		result.FailedLineItems = append(result.FailedLineItems, types.FailedLineItem{Item: item, Reason: reason})
	}
	return result
}

func requestIDOf(err error) string {
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RequestID
	}
	return ""
}
