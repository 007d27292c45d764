package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unlimiteddatagh/bulkorder/internal/aggregate"
	"github.com/unlimiteddatagh/bulkorder/internal/catalog"
	"github.com/unlimiteddatagh/bulkorder/internal/composer"
	"github.com/unlimiteddatagh/bulkorder/internal/submission"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// flakySubmitter fails the first failures calls, then confirms every item.
type flakySubmitter struct {
	failures int
	keys     []string
}

func (f *flakySubmitter) Submit(_ context.Context, batch submission.Batch) (types.BatchSubmissionResult, error) {
	f.keys = append(f.keys, batch.IdempotencyKey)
	if len(f.keys) <= f.failures {
		return types.BatchSubmissionResult{}, fmt.Errorf("%w: connection reset", submission.ErrSubmissionFailed)
	}

	res := types.BatchSubmissionResult{TotalLineItems: len(batch.Items), SuccessfulCount: len(batch.Items)}
	for _, item := range batch.Items {
		res.SuccessfulLineItems = append(res.SuccessfulLineItems, types.SuccessfulLineItem{Item: item})
	}
	return res, nil
}

func validatedSession(t *testing.T, s composer.Submitter) *composer.Composer {
	t.Helper()
	cat, err := catalog.New(types.NetworkMTN, []types.PriceCatalogEntry{
		{CapacityGB: 2, Network: types.NetworkMTN, UnitPrice: decimal.RequireFromString("9.20")},
	})
	require.NoError(t, err)

	c := composer.New(cat, s)
	t.Cleanup(c.Close)
	require.NoError(t, c.Parse("0241234567 2\n0551234567 2"))
	_, err = c.Validate()
	require.NoError(t, err)
	return c
}

func TestSubmitWithRetries(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		retries      int
		wantAttempts int
		wantErr      bool
	}{
		{name: "first attempt succeeds", failures: 0, retries: 2, wantAttempts: 1},
		{name: "retry recovers", failures: 2, retries: 2, wantAttempts: 3},
		{name: "retries exhausted", failures: 3, retries: 1, wantAttempts: 2, wantErr: true},
		{name: "no retries", failures: 1, retries: 0, wantAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &flakySubmitter{failures: tt.failures}
			session := validatedSession(t, sub)

			res, attempts, err := submitWithRetries(context.Background(), session, tt.retries, 0)

			assert.Equal(t, tt.wantAttempts, attempts)
			require.Len(t, sub.keys, tt.wantAttempts)
			for _, key := range sub.keys {
				assert.Equal(t, sub.keys[0], key, "every attempt reuses the idempotency key")
			}

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, submission.ErrSubmissionFailed))
				assert.Equal(t, composer.StateFailed, session.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, res.SuccessfulCount)
			assert.Equal(t, composer.StateCompleted, session.State())
		})
	}
}

func TestSubmitWithRetriesStopsOnCancel(t *testing.T) {
	sub := &flakySubmitter{failures: 5}
	session := validatedSession(t, sub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, attempts, err := submitWithRetries(ctx, session, 3, time.Hour)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPrintSummary(t *testing.T) {
	summary := aggregate.Aggregate([]types.OrderLineItem{
		{PhoneNumber: "0241234567", Network: types.NetworkMTN, CapacityGB: 2, UnitPrice: decimal.RequireFromString("9.20")},
		{PhoneNumber: "0551234567", Network: types.NetworkMTN, CapacityGB: 5, UnitPrice: decimal.RequireFromString("23.50")},
	})

	var buf bytes.Buffer
	printSummary(&buf, summary)

	out := buf.String()
	assert.Contains(t, out, "NETWORK")
	assert.Contains(t, out, "32.70")
	assert.Contains(t, out, "TOTAL")
}

func TestPrintResultListsFailures(t *testing.T) {
	item := types.OrderLineItem{PhoneNumber: "0241234567", Network: types.NetworkMTN, CapacityGB: 2, LineNumber: 3}
	res := types.BatchSubmissionResult{
		TotalLineItems:  1,
		FailedLineItems: []types.FailedLineItem{{Item: item, Reason: "rejected by server"}},
		RequestID:       "req-1",
	}

	var buf bytes.Buffer
	printResult(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "Failed:          1")
	assert.Contains(t, out, "req-1")
	assert.Contains(t, out, "rejected by server")
	assert.Contains(t, out, "2GB")
}
