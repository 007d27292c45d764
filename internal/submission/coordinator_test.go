package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unlimiteddatagh/bulkorder/internal/apiclient"
	"github.com/unlimiteddatagh/bulkorder/internal/session"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

type mockClient struct {
	calls int
	last  apiclient.BulkOrderRequest
	token string
	resp  *apiclient.BulkOrderResponse
	err   error
}

func (m *mockClient) SubmitBulkOrder(_ context.Context, token string, req apiclient.BulkOrderRequest) (*apiclient.BulkOrderResponse, error) {
	m.calls++
	m.last = req
	m.token = token
	return m.resp, m.err
}

var creds = session.Static{Token: "tok", User: "user-1"}

func items(phones ...string) []types.OrderLineItem {
	out := make([]types.OrderLineItem, len(phones))
	for i, p := range phones {
		out[i] = types.OrderLineItem{
			PhoneNumber: p,
			Network:     types.NetworkMTN,
			CapacityGB:  2,
			UnitPrice:   decimal.RequireFromString("9.20"),
			LineNumber:  i + 1,
		}
	}
	return out
}

func success(phone, ref string) apiclient.OrderOutcome {
	return apiclient.OrderOutcome{PhoneNumber: phone, Status: "success", Reference: ref}
}

func TestPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		batch    Batch
		provider session.Provider
	}{
		{"empty batch", Batch{}, creds},
		{"validation errors", Batch{Items: items("0551234567"), ValidationErrors: 1}, creds},
		{"missing token", Batch{Items: items("0551234567")}, session.Static{User: "u"}},
		{"missing user", Batch{Items: items("0551234567")}, session.Static{Token: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			c := NewCoordinator(client, tt.provider, nil)

			result, err := c.Submit(context.Background(), tt.batch)

			assert.ErrorIs(t, err, ErrPreconditionFailed)
			assert.NotErrorIs(t, err, ErrSubmissionFailed)
			assert.Zero(t, result.TotalLineItems)
			assert.Equal(t, 0, client.calls)
		})
	}
}

func TestMissingSessionIsDetectable(t *testing.T) {
	c := NewCoordinator(&mockClient{}, session.Static{}, nil)
	_, err := c.Submit(context.Background(), Batch{Items: items("0551234567")})
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestOmittedItemFails(t *testing.T) {
	client := &mockClient{resp: &apiclient.BulkOrderResponse{
		Status:           "success",
		TotalOrders:      3,
		SuccessfulOrders: 2,
		Orders: []apiclient.OrderOutcome{
			success("0551234567", "R1"),
			success("0246783840", "R2"),
		},
		RequestID: "req-1",
	}}
	c := NewCoordinator(client, creds, nil)

	result, err := c.Submit(context.Background(), Batch{
		Items:          items("0551234567", "0246783840", "0201112222"),
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "tok", client.token)
	assert.Equal(t, "user-1", client.last.UserID)
	assert.Equal(t, "key-1", client.last.IdempotencyKey)
	require.Len(t, client.last.Items, 3)
	assert.Equal(t, "MTN", client.last.Items[0].Network)

	assert.Equal(t, 3, result.TotalLineItems)
	assert.Equal(t, 2, result.SuccessfulCount)
	assert.Equal(t, "R1", result.SuccessfulLineItems[0].Reference)
	require.Len(t, result.FailedLineItems, 1)
	assert.Equal(t, "0201112222", result.FailedLineItems[0].Item.PhoneNumber)
	assert.Equal(t, string(types.ReasonNoServerResponse), result.FailedLineItems[0].Reason)
	assert.Equal(t, "req-1", result.RequestID)
}

func TestTransportFailureFailsEveryItem(t *testing.T) {
	client := &mockClient{err: &apiclient.HTTPError{StatusCode: 500, Message: "internal", RequestID: "req-9"}}
	c := NewCoordinator(client, creds, nil)

	batch := items("0551234567", "0246783840")
	result, err := c.Submit(context.Background(), Batch{Items: batch})

	require.ErrorIs(t, err, ErrSubmissionFailed)
	var httpErr *apiclient.HTTPError
	assert.True(t, errors.As(err, &httpErr))

	assert.Equal(t, 1, client.calls)
	assert.Zero(t, result.SuccessfulCount)
	require.Len(t, result.FailedLineItems, 2)
	assert.Equal(t, result.FailedLineItems[0].Reason, result.FailedLineItems[1].Reason)
	assert.Contains(t, result.FailedLineItems[0].Reason, "internal")
	assert.Equal(t, "req-9", result.RequestID)
}

func TestRejectedBatch(t *testing.T) {
	client := &mockClient{resp: &apiclient.BulkOrderResponse{Status: "error", Message: "Insufficient balance"}}
	c := NewCoordinator(client, creds, nil)

	result, err := c.Submit(context.Background(), Batch{Items: items("0551234567")})

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	require.Len(t, result.FailedLineItems, 1)
	assert.Equal(t, "Insufficient balance", result.FailedLineItems[0].Reason)
}

func TestReconcile(t *testing.T) {
	balance := decimal.RequireFromString("10.50")

	tests := []struct {
		name       string
		items      []types.OrderLineItem
		resp       *apiclient.BulkOrderResponse
		successful []string
		failed     map[string]string
	}{
		{
			name:  "invalid orders carry the server reason",
			items: items("0551234567", "0246783840"),
			resp: &apiclient.BulkOrderResponse{
				Status:        "partial",
				Orders:        []apiclient.OrderOutcome{success("0551234567", "R1")},
				InvalidOrders: []apiclient.InvalidOrder{{PhoneNumber: "0246783840", Reason: "number barred"}},
			},
			successful: []string{"0551234567"},
			failed:     map[string]string{"0246783840": "number barred"},
		},
		{
			name:  "failure wins over success",
			items: items("0551234567"),
			resp: &apiclient.BulkOrderResponse{
				Status:        "success",
				Orders:        []apiclient.OrderOutcome{success("0551234567", "R1")},
				InvalidOrders: []apiclient.InvalidOrder{{PhoneNumber: "0551234567"}},
			},
			failed: map[string]string{"0551234567": "rejected by server"},
		},
		{
			name:  "international form matches local item",
			items: items("0551234567"),
			resp: &apiclient.BulkOrderResponse{
				Status: "success",
				Orders: []apiclient.OrderOutcome{success("+233 55 123 4567", "R1")},
			},
			successful: []string{"0551234567"},
		},
		{
			name:  "ambiguous local form is not guessed",
			items: items("0551234567", "233551234567"),
			resp: &apiclient.BulkOrderResponse{
				Status: "success",
				Orders: []apiclient.OrderOutcome{success("055 123 4567", "R1")},
			},
			successful: []string{"0551234567"},
			failed:     map[string]string{"233551234567": string(types.ReasonNoServerResponse)},
		},
		{
			name:  "failed status on an order",
			items: items("0551234567"),
			resp: &apiclient.BulkOrderResponse{
				Status: "success",
				Orders: []apiclient.OrderOutcome{{PhoneNumber: "0551234567", Status: "failed"}},
			},
			failed: map[string]string{"0551234567": "server reported status failed"},
		},
		{
			name:  "unknown phones are ignored",
			items: items("0551234567"),
			resp: &apiclient.BulkOrderResponse{
				Status:           "success",
				Orders:           []apiclient.OrderOutcome{success("0209999999", "RX"), success("0551234567", "R1")},
				NewWalletBalance: &balance,
			},
			successful: []string{"0551234567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reconcile(tt.items, tt.resp)

			assert.Equal(t, len(tt.items), result.TotalLineItems)
			assert.Equal(t, len(tt.items), result.SuccessfulCount+result.FailedCount())

			var gotSuccessful []string
			for _, s := range result.SuccessfulLineItems {
				gotSuccessful = append(gotSuccessful, s.Item.PhoneNumber)
			}
			assert.Equal(t, tt.successful, gotSuccessful)

			gotFailed := map[string]string{}
			for _, f := range result.FailedLineItems {
				gotFailed[f.Item.PhoneNumber] = f.Reason
			}
			if tt.failed == nil {
				assert.Empty(t, gotFailed)
			} else {
				assert.Equal(t, tt.failed, gotFailed)
			}
			assert.Equal(t, tt.resp.NewWalletBalance, result.NewAggregateBalance)
		})
	}
}

func TestZeroSuccessIsStillAResult(t *testing.T) {
	client := &mockClient{resp: &apiclient.BulkOrderResponse{Status: "success"}}
	c := NewCoordinator(client, creds, nil)

	result, err := c.Submit(context.Background(), Batch{Items: items("0551234567")})
	require.NoError(t, err)
	assert.Zero(t, result.SuccessfulCount)
	assert.Equal(t, 1, result.FailedCount())
}
