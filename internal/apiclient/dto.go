package apiclient

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wire types for the UnlimitedData backend. Every response type carries
// validate tags and is checked right after decoding, so a missing field is an
// ErrDecode instead of a silent zero value further down.

// =============================================================================
// CATALOG
// =============================================================================

// CatalogEntry is one row of GET <catalog path>.
type CatalogEntry struct {
	CapacityGB int              `json:"capacityGb" validate:"required,gt=0"`
	Network    string           `json:"network" validate:"required"`
	UnitPrice  *decimal.Decimal `json:"unitPrice" validate:"required"`
}

type catalogResponse struct {
	Data []CatalogEntry `json:"data" validate:"dive"`
}

// =============================================================================
// BULK ORDER
// =============================================================================

// BulkOrderItem is one recipient in a bulk order.
type BulkOrderItem struct {
	PhoneNumber string          `json:"phoneNumber"`
	Network     string          `json:"network"`
	CapacityGB  int             `json:"capacityGb"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// BulkOrderRequest is the body of POST <bulk order path>.
type BulkOrderRequest struct {
	UserID string          `json:"userId"`
	Items  []BulkOrderItem `json:"items"`

	// IdempotencyKey is sent as X-Idempotency-Key. A new key is generated when empty.
	IdempotencyKey string `json:"-"`
}

// OrderOutcome is the server's verdict on one submitted recipient.
type OrderOutcome struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Status      string `json:"status" validate:"required"`
	Reference   string `json:"reference"`
}

// Succeeded reports whether the server accepted this recipient.
func (o OrderOutcome) Succeeded() bool {
	switch strings.ToLower(o.Status) {
	case "success", "successful", "completed", "pending", "processing":
		return true
	default:
		return false
	}
}

// InvalidOrder is a recipient the server refused.
type InvalidOrder struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Reason      string `json:"reason"`
}

// BulkOrderResponse is the 2xx reply to a bulk order.
type BulkOrderResponse struct {
	Status           string           `json:"status" validate:"required"`
	Message          string           `json:"message"`
	TotalOrders      int              `json:"totalOrders" validate:"gte=0"`
	SuccessfulOrders int              `json:"successfulOrders" validate:"gte=0"`
	Orders           []OrderOutcome   `json:"orders" validate:"dive"`
	InvalidOrders    []InvalidOrder   `json:"invalidOrders" validate:"dive"`
	NewWalletBalance *decimal.Decimal `json:"newWalletBalance"`

	// RequestID is the X-Request-ID the request was sent with.
	RequestID string `json:"-"`
}

// Accepted reports whether the server processed the batch at all. A batch the
// server rejected as a whole has no per-item outcomes worth reconciling.
func (r *BulkOrderResponse) Accepted() bool {
	switch strings.ToLower(r.Status) {
	case "success", "partial", "ok", "completed":
		return true
	default:
		return false
	}
}

// =============================================================================
// ORDER HISTORY
// =============================================================================

// HistoryOrder is one row of GET <order history path>.
type HistoryOrder struct {
	CreatedAt   time.Time        `json:"createdAt" validate:"required"`
	Reference   string           `json:"reference" validate:"required"`
	Network     string           `json:"network" validate:"required"`
	CapacityGB  int              `json:"capacityGb" validate:"gt=0"`
	PhoneNumber string           `json:"phoneNumber" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Status      string           `json:"status" validate:"required"`
}

type historyResponse struct {
	Orders []HistoryOrder `json:"orders" validate:"dive"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
