package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is one past order as reported by the backend's order history.
type OrderRecord struct {
	Date        time.Time
	Reference   string
	Network     Network
	CapacityGB  int
	PhoneNumber string
	Price       decimal.Decimal
	Status      string
}
