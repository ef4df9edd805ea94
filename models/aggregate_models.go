package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

// WindowedAggregate is one (card, window) result of the tumbling-window aggregation.
type WindowedAggregate struct {
	CardNumber  string          `json:"card_number"`
	Amount      decimal.Decimal `json:"amount"`
	Function    string          `json:"function"`
	EventCount  int             `json:"event_count"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
}

// SuspiciousTransaction is the key-value row served by the API.
// CardNumber is the partition key and TransactionID the sort key.
type SuspiciousTransaction struct {
	CardNumber    string          `json:"card_number"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	WindowEnd     time.Time       `json:"window_end"`
	TTL           int64           `json:"ttl"`
}

// ToSuspicious derives the stored row. The sort key depends only on the window end so a
// redelivered aggregate overwrites its previous row.
func (a WindowedAggregate) ToSuspicious(now time.Time, ttl time.Duration) SuspiciousTransaction {
	return SuspiciousTransaction{
		CardNumber:    a.CardNumber,
		TransactionID: a.WindowEnd.UTC().Format(time.RFC3339),
		Amount:        a.Amount,
		WindowEnd:     a.WindowEnd.UTC(),
		TTL:           now.Add(ttl).Unix(),
	}
}
