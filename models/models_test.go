package models

import (
	// Go Internal Packages
	"encoding/json"
	"testing"
	"time"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() TransactionEvent {
	return TransactionEvent{
		CardholderName:  "Maria Souza",
		TaxID:           "52998224725",
		Amount:          decimal.RequireFromString("123.45"),
		CardBrand:       "Visa",
		CardNumber:      "4111111111111111",
		CVV:             "123",
		Expiry:          "12/30",
		CardType:        CardGold,
		CardColor:       ColorBlue,
		TransactionType: TxCredit,
		Location:        Location{Lat: -23.55, Lng: -46.63, City: "São Paulo", State: "SP"},
		Timestamp:       time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransactionEventValidate(t *testing.T) {
	ev := validEvent()
	require.NoError(t, ev.Validate())

	ev.CardType = "titanium"
	ev.CVV = ""
	ev.Amount = decimal.Zero
	err := ev.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card_type unknown value titanium")
	assert.Contains(t, err.Error(), "cvv cannot be empty")
	assert.Contains(t, err.Error(), "amount must be positive")
}

func TestTransactionEventJSONFieldNames(t *testing.T) {
	ev := validEvent()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, field := range []string{"cardholder_name", "tax_id", "amount", "card_brand", "card_number", "cvv",
		"expiry", "card_type", "card_color", "transaction_type", "location", "timestamp"} {
		assert.Contains(t, m, field)
	}
	assert.Equal(t, "SP", m["location"].(map[string]any)["state"])

	// numeric amounts decode as well as quoted ones
	var decoded TransactionEvent
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 2000.5}`), &decoded))
	assert.True(t, decoded.Amount.Equal(decimal.RequireFromString("2000.5")))
}

func TestToSuspiciousIsStablePerWindow(t *testing.T) {
	end := time.Date(2026, 10, 15, 12, 2, 0, 0, time.UTC)
	agg := WindowedAggregate{CardNumber: "4111111111111111", Amount: decimal.NewFromInt(6500), WindowEnd: end}
	now := time.Date(2026, 10, 15, 12, 3, 0, 0, time.UTC)

	first := agg.ToSuspicious(now, 30*24*time.Hour)
	second := agg.ToSuspicious(now.Add(time.Minute), 30*24*time.Hour)

	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, "2026-10-15T12:02:00Z", first.TransactionID)
	assert.Equal(t, now.Add(30*24*time.Hour).Unix(), first.TTL)
}

func TestPipelineStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateCrawlRaw.Terminal())
}
