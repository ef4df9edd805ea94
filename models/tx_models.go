package models

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "card-pipeline/errors"

	// External Packages
	"github.com/shopspring/decimal"
)

type CardType string

const (
	CardUnlimited CardType = "unlimited"
	CardBlack     CardType = "black"
	CardPlatinum  CardType = "platinum"
	CardGold      CardType = "gold"
	CardStandard  CardType = "standard"
)

// CardTypes lists every card type in the order used for weighted sampling.
var CardTypes = []CardType{CardUnlimited, CardBlack, CardPlatinum, CardGold, CardStandard}

type CardColor string

const (
	ColorBlack  CardColor = "black"
	ColorSilver CardColor = "silver"
	ColorYellow CardColor = "yellow"
	ColorBlue   CardColor = "blue"
	ColorGreen  CardColor = "green"
)

var CardColors = []CardColor{ColorBlack, ColorSilver, ColorYellow, ColorBlue, ColorGreen}

type TransactionType string

const (
	TxCredit TransactionType = "credit"
	TxDebit  TransactionType = "debit"
)

var TransactionTypes = []TransactionType{TxCredit, TxDebit}

func (c CardType) Valid() bool        { return contains(CardTypes, c) }
func (c CardColor) Valid() bool       { return contains(CardColors, c) }
func (t TransactionType) Valid() bool { return contains(TransactionTypes, t) }

type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	City  string  `json:"city"`
	State string  `json:"state"`
}

// TransactionEvent is a synthetic card transaction as published on the ingestion stream.
type TransactionEvent struct {
	CardholderName  string          `json:"cardholder_name"`
	TaxID           string          `json:"tax_id"`
	Amount          decimal.Decimal `json:"amount"`
	CardBrand       string          `json:"card_brand"`
	CardNumber      string          `json:"card_number"`
	CVV             string          `json:"cvv"`
	Expiry          string          `json:"expiry"`
	CardType        CardType        `json:"card_type"`
	CardColor       CardColor       `json:"card_color"`
	TransactionType TransactionType `json:"transaction_type"`
	Location        Location        `json:"location"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Validate checks required fields and enumerations.
func (t *TransactionEvent) Validate() error {
	ve := errors.ValidationErrs()

	required := map[string]string{
		"cardholder_name": t.CardholderName,
		"tax_id":          t.TaxID,
		"card_brand":      t.CardBrand,
		"card_number":     t.CardNumber,
		"cvv":             t.CVV,
		"expiry":          t.Expiry,
		"location.city":   t.Location.City,
		"location.state":  t.Location.State,
	}
	for field, v := range required {
		if v == "" {
			ve.Add(field, "cannot be empty")
		}
	}
	if !t.Amount.IsPositive() {
		ve.Add("amount", "must be positive")
	}
	if !t.CardType.Valid() {
		ve.Add("card_type", "unknown value "+string(t.CardType))
	}
	if !t.CardColor.Valid() {
		ve.Add("card_color", "unknown value "+string(t.CardColor))
	}
	if !t.TransactionType.Valid() {
		ve.Add("transaction_type", "unknown value "+string(t.TransactionType))
	}
	if t.Timestamp.IsZero() {
		ve.Add("timestamp", "cannot be empty")
	}

	return ve.Err()
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
