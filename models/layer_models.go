package models

// StagedTransaction is a flattened raw event as stored in the stage layer.
type StagedTransaction struct {
	CardholderName  string  `json:"cardholder_name" parquet:"cardholder_name"`
	TaxID           string  `json:"tax_id" parquet:"tax_id"`
	Amount          float64 `json:"amount" parquet:"amount"`
	CardBrand       string  `json:"card_brand" parquet:"card_brand"`
	CardNumber      string  `json:"card_number" parquet:"card_number"`
	CVV             string  `json:"cvv" parquet:"cvv"`
	Expiry          string  `json:"expiry" parquet:"expiry"`
	CardType        string  `json:"card_type" parquet:"card_type"`
	CardColor       string  `json:"card_color" parquet:"card_color"`
	TransactionType string  `json:"transaction_type" parquet:"transaction_type"`
	City            string  `json:"city" parquet:"city"`
	Latitude        float64 `json:"latitude" parquet:"latitude"`
	Longitude       float64 `json:"longitude" parquet:"longitude"`
	Timestamp       string  `json:"timestamp" parquet:"timestamp"`
	State           string  `json:"state" parquet:"state"`
}

// SpecTransaction is the aggregated spec layer row: amount summed per dimension group.
type SpecTransaction struct {
	CardBrand       string  `json:"card_brand" parquet:"card_brand"`
	CardNumber      string  `json:"card_number" parquet:"card_number"`
	Expiry          string  `json:"expiry" parquet:"expiry"`
	CardType        string  `json:"card_type" parquet:"card_type"`
	CardColor       string  `json:"card_color" parquet:"card_color"`
	TransactionType string  `json:"transaction_type" parquet:"transaction_type"`
	City            string  `json:"city" parquet:"city"`
	Latitude        float64 `json:"latitude" parquet:"latitude"`
	Longitude       float64 `json:"longitude" parquet:"longitude"`
	State           string  `json:"state" parquet:"state"`
	Amount          float64 `json:"amount" parquet:"amount"`
}

// SpecKey is the group-by key of the spec layer aggregation.
type SpecKey struct {
	CardBrand       string
	CardNumber      string
	Expiry          string
	CardType        string
	CardColor       string
	TransactionType string
	City            string
	Latitude        float64
	Longitude       float64
	State           string
}

func (s StagedTransaction) SpecKey() SpecKey {
	return SpecKey{
		CardBrand:       s.CardBrand,
		CardNumber:      s.CardNumber,
		Expiry:          s.Expiry,
		CardType:        s.CardType,
		CardColor:       s.CardColor,
		TransactionType: s.TransactionType,
		City:            s.City,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		State:           s.State,
	}
}

func (k SpecKey) Row(amount float64) SpecTransaction {
	return SpecTransaction{
		CardBrand:       k.CardBrand,
		CardNumber:      k.CardNumber,
		Expiry:          k.Expiry,
		CardType:        k.CardType,
		CardColor:       k.CardColor,
		TransactionType: k.TransactionType,
		City:            k.City,
		Latitude:        k.Latitude,
		Longitude:       k.Longitude,
		State:           k.State,
		Amount:          amount,
	}
}
