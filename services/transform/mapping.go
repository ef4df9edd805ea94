package transform

import (
	// Go Internal Packages
	"fmt"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// Mapping promotes the value at a dotted source path to a top-level column, cast to Type.
type Mapping struct {
	Source string
	Target string
	Type   string
}

// StageMappings flattens a raw transaction event into a staged row.
var StageMappings = []Mapping{
	{Source: "cardholder_name", Target: "cardholder_name", Type: "string"},
	{Source: "tax_id", Target: "tax_id", Type: "string"},
	{Source: "amount", Target: "amount", Type: "double"},
	{Source: "card_brand", Target: "card_brand", Type: "string"},
	{Source: "card_number", Target: "card_number", Type: "string"},
	{Source: "cvv", Target: "cvv", Type: "string"},
	{Source: "expiry", Target: "expiry", Type: "string"},
	{Source: "card_type", Target: "card_type", Type: "string"},
	{Source: "card_color", Target: "card_color", Type: "string"},
	{Source: "transaction_type", Target: "transaction_type", Type: "string"},
	{Source: "location.city", Target: "city", Type: "string"},
	{Source: "location.lat", Target: "latitude", Type: "double"},
	{Source: "location.lng", Target: "longitude", Type: "double"},
	{Source: "timestamp", Target: "timestamp", Type: "string"},
	{Source: "location.state", Target: "state", Type: "string"},
}

// ApplyMapping evaluates every mapping against a JSON document. Missing sources are skipped.
func ApplyMapping(doc []byte, mappings []Mapping) (map[string]any, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("invalid json document")
	}
	out := make(map[string]any, len(mappings))
	for _, m := range mappings {
		res := gjson.GetBytes(doc, m.Source)
		if !res.Exists() {
			continue
		}
		switch m.Type {
		case "double":
			out[m.Target] = res.Float()
		case "bigint":
			out[m.Target] = res.Int()
		case "boolean":
			out[m.Target] = res.Bool()
		case "string":
			out[m.Target] = res.String()
		default:
			return nil, fmt.Errorf("unsupported mapping type %q for %s", m.Type, m.Source)
		}
	}
	return out, nil
}

// StageRow maps one raw event line into a staged row.
func StageRow(doc []byte) (models.StagedTransaction, error) {
	var row models.StagedTransaction
	fields, err := ApplyMapping(doc, StageMappings)
	if err != nil {
		return row, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &row,
	})
	if err != nil {
		return row, err
	}
	if err := decoder.Decode(fields); err != nil {
		return row, err
	}
	return row, nil
}
