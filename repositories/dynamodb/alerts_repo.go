package dynamodb

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strconv"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Attribute names of the suspicious transactions table.
const (
	AttrCardNumber    = "card_number"
	AttrTransactionID = "transaction_id"
	AttrAmount        = "amount"
	AttrWindowEnd     = "window_end"
	AttrTTL           = "TTL"
)

// dynamoAPI defines the DynamoDB operations used by the alert store.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ dynamoAPI = (*dynamodb.Client)(nil)

type AlertStore struct {
	client dynamoAPI
	table  string
	now    func() time.Time
}

// Connect builds an AlertStore from the default AWS credential chain.
func Connect(ctx context.Context, table, region, endpoint string) (*AlertStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewAlertStore(client, table), nil
}

func NewAlertStore(client dynamoAPI, table string) *AlertStore {
	return &AlertStore{client: client, table: table, now: time.Now}
}

// PutSuspicious writes the row; an existing row with the same key is replaced.
func (s *AlertStore) PutSuspicious(ctx context.Context, tx models.SuspiciousTransaction) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]ddbtypes.AttributeValue{
			AttrCardNumber:    &ddbtypes.AttributeValueMemberS{Value: tx.CardNumber},
			AttrTransactionID: &ddbtypes.AttributeValueMemberS{Value: tx.TransactionID},
			AttrAmount:        &ddbtypes.AttributeValueMemberN{Value: tx.Amount.String()},
			AttrWindowEnd:     &ddbtypes.AttributeValueMemberS{Value: tx.WindowEnd.UTC().Format(time.RFC3339)},
			AttrTTL:           &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(tx.TTL, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %s: %w", s.table, err)
	}
	return nil
}

// ListSuspicious queries every row of the card partition. DynamoDB deletes expired items
// lazily, so rows past their TTL are filtered out here.
func (s *AlertStore) ListSuspicious(ctx context.Context, card string) ([]models.SuspiciousTransaction, error) {
	var (
		rows      []models.SuspiciousTransaction
		startKey  map[string]ddbtypes.AttributeValue
		nowEpoch  = s.now().Unix()
		keyFilter = "#pk = :card"
	)
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    aws.String(keyFilter),
			ExpressionAttributeNames:  map[string]string{"#pk": AttrCardNumber},
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{":card": &ddbtypes.AttributeValueMemberS{Value: card}},
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb query %s: %w", s.table, err)
		}
		for _, item := range out.Items {
			row, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			if row.TTL > 0 && row.TTL <= nowEpoch {
				continue
			}
			rows = append(rows, row)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return rows, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func decodeItem(item map[string]ddbtypes.AttributeValue) (models.SuspiciousTransaction, error) {
	var row models.SuspiciousTransaction
	row.CardNumber = stringAttr(item, AttrCardNumber)
	row.TransactionID = stringAttr(item, AttrTransactionID)

	if v := numberAttr(item, AttrAmount); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return row, fmt.Errorf("decode %s: %w", AttrAmount, err)
		}
		row.Amount = amount
	}
	if v := stringAttr(item, AttrWindowEnd); v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return row, fmt.Errorf("decode %s: %w", AttrWindowEnd, err)
		}
		row.WindowEnd = end
	}
	if v := numberAttr(item, AttrTTL); v != "" {
		ttl, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return row, fmt.Errorf("decode %s: %w", AttrTTL, err)
		}
		row.TTL = ttl
	}
	return row, nil
}

func stringAttr(item map[string]ddbtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*ddbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func numberAttr(item map[string]ddbtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*ddbtypes.AttributeValueMemberN); ok {
		return v.Value
	}
	return ""
}
