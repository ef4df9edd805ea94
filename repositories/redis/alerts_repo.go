package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// AlertStore keeps suspicious transactions as one string key per (card, transaction) pair
// plus a per-card index set. Both carry the row TTL so Redis expires them on its own.
type AlertStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewAlertStore(client redis.Cmdable, prefix string) *AlertStore {
	if prefix == "" {
		prefix = "suspicious"
	}
	return &AlertStore{client: client, prefix: prefix, now: time.Now}
}

func (s *AlertStore) rowKey(card, txID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, card, txID)
}

func (s *AlertStore) indexKey(card string) string {
	return fmt.Sprintf("%s:%s", s.prefix, card)
}

// PutSuspicious overwrites the row for (card_number, transaction_id).
func (s *AlertStore) PutSuspicious(ctx context.Context, tx models.SuspiciousTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	expireAt := time.Unix(tx.TTL, 0)
	if !expireAt.After(s.now()) {
		return nil
	}

	index := s.indexKey(tx.CardNumber)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.rowKey(tx.CardNumber, tx.TransactionID), data, 0)
		pipe.ExpireAt(ctx, s.rowKey(tx.CardNumber, tx.TransactionID), expireAt)
		pipe.SAdd(ctx, index, tx.TransactionID)
		pipe.ExpireAt(ctx, index, expireAt)
		return nil
	})
	return err
}

// ListSuspicious returns every live row for card ordered by transaction id.
func (s *AlertStore) ListSuspicious(ctx context.Context, card string) ([]models.SuspiciousTransaction, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(card)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.rowKey(card, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rows := make([]models.SuspiciousTransaction, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SMEMBERS and MGET
			continue
		}
		var row models.SuspiciousTransaction
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
