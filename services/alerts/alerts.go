package alerts

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	config "card-pipeline/config"
	errors "card-pipeline/errors"
	helpers "card-pipeline/helpers"
	models "card-pipeline/models"

	// External Packages
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Store persists suspicious transactions keyed by (card_number, transaction_id).
type Store interface {
	PutSuspicious(ctx context.Context, tx models.SuspiciousTransaction) error
	ListSuspicious(ctx context.Context, card string) ([]models.SuspiciousTransaction, error)
}

type Service struct {
	store  Store
	ttl    time.Duration
	retry  config.Retry
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, ttl time.Duration, retryConf config.Retry, logger *zap.Logger) *Service {
	return &Service{store: store, ttl: ttl, retry: retryConf, logger: logger, now: time.Now}
}

// Record writes one row per aggregate. Writing the same aggregate again overwrites the row.
func (s *Service) Record(ctx context.Context, agg models.WindowedAggregate) error {
	if err := validateCard(agg.CardNumber); err != nil {
		return err
	}
	if agg.WindowEnd.IsZero() {
		return errors.EmptyParamErr("window_end")
	}

	row := agg.ToSuspicious(s.now(), s.ttl)
	err := retry.Do(ctx, helpers.Backoff(s.retry), func(ctx context.Context) error {
		if err := s.store.PutSuspicious(ctx, row); err != nil {
			s.logger.Warn("failed to write suspicious transaction, retrying",
				zap.String("card_number", row.CardNumber),
				zap.String("transaction_id", row.TransactionID),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return errors.TransientErr("write suspicious transaction", err)
	}
	return nil
}

// Suspicious returns the stored rows of a card.
func (s *Service) Suspicious(ctx context.Context, card string) ([]models.SuspiciousTransaction, error) {
	if err := validateCard(card); err != nil {
		return nil, errors.InvalidParamsErr(err)
	}
	rows, err := s.store.ListSuspicious(ctx, card)
	if err != nil {
		return nil, errors.E(errors.Internal, "list suspicious transactions", err)
	}
	if rows == nil {
		rows = []models.SuspiciousTransaction{}
	}
	return rows, nil
}

func validateCard(card string) error {
	if card == "" {
		return errors.EmptyParamErr("card_number")
	}
	ve := errors.ValidationErrs()
	if len(card) < 12 || len(card) > 19 {
		ve.Add("card_number", "must have between 12 and 19 digits")
	}
	for _, r := range card {
		if r < '0' || r > '9' {
			ve.Add("card_number", "must contain only digits")
			break
		}
	}
	if err := ve.Err(); err != nil {
		return errors.ValidationFailedErr(err)
	}
	return nil
}
