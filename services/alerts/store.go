package alerts

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	config "card-pipeline/config"
	dynamodb "card-pipeline/repositories/dynamodb"
	redis "card-pipeline/repositories/redis"
)

// Probe checks that a store backend answers.
type Probe func(ctx context.Context) error

// OpenStore connects the backend named by alerts.store.
func OpenStore(ctx context.Context, appKonf config.Config) (Store, Probe, error) {
	switch appKonf.Alerts.Store {
	case "dynamodb":
		store, err := dynamodb.Connect(ctx, appKonf.DynamoDB.Table, appKonf.DynamoDB.Region, appKonf.DynamoDB.Endpoint)
		if err != nil {
			return nil, nil, err
		}
		probe := func(ctx context.Context) error {
			_, err := store.ListSuspicious(ctx, "0")
			return err
		}
		return store, probe, nil
	case "redis":
		client, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
		if err != nil {
			return nil, nil, err
		}
		probe := func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		return redis.NewAlertStore(client, appKonf.Alerts.KeyPrefix), probe, nil
	}
	return nil, nil, fmt.Errorf("unknown alert store %q", appKonf.Alerts.Store)
}
