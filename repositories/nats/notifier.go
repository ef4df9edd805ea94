package nats

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Connect dials the NATS server with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
	)
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier announces objects written to the data bucket.
type Notifier struct {
	conn    publisher
	subject string
}

func NewNotifier(conn publisher, subject string) *Notifier {
	return &Notifier{conn: conn, subject: subject}
}

func (n *Notifier) ObjectCreated(_ context.Context, event models.ObjectCreated) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", n.subject, err)
	}
	return nil
}

// Handler receives decoded notifications.
type Handler func(ctx context.Context, event models.ObjectCreated)

// Subscriber delivers object-created notifications to a handler through a queue group,
// so only one orchestrator instance sees each notification.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	queue   string
	logger  *zap.Logger
}

func NewSubscriber(conn *nats.Conn, subject, queue string, logger *zap.Logger) *Subscriber {
	return &Subscriber{conn: conn, subject: subject, queue: queue, logger: logger}
}

// Run subscribes and blocks until ctx is canceled, then drains the subscription.
func (s *Subscriber) Run(ctx context.Context, handler Handler) error {
	sub, err := s.conn.QueueSubscribe(s.subject, s.queue, func(m *nats.Msg) {
		s.dispatch(ctx, m, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}
	s.logger.Info("subscribed to notifications", zap.String("subject", s.subject), zap.String("queue", s.queue))

	<-ctx.Done()
	s.logger.Info("draining notification subscription")
	_ = sub.Drain()
	return nil
}

func (s *Subscriber) dispatch(ctx context.Context, m *nats.Msg, handler Handler) {
	var event models.ObjectCreated
	if err := json.Unmarshal(m.Data, &event); err != nil {
		s.logger.Error("failed to unmarshal notification", zap.String("subject", m.Subject), zap.Error(err))
		return
	}
	handler(ctx, event)
}
