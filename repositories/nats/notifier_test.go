package nats

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, "objects.created")
	event := models.ObjectCreated{Bucket: "card-data", Key: "raw/state=SP/a.gz", Size: 42, Time: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, n.ObjectCreated(context.Background(), event))
	assert.Equal(t, "objects.created", pub.subject)

	var got models.ObjectCreated
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, event, got)

	pub.err = errors.New("no responders")
	assert.ErrorContains(t, n.ObjectCreated(context.Background(), event), "nats publish objects.created")
}

func TestSubscriberDispatchSkipsMalformed(t *testing.T) {
	s := NewSubscriber(nil, "objects.created", "orchestrator", zap.NewNop())
	var got []models.ObjectCreated
	handler := func(_ context.Context, e models.ObjectCreated) { got = append(got, e) }

	s.dispatch(context.Background(), &nats.Msg{Subject: "objects.created", Data: []byte("{")}, handler)
	s.dispatch(context.Background(), &nats.Msg{Subject: "objects.created", Data: []byte(`{"bucket":"b","key":"raw/x.gz"}`)}, handler)

	require.Len(t, got, 1)
	assert.Equal(t, "raw/x.gz", got[0].Key)
}
