package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/logger"
	"taskboard/internal/metrics"
	"taskboard/testing/testnats"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, events.Invalidation) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

type recordingPublisher struct{ got []events.Invalidation }

func (r *recordingPublisher) Publish(_ context.Context, e events.Invalidation) error {
	r.got = append(r.got, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestInvalidation_Key(t *testing.T) {
	ticket := events.Invalidation{Kind: events.KindTicket, ID: 9, ProjectID: 2}
	assert.Equal(t, "project-2", ticket.Key())

	project := events.Invalidation{Kind: events.KindProject, ID: 4}
	assert.Equal(t, "project-4", project.Key())
}

func TestNewPublisher(t *testing.T) {
	p, err := events.NewPublisher(config.EventsConfig{Driver: "none"}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, events.Noop{}, p)

	_, err = events.NewPublisher(config.EventsConfig{Driver: "carrier-pigeon"}, logger.NewNop())
	assert.Error(t, err)
}

func TestNotifier_SwallowsPublishErrors(t *testing.T) {
	pub := &failingPublisher{}
	n := events.NewNotifier(pub, logger.NewNop())

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), events.Invalidation{Kind: events.KindProject, Action: events.ActionDeleted, ID: 1})
	})
	assert.Equal(t, 1, pub.calls)
}

func TestNotifier_RecordsPublishMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := metrics.New(provider.Meter("events-test"))
	require.NoError(t, err)

	events.NewNotifier(&failingPublisher{}, logger.NewNop()).WithMetrics(m.Events()).
		Notify(context.Background(), events.Invalidation{Kind: events.KindProject, Action: events.ActionUpdated, ID: 1})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			names[md.Name] = true
		}
	}
	assert.True(t, names["messaging.messages.published"])
	assert.True(t, names["messaging.message.errors"])
}

// blockingPublisher never answers until released.
type blockingPublisher struct{ release chan struct{} }

func (b *blockingPublisher) Publish(ctx context.Context, _ events.Invalidation) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingPublisher) Close() error { return nil }

func TestNotifier_BoundsSlowPublisher(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{})}
	defer close(pub.release)
	n := events.NewNotifier(pub, logger.NewNop()).WithTimeout(50 * time.Millisecond)

	start := time.Now()
	n.Notify(context.Background(), events.Invalidation{Kind: events.KindTicket, Action: events.ActionUpdated, ID: 1, ProjectID: 1})
	assert.Less(t, time.Since(start), time.Second)
}

func TestNotifier_IgnoresRequestCancellation(t *testing.T) {
	pub := &recordingPublisher{}
	n := events.NewNotifier(pub, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Notify(ctx, events.Invalidation{Kind: events.KindProject, Action: events.ActionCreated, ID: 4})

	assert.Len(t, pub.got, 1)
}

func TestNotifier_StampsTime(t *testing.T) {
	pub := &recordingPublisher{}
	n := events.NewNotifier(pub, logger.NewNop())

	n.Notify(context.Background(), events.Invalidation{Kind: events.KindTicket, Action: events.ActionCreated, ID: 3, ProjectID: 1})

	require.Len(t, pub.got, 1)
	assert.False(t, pub.got[0].OccurredAt.IsZero())
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e events.Invalidation
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Kind != events.KindTicket || e.PreviousProjectID != 1 {
			return errors.New("unexpected payload")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(errors.New("leader not available"))

	pub := events.NewKafkaPublisherWithProducer(producer, "taskboard.invalidations", logger.NewNop())
	defer pub.Close()

	ctx := context.Background()
	err := pub.Publish(ctx, events.Invalidation{Kind: events.KindTicket, Action: events.ActionUpdated, ID: 5, ProjectID: 2, PreviousProjectID: 1})
	require.NoError(t, err)

	err = pub.Publish(ctx, events.Invalidation{Kind: events.KindProject, Action: events.ActionDeleted, ID: 2})
	assert.Error(t, err)
}

func TestNATS_PublishSubscribe(t *testing.T) {
	natsContainer := testnats.SetupSharedNATS(t)
	defer natsContainer.Cleanup(t)

	subject := "test.invalidations"
	log := logger.NewNop()

	sub, err := events.NewSubscriber(natsContainer.URL, subject, log)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan events.Invalidation, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Start(ctx, func(e events.Invalidation) { received <- e }) }()
	time.Sleep(100 * time.Millisecond)

	raw := natsContainer.Connect(t)
	require.NoError(t, raw.Publish(subject, []byte("not json")))

	pub, err := events.NewNATSPublisher(natsContainer.URL, subject, log)
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, pub.HealthCheck())

	sent := events.Invalidation{Kind: events.KindTicket, Action: events.ActionCreated, ID: 11, ProjectID: 3, OccurredAt: time.Now().UTC()}
	require.NoError(t, pub.Publish(context.Background(), sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, sent.ProjectID, got.ProjectID)
		assert.Equal(t, events.ActionCreated, got.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("invalidation was not delivered")
	}
}
