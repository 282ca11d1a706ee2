package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"taxdesk/pkg/platform/audit/outbox"
	"taxdesk/pkg/platform/audit/outbox/mocks"
)

type RelaySuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	source    *mocks.MockSource
	publisher *mocks.MockPublisher
	published prometheus.Counter
	lag       prometheus.Gauge
	now       time.Time
	relay     *outbox.Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockSource(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.published = prometheus.NewCounter(prometheus.CounterOpts{Name: "published_total"})
	s.lag = prometheus.NewGauge(prometheus.GaugeOpts{Name: "lag_seconds"})
	s.now = time.Date(2026, 2, 10, 8, 0, 10, 0, time.UTC)
	s.relay = outbox.NewRelay(s.source, s.publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		outbox.WithBatchSize(2),
		outbox.WithMetrics(s.published, s.lag),
		outbox.WithClock(func() time.Time { return s.now }),
	)
}

func (s *RelaySuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RelaySuite) TestDrain() {
	ctx := context.Background()
	records := []outbox.Record{
		{ID: 7, EntryID: "e-7", Category: "financial", CreatedAt: s.now.Add(-4 * time.Second)},
		{ID: 8, EntryID: "e-8", Category: "security", CreatedAt: s.now.Add(-2 * time.Second)},
	}

	s.Run("publishes then acknowledges the batch", func() {
		gomock.InOrder(
			s.source.EXPECT().Pending(ctx, 2).Return(records, nil),
			s.publisher.EXPECT().Publish(ctx, records).Return(nil),
			s.source.EXPECT().MarkPublished(ctx, []int64{7, 8}, s.now).Return(nil),
		)

		n, err := s.relay.Drain(ctx)
		s.Require().NoError(err)
		s.Equal(2, n)
		s.Equal(float64(2), testutil.ToFloat64(s.published))
		s.Equal(float64(2), testutil.ToFloat64(s.lag))
	})

	s.Run("publish failure leaves rows unacknowledged", func() {
		s.source.EXPECT().Pending(ctx, 2).Return(records, nil)
		s.publisher.EXPECT().Publish(ctx, records).Return(errors.New("broker down"))

		n, err := s.relay.Drain(ctx)
		s.Error(err)
		s.Zero(n)
	})

	s.Run("empty outbox is a no-op", func() {
		s.source.EXPECT().Pending(ctx, 2).Return(nil, nil)

		n, err := s.relay.Drain(ctx)
		s.NoError(err)
		s.Zero(n)
	})
}
