package metrics

import (
	"context"
	"time"

	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace      = "swift_s3"
	storeSubsystem = "store"
)

type (
	// StoreMetrics provides metrics for metadata store method calls.
	StoreMetrics struct {
		Get    prometheus.Histogram
		Put    prometheus.Histogram
		Delete prometheus.Histogram

		OverallErrors *prometheus.CounterVec
	}

	instrumentedStore struct {
		store   layer.MetadataStore
		metrics *StoreMetrics
	}
)

// NewStoreMetrics is a constructor for StoreMetrics.
func NewStoreMetrics() *StoreMetrics {
	m := &StoreMetrics{
		Get: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "get",
			Help:      "Metadata get request handling time",
		}),
		Put: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "put",
			Help:      "Metadata put request handling time",
		}),
		Delete: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "delete",
			Help:      "Metadata delete request handling time",
		}),
		OverallErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "errors_total",
			Help:      "Total number of metadata store errors",
		}, []string{"method"}),
	}

	prometheus.MustRegister(m.Get, m.Put, m.Delete, m.OverallErrors)

	return m
}

// NewInstrumentedStore wraps store with per-method call duration and error
// counting metrics.
func NewInstrumentedStore(store layer.MetadataStore, metrics *StoreMetrics) layer.MetadataStore {
	return &instrumentedStore{store: store, metrics: metrics}
}

func (s *instrumentedStore) Get(ctx context.Context, res layer.Resource, item string) ([]byte, error) {
	start := time.Now()
	data, err := s.store.Get(ctx, res, item)
	s.metrics.Get.Observe(time.Since(start).Seconds())
	if err != nil && err != layer.ErrNotFound {
		s.metrics.OverallErrors.WithLabelValues("get").Inc()
	}
	return data, err
}

func (s *instrumentedStore) Put(ctx context.Context, res layer.Resource, item string, value []byte) error {
	start := time.Now()
	err := s.store.Put(ctx, res, item, value)
	s.metrics.Put.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.OverallErrors.WithLabelValues("put").Inc()
	}
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, res layer.Resource, item string) error {
	start := time.Now()
	err := s.store.Delete(ctx, res, item)
	s.metrics.Delete.Observe(time.Since(start).Seconds())
	if err != nil && err != layer.ErrNotFound {
		s.metrics.OverallErrors.WithLabelValues("delete").Inc()
	}
	return err
}
