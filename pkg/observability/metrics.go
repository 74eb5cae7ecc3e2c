package observability

import (
	"context"
	"time"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every instrumented driver.
// Create it once per process and register it once; per-request managers reuse it.
type Metrics struct {
	ops       *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	gcDeleted *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "satchel_driver_operations_total",
				Help: "Total number of storage driver operations",
			},
			[]string{"driver", "op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "satchel_driver_operation_duration_seconds",
				Help:    "Duration of storage driver operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"driver", "op"},
		),
		gcDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "satchel_gc_deleted_total",
				Help: "Total number of session records removed by garbage collection",
			},
			[]string{"driver"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.duration, m.gcDeleted)
	}
	return m
}

// Instrument wraps d so every call is recorded under the given kind.
func (m *Metrics) Instrument(d ports.StorageDriver, kind domain.DriverKind) ports.StorageDriver {
	return &instrumented{next: d, kind: kind.String(), metrics: m}
}

func (m *Metrics) observe(kind, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ops.WithLabelValues(kind, op, result).Inc()
	m.duration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}

type instrumented struct {
	next    ports.StorageDriver
	kind    string
	metrics *Metrics
}

func (d *instrumented) Setup(ctx context.Context) error {
	start := time.Now()
	err := d.next.Setup(ctx)
	d.metrics.observe(d.kind, "setup", start, err)
	return err
}

func (d *instrumented) Open(ctx context.Context, savePath, name string) error {
	start := time.Now()
	err := d.next.Open(ctx, savePath, name)
	d.metrics.observe(d.kind, "open", start, err)
	return err
}

func (d *instrumented) Close(ctx context.Context) error {
	start := time.Now()
	err := d.next.Close(ctx)
	d.metrics.observe(d.kind, "close", start, err)
	return err
}

func (d *instrumented) Read(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	data, err := d.next.Read(ctx, id)
	d.metrics.observe(d.kind, "read", start, err)
	return data, err
}

func (d *instrumented) Write(ctx context.Context, id string, data []byte) error {
	start := time.Now()
	err := d.next.Write(ctx, id, data)
	d.metrics.observe(d.kind, "write", start, err)
	return err
}

func (d *instrumented) Destroy(ctx context.Context, id string) error {
	start := time.Now()
	err := d.next.Destroy(ctx, id)
	d.metrics.observe(d.kind, "destroy", start, err)
	return err
}

func (d *instrumented) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	start := time.Now()
	n, err := d.next.GC(ctx, maxLifetime)
	d.metrics.observe(d.kind, "gc", start, err)
	if n > 0 {
		d.metrics.gcDeleted.WithLabelValues(d.kind).Add(float64(n))
	}
	return n, err
}

// Unwrap returns the instrumented driver.
func (d *instrumented) Unwrap() ports.StorageDriver {
	return d.next
}
