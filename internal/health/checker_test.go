package health_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ErlanBelekov/departments-api/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestChecker(deps ...health.Dependency) (*health.Checker, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return health.NewChecker(logger, reg, deps...), reg
}

func TestLiveness_AlwaysUp(t *testing.T) {
	c, _ := newTestChecker(health.Postgres(&mockPinger{err: errors.New("db down")}))

	result := c.Liveness(context.Background())
	if result.Status != health.StatusUp {
		t.Fatalf("expected status up, got %s", result.Status)
	}
	if result.Checks != nil {
		t.Fatalf("expected no checks, got %v", result.Checks)
	}
}

func TestReadiness_PostgresUp(t *testing.T) {
	c, reg := newTestChecker(health.Postgres(&mockPinger{}))

	result := c.Readiness(context.Background())
	if result.Status != health.StatusUp {
		t.Fatalf("expected status up, got %s", result.Status)
	}
	if pg := result.Checks["postgres"]; pg.Status != health.StatusUp {
		t.Fatalf("expected postgres up, got %q", pg.Status)
	}

	if got := testGauge(t, reg, "postgres"); got != 1 {
		t.Fatalf("expected gauge 1, got %f", got)
	}
}

func TestReadiness_OneDependencyDown(t *testing.T) {
	c, reg := newTestChecker(
		health.Postgres(&mockPinger{err: errors.New("connection refused")}),
		health.Dependency{Name: "cache", Check: func(context.Context) error { return nil }},
	)

	result := c.Readiness(context.Background())
	if result.Status != health.StatusDown {
		t.Fatalf("expected status down, got %s", result.Status)
	}
	pg := result.Checks["postgres"]
	if pg.Status != health.StatusDown || pg.Error == "" {
		t.Fatalf("expected postgres down with error, got %+v", pg)
	}
	if result.Checks["cache"].Status != health.StatusUp {
		t.Fatalf("healthy dependency reported %+v", result.Checks["cache"])
	}

	if got := testGauge(t, reg, "postgres"); got != 0 {
		t.Fatalf("expected postgres gauge 0, got %f", got)
	}
	if got := testGauge(t, reg, "cache"); got != 1 {
		t.Fatalf("expected cache gauge 1, got %f", got)
	}
}

func TestReadiness_ProbeSeesDeadline(t *testing.T) {
	c, _ := newTestChecker(health.Dependency{Name: "slow", Check: func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	}})

	if result := c.Readiness(context.Background()); result.Status != health.StatusUp {
		t.Fatalf("probe ran without a deadline: %+v", result)
	}
}

func testGauge(t *testing.T, reg *prometheus.Registry, dependency string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "departments_health_check_up" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "dependency" && lp.GetValue() == dependency {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("gauge for %q not found", dependency)
	return 0
}

func TestGaugeRegisteredOnce(t *testing.T) {
	_, reg := newTestChecker()
	n, err := testutil.GatherAndCount(reg, "departments_health_check_up")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no series before the first probe, got %d", n)
	}
}
