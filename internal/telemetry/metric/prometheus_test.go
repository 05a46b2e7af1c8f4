package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/nskv/pkg/nskv"
	"github.com/yndnr/nskv/pkg/nskv/memconn"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.registry == nil {
		t.Fatal("registry field is nil")
	}

	body := scrape(t, r)
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "nskv_server_connections 0") {
		t.Error("expected nskv_server_connections 0")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.ObserveScanRound(5, false)
	if got := testutil.ToFloat64(b.ClientScanItems); got != 0 {
		t.Errorf("second registry saw %v scan items", got)
	}
}

func TestObserverMetrics(t *testing.T) {
	r := NewRegistry()

	r.ObserveCommand("GET", time.Millisecond, nil)
	r.ObserveCommand("GET", time.Millisecond, nil)
	r.ObserveCommand("HGET", time.Millisecond, errors.New("boom"))
	r.ObserveBatch(nskv.Pipeline, 3, time.Millisecond, nil)
	r.ObserveBatch(nskv.Transaction, 2, time.Millisecond, errors.New("abort"))
	r.ObserveScanRound(4, false)
	r.ObserveScanRound(6, false)
	r.ObserveScanRound(0, true)
	r.ObserveFallback(true)

	body := scrape(t, r)
	for _, want := range []string{
		`nskv_client_commands_total{method="GET",outcome="ok"} 2`,
		`nskv_client_commands_total{method="HGET",outcome="error"} 1`,
		`nskv_client_command_duration_seconds_count{method="GET"} 2`,
		`nskv_client_batches_total{mode="pipeline",outcome="ok"} 1`,
		`nskv_client_batches_total{mode="transaction",outcome="error"} 1`,
		`nskv_client_batch_size_sum{mode="pipeline"} 3`,
		`nskv_client_scan_rounds_total 2`,
		`nskv_client_scan_items_total 10`,
		`nskv_client_scan_anomalies_total 1`,
		`nskv_client_document_fallbacks_total{rerun="true"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestObserverWiredToClient(t *testing.T) {
	r := NewRegistry()
	c := nskv.New(memconn.New(), "app:", nskv.WithObserver(r))
	ctx := context.Background()

	if _, err := c.Do(ctx, nskv.Direct, "SET", "a", "1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Exec(ctx, []nskv.Command{
		nskv.Cmd("SET", "b", "2"),
		nskv.Cmd("SET", "c", "3"),
	}, nskv.Pipeline); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Scan(ctx, "*", nskv.ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(r.ClientCommands.WithLabelValues("SET", "ok")); got != 1 {
		t.Errorf("SET commands = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ClientBatches.WithLabelValues("pipeline", "ok")); got != 1 {
		t.Errorf("pipeline batches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ClientScanItems); got != 3 {
		t.Errorf("scan items = %v, want 3", got)
	}
}

func TestServerMetrics(t *testing.T) {
	r := NewRegistry()

	r.ServerConnOpened()
	r.ServerConnOpened()
	r.ServerConnClosed()
	r.ServerCommand("SET", nil)
	r.ServerCommand("GET", errors.New("WRONGTYPE"))
	r.ServerReject("rate_limited")

	body := scrape(t, r)
	for _, want := range []string{
		`nskv_server_connections 1`,
		`nskv_server_commands_total{command="SET",outcome="ok"} 1`,
		`nskv_server_commands_total{command="GET",outcome="error"} 1`,
		`nskv_server_rejected_total{reason="rate_limited"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestKeyspaceCollector(t *testing.T) {
	r := NewRegistry()
	n := 7
	c := NewKeyspaceCollector(func() int { return n })
	if err := r.Register(c); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(c); err != nil {
		t.Errorf("second Register() error = %v", err)
	}

	if !strings.Contains(scrape(t, r), "nskv_server_keys 7") {
		t.Error("expected nskv_server_keys 7")
	}
	n = 9
	if !strings.Contains(scrape(t, r), "nskv_server_keys 9") {
		t.Error("collector should read the size at scrape time")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.ObserveCommand("GET", time.Microsecond, nil)
				r.ServerConnOpened()
				r.ServerConnClosed()
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(r.ClientCommands.WithLabelValues("GET", "ok")); got != 1000 {
		t.Errorf("GET commands = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(r.ServerConnections); got != 0 {
		t.Errorf("connections = %v, want 0", got)
	}
}
