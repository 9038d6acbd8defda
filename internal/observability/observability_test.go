package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureMetrics struct {
	mu    sync.Mutex
	calls []string
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := "error"
	if success {
		status = "success"
	}
	c.calls = append(c.calls, op+":"+status)
}

func TestTrackRecordsSpanAndMetric(t *testing.T) {
	metrics := &captureMetrics{}
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, done := Track(context.Background(), metrics, tracer, "extract")
	done(nil)
	_, done = Track(context.Background(), metrics, tracer, "stage.samples")
	done(errors.New("boom"))

	if got := strings.Join(metrics.calls, ","); got != "extract:success,stage.samples:error" {
		t.Fatalf("unexpected metric calls %s", got)
	}
	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("unexpected error span %+v", entries[1])
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %d", len(lines))
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if decoded.Operation != "extract" || decoded.Status != "success" {
		t.Fatalf("unexpected decoded entry %+v", decoded)
	}
}

func TestTrackWithNilHooks(t *testing.T) {
	_, done := Track(context.Background(), nil, nil, "noop")
	done(errors.New("ignored"))
}

func TestJSONSpanEndsOnce(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "materialize")
	span.End(nil)
	span.End(errors.New("late"))
	if n := len(tracer.Entries()); n != 1 {
		t.Fatalf("expected one entry, got %d", n)
	}
}

func TestPrometheusRecorder(t *testing.T) {
	rec, err := NewPrometheusRecorder(nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "extract", true, 20*time.Millisecond)
	rec.Observe(ctx, "extract", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "elnimport_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var status string
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" {
					status = lp.GetValue()
				}
			}
			counts[status] += m.GetCounter().GetValue()
		}
	}
	if counts["success"] != 1 || counts["error"] != 1 {
		t.Fatalf("unexpected counters %v", counts)
	}
	if _, err := NewPrometheusRecorder(rec.Registry()); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
