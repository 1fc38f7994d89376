package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()
	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, StageCluster, 10)
	p.OnStageComplete(ctx, StageCluster, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "similarity")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should default to NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should default to NoopCacheHooks")
	}

	custom := &recordingHooks{}
	SetPipelineHooks(custom)
	SetCacheHooks(custom)
	if Pipeline() != custom || Cache() != custom {
		t.Error("custom hooks not registered")
	}

	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("nil should not replace registered hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := NewPrometheusHooks(reg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	h.OnStageComplete(ctx, StageLayout, 20*time.Millisecond, nil)
	h.OnStageComplete(ctx, StageLayout, 30*time.Millisecond, errors.New("boom"))
	h.OnCacheHit(ctx, "layout")
	h.OnCacheMiss(ctx, "layout")
	h.OnCacheMiss(ctx, "layout")
	h.OnCacheSet(ctx, "similarity", 512)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				got[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				got[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	want := map[string]float64{
		"landscape_stage_duration_seconds":    2,
		"landscape_stage_errors_total":        1,
		"landscape_cache_requests_total":      3,
		"landscape_cache_written_bytes_total": 512,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}

	if _, err := NewPrometheusHooks(reg); err == nil {
		t.Error("registering twice on one registry should fail")
	}
}

type recordingHooks struct {
	NoopPipelineHooks
	NoopCacheHooks
}

type stageLog struct {
	started, completed []string
}

func (s *stageLog) OnStageStart(_ context.Context, stage string, _ int) {
	s.started = append(s.started, stage)
}

func (s *stageLog) OnStageComplete(_ context.Context, stage string, _ time.Duration, _ error) {
	s.completed = append(s.completed, stage)
}

func TestMultiPipelineHooks(t *testing.T) {
	a, b := &stageLog{}, &stageLog{}
	m := MultiPipelineHooks{a, b}
	ctx := context.Background()
	m.OnStageStart(ctx, StageSparsify, 5)
	m.OnStageComplete(ctx, StageSparsify, time.Millisecond, nil)

	for i, s := range []*stageLog{a, b} {
		if len(s.started) != 1 || s.started[0] != StageSparsify {
			t.Errorf("hook %d started = %v", i, s.started)
		}
		if len(s.completed) != 1 || s.completed[0] != StageSparsify {
			t.Errorf("hook %d completed = %v", i, s.completed)
		}
	}
}
