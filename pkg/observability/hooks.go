// Package observability lets callers instrument pipeline runs without the
// core packages depending on a metrics backend.
//
// Hooks are registered once at startup and called by the pipeline runner:
//
//	hooks, _ := observability.NewPrometheusHooks(registry)
//	observability.SetPipelineHooks(hooks)
//	observability.SetCacheHooks(hooks)
//
// The defaults are no-ops.
package observability

import (
	"context"
	"sync"
	"time"
)

// Pipeline stage names passed to [PipelineHooks].
const (
	StageSimilarity = "similarity"
	StageSparsify   = "sparsify"
	StageCluster    = "cluster"
	StageNaming     = "naming"
	StageLayout     = "layout"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// PipelineHooks receives stage events from the pipeline runner.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage string, nodes int)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)
}

// CacheHooks receives cache events. kind is "similarity" or "layout".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string, int)                    {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}

// =============================================================================
// Fan-out
// =============================================================================

// MultiPipelineHooks forwards every event to each hook in order.
type MultiPipelineHooks []PipelineHooks

func (m MultiPipelineHooks) OnStageStart(ctx context.Context, stage string, nodes int) {
	for _, h := range m {
		h.OnStageStart(ctx, stage, nodes)
	}
}

func (m MultiPipelineHooks) OnStageComplete(ctx context.Context, stage string, d time.Duration, err error) {
	for _, h := range m {
		h.OnStageComplete(ctx, stage, d, err)
	}
}
