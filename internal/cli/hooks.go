package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railcar/pkg/observability"
)

// debugHooks logs evaluation, cache and HTTP events at debug level.
type debugHooks struct {
	observability.NoopEvaluationHooks
	logger *log.Logger
}

// installDebugHooks routes observability events to logger.
func installDebugHooks(logger *log.Logger) {
	h := &debugHooks{logger: logger}
	observability.SetEvaluationHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *debugHooks) OnEvaluateStart(_ context.Context, env string) {
	h.logger.Debug("evaluating manifest", "env", env)
}

func (h *debugHooks) OnEvaluateComplete(_ context.Context, env string, resources int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("evaluation failed", "env", env, "err", err)
		return
	}
	h.logger.Debug("evaluated manifest", "env", env, "resources", resources, "took", d.Round(time.Millisecond))
}

func (h *debugHooks) OnResolveComplete(_ context.Context, gem string, system int, d time.Duration, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("resolved", "gem", gem, "system", system, "took", d.Round(time.Millisecond))
}

func (h *debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}
