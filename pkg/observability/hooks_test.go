package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Evaluation hooks
	e := NoopEvaluationHooks{}
	e.OnEvaluateStart(ctx, "production")
	e.OnEvaluateComplete(ctx, "production", 42, time.Second, nil)
	e.OnResolveStart(ctx, "nokogiri")
	e.OnResolveComplete(ctx, "nokogiri", 2, time.Second, nil)
	e.OnMetadataUnavailable(ctx, "nokogiri", "network error")

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "http")
	c.OnCacheMiss(ctx, "catalog")
	c.OnCacheSet(ctx, "catalog", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "rubygems.org", "/api/v1/gems/rails.json")
	h.OnResponse(ctx, "GET", "rubygems.org", "/api/v1/gems/rails.json", 200, time.Second)
	h.OnError(ctx, "GET", "rubygems.org", "/api/v1/gems/rails.json", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Evaluation().(NoopEvaluationHooks); !ok {
		t.Error("Evaluation() should return NoopEvaluationHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customEval := &testEvaluationHooks{}
	SetEvaluationHooks(customEval)
	if Evaluation() != customEval {
		t.Error("SetEvaluationHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Evaluation().(NoopEvaluationHooks); !ok {
		t.Error("Reset() should restore NoopEvaluationHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEvaluationHooks{}
	SetEvaluationHooks(custom)

	// Setting nil should be ignored
	SetEvaluationHooks(nil)

	if Evaluation() != custom {
		t.Error("SetEvaluationHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testEvaluationHooks struct{ NoopEvaluationHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
