package version

import (
	"runtime"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get("crypto-research-service")

	if info.Service != "crypto-research-service" {
		t.Errorf("expected service crypto-research-service, got %s", info.Service)
	}
	if info.Version == "" {
		t.Error("expected a non-empty version")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected go version %s, got %s", runtime.Version(), info.GoVersion)
	}
}

func TestGetLdflagsOverride(t *testing.T) {
	origSHA, origTime := GitSHA, BuildTime
	defer func() { GitSHA, BuildTime = origSHA, origTime }()

	GitSHA = "abc1234"
	BuildTime = "2026-08-01T00:00:00Z"

	info := Get("svc")
	if info.GitSHA != "abc1234" {
		t.Errorf("expected ldflags git sha to win, got %s", info.GitSHA)
	}
	if info.BuildTime != "2026-08-01T00:00:00Z" {
		t.Errorf("expected ldflags build time to win, got %s", info.BuildTime)
	}
}
