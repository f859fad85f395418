package cmd

import (
	"runtime/debug"
	"testing"
)

func TestResolveVersion(t *testing.T) {
	t.Parallel()

	withMain := func(v string) func() (*debug.BuildInfo, bool) {
		return func() (*debug.BuildInfo, bool) {
			return &debug.BuildInfo{Main: debug.Module{Version: v}}, true
		}
	}
	noInfo := func() (*debug.BuildInfo, bool) { return nil, false }

	tests := []struct {
		name   string
		linked string
		info   func() (*debug.BuildInfo, bool)
		expect string
	}{
		{name: "linked version wins", linked: "v1.2.0", info: withMain("v0.9.0"), expect: "v1.2.0"},
		{name: "module version", linked: "unknown", info: withMain("v0.9.0"), expect: "v0.9.0"},
		{name: "devel build", linked: "unknown", info: withMain("(devel)"), expect: "unknown"},
		{name: "no build info", linked: "", info: noInfo, expect: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolveVersion(tt.linked, tt.info); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
