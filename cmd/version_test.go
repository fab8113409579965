package cmd

import (
	"runtime/debug"
	"testing"
)

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name          string
		version       string
		commit        string
		info          *debug.BuildInfo
		expectVersion string
		expectCommit  string
	}{
		{name: "no build info", expectVersion: "dev"},
		{
			name:          "local build",
			info:          &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			expectVersion: "dev",
		},
		{
			name: "installed module",
			info: &debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "4f2a9c1"}},
			},
			expectVersion: "v0.3.1",
			expectCommit:  "4f2a9c1",
		},
		{
			name: "modified checkout",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "4f2a9c1"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			expectVersion: "dev",
			expectCommit:  "4f2a9c1-dirty",
		},
		{
			name:    "linker flags win",
			version: "v1.0.0",
			commit:  "abc1234",
			info: &debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "4f2a9c1"}},
			},
			expectVersion: "v1.0.0",
			expectCommit:  "abc1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c := resolveVersion(tt.version, tt.commit, tt.info)
			if v != tt.expectVersion || c != tt.expectCommit {
				t.Errorf("Expected %q/%q, got %q/%q", tt.expectVersion, tt.expectCommit, v, c)
			}
		})
	}
}
