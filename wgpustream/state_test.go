package wgpustream

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

// =============================================================================
// State Mapping
// =============================================================================

func TestTextureUsage(t *testing.T) {
	tests := []struct {
		name  string
		state framegraph.ResourceState
		want  gputypes.TextureUsage
	}{
		{"render target", framegraph.StateRenderTarget, gputypes.TextureUsageRenderAttachment},
		{"depth write", framegraph.StateDepthWrite, gputypes.TextureUsageRenderAttachment},
		{"depth read", framegraph.StateDepthRead, gputypes.TextureUsageRenderAttachment},
		{"unordered access", framegraph.StateUnorderedAccess, gputypes.TextureUsageStorageBinding},
		{"copy source", framegraph.StateCopySource, gputypes.TextureUsageCopySrc},
		{"copy dest", framegraph.StateCopyDest, gputypes.TextureUsageCopyDst},
		{"pixel shader read", framegraph.StatePixelShaderResource, gputypes.TextureUsageTextureBinding},
		{"all shader read", framegraph.StateAllShaderResource, gputypes.TextureUsageTextureBinding},
		{"common falls back to binding", framegraph.StateCommon, gputypes.TextureUsageTextureBinding},
		{"write bit dominates read bits",
			framegraph.StateRenderTarget | framegraph.StateNonPixelShaderResource,
			gputypes.TextureUsageRenderAttachment},
	}
	for _, tt := range tests {
		if got := textureUsage(tt.state); got != tt.want {
			t.Errorf("%s: textureUsage(%v) = %v, want %v", tt.name, tt.state, got, tt.want)
		}
	}
}
