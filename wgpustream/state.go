package wgpustream

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

// usageMap translates synchronization state bits to HAL texture usages, in
// priority order: a state that includes a write bit maps to that write's
// usage regardless of any read bits it carries.
var usageMap = []struct {
	state framegraph.ResourceState
	usage gputypes.TextureUsage
}{
	{framegraph.StateRenderTarget, gputypes.TextureUsageRenderAttachment},
	{framegraph.StateDepthWrite, gputypes.TextureUsageRenderAttachment},
	{framegraph.StateUnorderedAccess, gputypes.TextureUsageStorageBinding},
	{framegraph.StateCopyDest, gputypes.TextureUsageCopyDst},
	{framegraph.StateCopySource, gputypes.TextureUsageCopySrc},
	{framegraph.StateDepthRead, gputypes.TextureUsageRenderAttachment},
	{framegraph.StatePixelShaderResource, gputypes.TextureUsageTextureBinding},
	{framegraph.StateNonPixelShaderResource, gputypes.TextureUsageTextureBinding},
}

// textureUsage maps a synchronization state to the HAL texture usage that
// barriers transition to. States with no texture meaning (StateCommon,
// buffer-only bits) map to TextureBinding, the HAL's neutral readable
// usage.
func textureUsage(s framegraph.ResourceState) gputypes.TextureUsage {
	for _, entry := range usageMap {
		if s&entry.state != 0 {
			return entry.usage
		}
	}
	return gputypes.TextureUsageTextureBinding
}
