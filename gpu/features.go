// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

// Features is a bitmask of optional GPU capabilities, probed
// once at Context.Init and cached for the lifetime of the
// Context.
type Features int

// Recognized features.
const (
	// FeatureTimer enables GPU timestamp queries, used by
	// Context.QueryDrawTime.
	FeatureTimer Features = 1 << iota
	// FeatureDepthStencilResolve enables MSAA resolve of
	// depth/stencil attachments.
	FeatureDepthStencilResolve
	// FeatureInvalidateSubdata allows DONT_CARE store ops to
	// invalidate attachment contents at pass end rather than
	// writing them back.
	FeatureInvalidateSubdata
	// FeatureNPOTMipmap allows mipmap generation/sampling on
	// non-power-of-two textures.
	FeatureNPOTMipmap
	// FeatureComputeShader enables compute pipelines and
	// Context.Dispatch.
	FeatureComputeShader
)

// Has reports whether all bits of want are set in f.
func (f Features) Has(want Features) bool { return f&want == want }
