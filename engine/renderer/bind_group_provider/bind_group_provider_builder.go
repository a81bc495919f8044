package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroupLayout sets the bind group layout for this provider.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithGeneration sets the source revision the provider is built from.
//
// Parameters:
//   - gen: the revision
//
// Returns:
//   - BindGroupProviderOption: a function that sets the revision
func WithGeneration(gen uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.generation = gen
	}
}
