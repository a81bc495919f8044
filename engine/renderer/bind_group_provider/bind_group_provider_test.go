package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProviderIsEmpty(t *testing.T) {
	p := NewBindGroupProvider("eye-left", WithGeneration(3))
	assert.Equal(t, "eye-left", p.Label())
	assert.Equal(t, uint64(3), p.Generation())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.TextureView(1))
	assert.Nil(t, p.Sampler(2))
	assert.Zero(t, p.IndexCount())

	p.SetGeneration(4)
	assert.Equal(t, uint64(4), p.Generation())

	// releasing a provider without GPU resources is a no-op
	p.Release()
	p.Release()
	assert.Nil(t, p.VertexBuffer())
	assert.Nil(t, p.IndexBuffer())
}
