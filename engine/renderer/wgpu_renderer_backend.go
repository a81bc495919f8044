package renderer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-stereo/engine/camera"
	"github.com/Carmen-Shannon/oxy-stereo/engine/model"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/bind_group_provider"
	gpumaterial "github.com/Carmen-Shannon/oxy-stereo/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-stereo/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-stereo/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices declared by the mesh shader.
const (
	viewGroup = 0
	meshGroup = 1
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat  *wgpu.TextureFormat
	srgbSurface    bool
	presentMode    wgpu.PresentMode
	maxTextureSize int
	width, height  int

	vertexShader, fragmentShader shader.Shader
	layoutDescriptors            map[int]wgpu.BindGroupLayoutDescriptor
	bindGroupLayouts             []*wgpu.BindGroupLayout
	pipelines                    map[string]pipeline.Pipeline

	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	// Shared resources bound when a material has no map of its own
	colorSampler      *wgpu.Sampler
	whiteTexture      *wgpu.Texture
	whiteTextureView  *wgpu.TextureView
	zeroTexture       *wgpu.Texture
	zeroTextureView   *wgpu.TextureView
	viewProviders     []bind_group_provider.BindGroupProvider
	meshMaterials     map[model.Mesh]gpumaterial.Material
	meshesSeenInFrame map[model.Mesh]struct{}

	// Frame state, set between BeginFrame and EndFrame or AbortFrame
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePasses  int

	released bool
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	w := &wgpuRendererBackendImpl{
		mu:                &sync.Mutex{},
		instance:          wgpu.CreateInstance(nil),
		presentMode:       wgpu.PresentModeFifo,
		pipelines:         make(map[string]pipeline.Pipeline),
		meshMaterials:     make(map[model.Mesh]gpumaterial.Material),
		meshesSeenInFrame: make(map[model.Mesh]struct{}),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)
	if w.surface == nil {
		w.Release()
		return nil, errors.New("create surface")
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	// The device gets everything the adapter supports so large eye textures fit.
	supported := a.GetLimits()
	w.maxTextureSize = int(supported.Limits.MaxTextureDimension2D)
	if w.maxTextureSize <= 0 {
		w.maxTextureSize = DefaultMaxTextureSize
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: supported.Limits,
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	if err := w.initSharedResources(); err != nil {
		w.Release()
		return nil, err
	}
	return w, nil
}

func (b *wgpuRendererBackendImpl) MaxTextureSize() int {
	return b.maxTextureSize
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.width, b.height = width, height
	if err := b.configureLocked(); err != nil {
		slog.Error("configure surface failed", "width", width, "height", height, "error", err)
	}
}

// configureLocked configures the surface, recreates the depth texture and
// registers the mesh pipelines on first use.
func (b *wgpuRendererBackendImpl) configureLocked() error {
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no formats")
	}
	format := capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb {
			format = f
			break
		}
	}
	b.surfaceFormat = &format
	b.srgbSurface = format == wgpu.TextureFormatBGRA8UnormSrgb || format == wgpu.TextureFormatRGBA8UnormSrgb

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(b.width),
		Height:      uint32(b.height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if err := b.createDepthTextureLocked(); err != nil {
		return err
	}
	if len(b.pipelines) == 0 {
		return b.registerPipelinesLocked()
	}
	return nil
}

func (b *wgpuRendererBackendImpl) createDepthTextureLocked() error {
	b.releaseDepthTextureLocked()

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(b.width),
			Height:             uint32(b.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	view, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return err
	}
	b.depthTexture = depthTexture
	b.depthTextureView = view
	return nil
}

func (b *wgpuRendererBackendImpl) releaseDepthTextureLocked() {
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

// registerPipelinesLocked parses the mesh shader, creates the shared bind group
// layouts and one render pipeline per mesh pipeline key.
func (b *wgpuRendererBackendImpl) registerPipelinesLocked() error {
	vs, err := shader.NewShader("mesh-vs", shader.ShaderTypeVertex, shader.MeshSource)
	if err != nil {
		return err
	}
	fs, err := shader.NewShader("mesh-fs", shader.ShaderTypeFragment, shader.MeshSource)
	if err != nil {
		return err
	}
	b.vertexShader, b.fragmentShader = vs, fs

	b.layoutDescriptors = shader.MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range b.layoutDescriptors {
		if g > maxGroup {
			maxGroup = g
		}
	}
	b.bindGroupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range b.layoutDescriptors {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		b.bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Mesh",
		BindGroupLayouts: b.bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	vsModule, err := b.device.CreateShaderModule(vs.Module())
	if err != nil {
		return err
	}
	defer vsModule.Release()
	fsModule, err := b.device.CreateShaderModule(fs.Module())
	if err != nil {
		return err
	}
	defer fsModule.Release()

	for _, p := range pipeline.NewMeshPipelines(vs, fs) {
		created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  p.PipelineKey() + " Render Pipeline",
			Layout: pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     vsModule,
				EntryPoint: vs.EntryPoint(),
				Buffers:    vs.VertexLayouts(),
			},
			Fragment: &wgpu.FragmentState{
				Module:     fsModule,
				EntryPoint: fs.EntryPoint(),
				Targets: []wgpu.ColorTargetState{
					{
						Format:    *b.surfaceFormat,
						Blend:     p.BlendState(),
						WriteMask: p.WriteMask(),
					},
				},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  p.Topology(),
				FrontFace: p.FrontFace(),
				CullMode:  p.CullMode(),
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
			DepthStencil: &wgpu.DepthStencilState{
				Format:            wgpu.TextureFormatDepth24Plus,
				DepthWriteEnabled: p.DepthWriteEnabled(),
				DepthCompare:      p.DepthCompare(),
				StencilFront: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
				StencilBack: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("create pipeline %s: %w", p.PipelineKey(), err)
		}
		p.SetRenderPipeline(created)
		b.pipelines[p.PipelineKey()] = p
	}
	slog.Debug("mesh pipelines registered", "count", len(b.pipelines), "format", b.surfaceFormat.String())
	return nil
}

// initSharedResources creates the color sampler and the 1x1 fallback textures.
func (b *wgpuRendererBackendImpl) initSharedResources() error {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Color Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}
	b.colorSampler = samp

	b.whiteTexture, b.whiteTextureView, err = b.createTexture("White", wgpu.TextureFormatRGBA8UnormSrgb, 1, 1, 4, []byte{255, 255, 255, 255})
	if err != nil {
		return err
	}
	b.zeroTexture, b.zeroTextureView, err = b.createTexture("Zero", wgpu.TextureFormatR8Unorm, 1, 1, 1, []byte{0})
	return err
}

// createTexture creates a sampled 2D texture and uploads pix into it.
func (b *wgpuRendererBackendImpl) createTexture(label string, format wgpu.TextureFormat, width, height, bytesPerRow int, pix []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}

	err = b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bytesPerRow),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

// initBindGroupLocked creates the buffers a layout needs and the bind group.
// Texture and sampler bindings must already be set on the provider.
func (b *wgpuRendererBackendImpl) initBindGroupLocked(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view", provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
		case isSampler:
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("%s: sampler binding %d has no sampler", provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: samp}
		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: provider.Label() + " Buffer",
					Size:  entry.Buffer.MinBindingSize,
					Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
				})
				if err != nil {
					return err
				}
				provider.SetBuffer(binding, buf)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  provider.BindGroupLayout(),
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) writeBuffersLocked(writes []bind_group_provider.BufferWrite) error {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("%s: binding %d has no buffer", w.Provider.Label(), w.Binding)
		}
		if err := b.queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return err
		}
	}
	return nil
}

// viewProviderLocked returns the view uniform provider for a view slot of the
// frame, creating it on first use.
func (b *wgpuRendererBackendImpl) viewProviderLocked(slot int) (bind_group_provider.BindGroupProvider, error) {
	for len(b.viewProviders) <= slot {
		p := bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("View %d", len(b.viewProviders)),
			bind_group_provider.WithBindGroupLayout(b.bindGroupLayouts[viewGroup]),
		)
		if err := b.initBindGroupLocked(p, b.layoutDescriptors[viewGroup]); err != nil {
			p.Release()
			return nil, err
		}
		b.viewProviders = append(b.viewProviders, p)
	}
	return b.viewProviders[slot], nil
}

// meshMaterialLocked returns the GPU material of a mesh, uploading its geometry
// and maps the first time the mesh is drawn. It returns nil for meshes with
// nothing to draw.
func (b *wgpuRendererBackendImpl) meshMaterialLocked(m model.Mesh) (gpumaterial.Material, error) {
	b.meshesSeenInFrame[m] = struct{}{}
	if mat, ok := b.meshMaterials[m]; ok {
		return mat, nil
	}

	src := m.Material()
	g := m.Geometry()
	if src == nil || g == nil || g.VertexCount() == 0 || len(g.Indices) == 0 {
		return nil, nil
	}

	lines := m.Primitive() == model.PrimitiveLines
	provider := bind_group_provider.NewBindGroupProvider(m.Name(),
		bind_group_provider.WithBindGroupLayout(b.bindGroupLayouts[meshGroup]),
	)
	mat := gpumaterial.NewMaterial(
		gpumaterial.WithSource(src),
		gpumaterial.WithLines(lines),
		gpumaterial.WithPipelineKey(pipeline.KeyFor(lines, src.DepthTest())),
		gpumaterial.WithBindGroupProvider(provider),
	)

	if err := b.initMeshResourcesLocked(m, mat); err != nil {
		provider.Release()
		return nil, fmt.Errorf("mesh %s: %w", m.Name(), err)
	}
	b.meshMaterials[m] = mat
	slog.Debug("mesh uploaded", "mesh", m.Name(), "pipeline", mat.PipelineKey(), "indices", provider.IndexCount())
	return mat, nil
}

func (b *wgpuRendererBackendImpl) initMeshResourcesLocked(m model.Mesh, mat gpumaterial.Material) error {
	provider := mat.BindGroupProvider()
	g := m.Geometry()

	vertexData := model.MarshalVertices(g)
	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            provider.Label() + " Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return err
	}
	indexData := model.MarshalIndices(g)
	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            provider.Label() + " Index Buffer",
		Size:             uint64(len(indexData)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		vb.Release()
		return err
	}
	provider.SetMesh(vb, ib, len(g.Indices))
	if err := b.queue.WriteBuffer(vb, 0, vertexData); err != nil {
		return err
	}
	if err := b.queue.WriteBuffer(ib, 0, indexData); err != nil {
		return err
	}

	if _, binding, ok := b.fragmentShader.Binding(shader.AnnotationArgMaterial, shader.AnnotationArgColorMap); ok {
		provider.SetTexture(binding, nil, b.whiteTextureView)
		if tex := mat.Source().Map(); tex.Width() > 0 && tex.Height() > 0 && !mat.Lines() {
			size := tex.Rect.Size()
			t, tv, err := b.createTexture(provider.Label()+" Color", wgpu.TextureFormatRGBA8UnormSrgb, size.X, size.Y, tex.Stride, tex.Pix)
			if err != nil {
				return err
			}
			provider.SetTexture(binding, t, tv)
		}
	}
	if _, binding, ok := b.fragmentShader.Binding(shader.AnnotationArgMaterial, shader.AnnotationArgColorSampler); ok {
		provider.SetSampler(binding, b.colorSampler)
	}
	if _, binding, ok := b.vertexShader.Binding(shader.AnnotationArgMaterial, shader.AnnotationArgDisplacementMap); ok {
		provider.SetTexture(binding, nil, b.zeroTextureView)
		if d := mat.Source().DisplacementMap(); d.Width() > 0 && d.Height() > 0 {
			size := d.Rect.Size()
			t, tv, err := b.createTexture(provider.Label()+" Displacement", wgpu.TextureFormatR8Unorm, size.X, size.Y, d.Stride, d.Pix)
			if err != nil {
				return err
			}
			provider.SetTexture(binding, t, tv)
		}
	}

	return b.initBindGroupLocked(provider, b.layoutDescriptors[meshGroup])
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
	if b.surfaceFormat != nil && !b.released {
		if err := b.configureLocked(); err != nil {
			slog.Error("configure surface failed", "error", err)
		}
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrRendererReleased
	}
	if b.surfaceFormat == nil || len(b.pipelines) == 0 {
		return errors.New("surface not configured")
	}
	if b.frameSurface != nil {
		return ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameEncoder = encoder
	b.framePasses = 0
	clear(b.meshesSeenInFrame)
	return nil
}

// beginPassLocked starts a render pass on the frame. The first pass clears the
// color target, later passes keep what earlier viewports drew.
func (b *wgpuRendererBackendImpl) beginPassLocked(background [3]float32) *wgpu.RenderPassEncoder {
	loadOp := wgpu.LoadOpClear
	if b.framePasses > 0 {
		loadOp = wgpu.LoadOpLoad
	}
	clearValue := wgpu.Color{R: float64(background[0]), G: float64(background[1]), B: float64(background[2]), A: 1}
	if b.srgbSurface {
		clearValue.R = float64(srgbToLinear(background[0]))
		clearValue.G = float64(srgbToLinear(background[1]))
		clearValue.B = float64(srgbToLinear(background[2]))
	}
	b.framePasses++

	return b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.frameView,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearValue,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
}

// DrawScene records one render pass for the viewport. The frame is cleared to
// the background of the first scene drawn into it.
func (b *wgpuRendererBackendImpl) DrawScene(s scene.Scene, cam camera.Camera, vp Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	bounds := vp.rect().Intersect(image.Rect(0, 0, b.width, b.height))
	if bounds.Empty() {
		return nil
	}

	mask := cam.Layers()
	viewProvider, err := b.viewProviderLocked(b.framePasses)
	if err != nil {
		return err
	}
	view := newViewUniform(cam.ViewProjectionMatrix(), s.LightsFor(mask), !b.srgbSurface)
	writes := []bind_group_provider.BufferWrite{{Provider: viewProvider, Binding: 0, Data: view.Marshal()}}

	type draw struct {
		pipeline pipeline.Pipeline
		provider bind_group_provider.BindGroupProvider
	}
	draws := make([]draw, 0)
	for _, m := range drawList(s, mask) {
		mat, err := b.meshMaterialLocked(m)
		if err != nil {
			slog.Warn("mesh skipped", "mesh", m.Name(), "error", err)
			continue
		}
		if mat == nil {
			continue
		}
		p := b.pipelines[mat.PipelineKey()]
		if p == nil || p.RenderPipeline() == nil {
			continue
		}
		uniform := mat.Uniform(m.ModelMatrix())
		writes = append(writes, bind_group_provider.BufferWrite{Provider: mat.BindGroupProvider(), Binding: 0, Data: uniform.Marshal()})
		draws = append(draws, draw{pipeline: p, provider: mat.BindGroupProvider()})
	}
	if err := b.writeBuffersLocked(writes); err != nil {
		return err
	}

	pass := b.beginPassLocked(s.Background())
	defer pass.Release()
	pass.SetViewport(float32(bounds.Min.X), float32(bounds.Min.Y), float32(bounds.Dx()), float32(bounds.Dy()), 0, 1)
	pass.SetScissorRect(uint32(bounds.Min.X), uint32(bounds.Min.Y), uint32(bounds.Dx()), uint32(bounds.Dy()))
	pass.SetBindGroup(viewGroup, viewProvider.BindGroup(), nil)
	for _, d := range draws {
		pass.SetPipeline(d.pipeline.RenderPipeline())
		pass.SetBindGroup(meshGroup, d.provider.BindGroup(), nil)
		pass.SetVertexBuffer(0, d.provider.VertexBuffer(), 0, wgpu.WholeSize)
		pass.SetIndexBuffer(d.provider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(d.provider.IndexCount()), 1, 0, 0, 0)
	}
	return pass.End()
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	defer b.releaseFrameLocked()

	if b.framePasses == 0 {
		pass := b.beginPassLocked([3]float32{})
		err := pass.End()
		pass.Release()
		if err != nil {
			return err
		}
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()

	b.evictUnseenMeshesLocked()
	return nil
}

func (b *wgpuRendererBackendImpl) AbortFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseFrameLocked()
}

func (b *wgpuRendererBackendImpl) releaseFrameLocked() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	b.framePasses = 0
}

// evictUnseenMeshesLocked frees the GPU resources of meshes no scene drew in
// the last presented frame.
func (b *wgpuRendererBackendImpl) evictUnseenMeshesLocked() {
	for m, mat := range b.meshMaterials {
		if _, ok := b.meshesSeenInFrame[m]; ok {
			continue
		}
		mat.BindGroupProvider().Release()
		delete(b.meshMaterials, m)
	}
}

// Frame returns nil. Presented frames stay on the GPU.
func (b *wgpuRendererBackendImpl) Frame() *image.RGBA {
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.released = true

	b.releaseFrameLocked()
	for m, mat := range b.meshMaterials {
		mat.BindGroupProvider().Release()
		delete(b.meshMaterials, m)
	}
	for _, p := range b.viewProviders {
		p.Release()
	}
	b.viewProviders = nil
	for _, p := range b.pipelines {
		p.Release()
	}
	for _, layout := range b.bindGroupLayouts {
		if layout != nil {
			layout.Release()
		}
	}
	b.releaseDepthTextureLocked()
	for _, tv := range []*wgpu.TextureView{b.whiteTextureView, b.zeroTextureView} {
		if tv != nil {
			tv.Release()
		}
	}
	for _, t := range []*wgpu.Texture{b.whiteTexture, b.zeroTexture} {
		if t != nil {
			t.Release()
		}
	}
	if b.colorSampler != nil {
		b.colorSampler.Release()
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
