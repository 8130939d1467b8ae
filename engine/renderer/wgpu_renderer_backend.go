package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shader/common"
	"github.com/Carmen-Shannon/oxy-shader/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/binder/wgpubinder"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shader/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen/wgsl"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

// ErrNoVertexLayout is returned when a WebGPU render pipeline with vertex attributes was
// created without a mesh to match them against.
var ErrNoVertexLayout = errors.New("render pipeline has attributes but no vertex layout")

var vertexFormats = map[ir.Type]wgpu.VertexFormat{
	ir.TypeFloat:  wgpu.VertexFormatFloat32,
	ir.TypeFloat2: wgpu.VertexFormatFloat32x2,
	ir.TypeFloat3: wgpu.VertexFormatFloat32x3,
	ir.TypeFloat4: wgpu.VertexFormatFloat32x4,
	ir.TypeInt:    wgpu.VertexFormatSint32,
	ir.TypeInt2:   wgpu.VertexFormatSint32x2,
	ir.TypeInt3:   wgpu.VertexFormatSint32x3,
	ir.TypeInt4:   wgpu.VertexFormatSint32x4,
	ir.TypeUint:   wgpu.VertexFormatUint32,
	ir.TypeUint2:  wgpu.VertexFormatUint32x2,
	ir.TypeUint3:  wgpu.VertexFormatUint32x3,
	ir.TypeUint4:  wgpu.VertexFormatUint32x4,
}

// samplerKey identifies a cached sampler.
type samplerKey struct {
	settings   common.SamplerSettings
	comparison bool
}

// wgpuGeometry holds the GPU buffers of one vertexKey.
type wgpuGeometry struct {
	layout     *layout.VertexLayout
	buffers    []*wgpu.Buffer
	sizes      []uint64
	indices    *wgpu.Buffer
	indexCount uint32
	versions   [2]uint64
}

// wgpuRendererBackend draws through cogentcore/webgpu into a window surface.
type wgpuRendererBackend struct {
	mu     *sync.Mutex
	logger *slog.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Compute frame state for batching all compute dispatches into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder
	computePass         *wgpu.ComputePassEncoder

	samplers   map[samplerKey]*wgpu.Sampler
	textures   map[*wgpu.TextureView]*wgpu.Texture
	storage    map[*wgpu.Buffer]uint64
	geometries map[vertexKey]*wgpuGeometry
}

var _ rendererBackend = &wgpuRendererBackend{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, logger *slog.Logger) (*wgpuRendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		samplers:    map[samplerKey]*wgpu.Sampler{},
		textures:    map[*wgpu.TextureView]*wgpu.Texture{},
		storage:     map[*wgpu.Buffer]uint64{},
		geometries:  map[vertexKey]*wgpuGeometry{},
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	// Every scope gets its own bind group, so raise MaxBindGroups above the default of 4.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	return b, nil
}

func (b *wgpuRendererBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if msaaEnabled {
		// The render pass draws into the MSAA texture and resolves into the swapchain view.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(fmt.Sprintf("renderer: msaa texture: %v", err))
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(fmt.Sprintf("renderer: msaa view: %v", err))
		}
	}

	// Depth texture sample count must match the color attachment.
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: depth texture: %v", err))
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(fmt.Sprintf("renderer: depth view: %v", err))
	}

	// With MSAA, View is the MSAA texture and ResolveTarget is set per frame to the swapchain
	// view. Without it, View is set per frame and ResolveTarget stays nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.msaaTextureView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: storeOp,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

// Compile generates WGSL for the pipeline's program, creates its binder and the pipeline
// layout from the binder's bind group layouts, then the render or compute pipeline.
func (b *wgpuRendererBackend) Compile(p pipeline.Pipeline, ctx resource.Context) (binder.ResourceBinder, error) {
	src, err := wgsl.Generate(p.Program(), p.Layouts())
	if err != nil {
		return nil, err
	}
	bd, err := wgpubinder.New(binderDevice{b: b}, ctx, p.Layouts(), wgpubinder.WithLabel(p.PipelineKey()), wgpubinder.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bd.BindGroupLayouts(),
	})
	if err != nil {
		bd.Release()
		return nil, err
	}
	defer pipelineLayout.Release()

	if p.Type() == pipeline.PipelineTypeCompute {
		err = b.createComputePipeline(p, src.Compute, pipelineLayout)
	} else {
		err = b.createRenderPipeline(p, src.Vertex, src.Fragment, pipelineLayout)
	}
	if err != nil {
		bd.Release()
		return nil, err
	}
	return bd, nil
}

func (b *wgpuRendererBackend) shaderModule(label, code string) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
}

func (b *wgpuRendererBackend) createRenderPipeline(p pipeline.Pipeline, vertex, fragment string, pipelineLayout *wgpu.PipelineLayout) error {
	buffers, err := vertexBufferLayouts(p)
	if err != nil {
		return err
	}
	vs, err := b.shaderModule(p.PipelineKey()+" vertex", vertex)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.shaderModule(p.PipelineKey()+" fragment", fragment)
	if err != nil {
		return err
	}
	defer fs.Release()

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: wgsl.VertexEntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: wgsl.FragmentEntryPoint,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}
	p.SetPipeline(created)
	return nil
}

func (b *wgpuRendererBackend) createComputePipeline(p pipeline.Pipeline, compute string, pipelineLayout *wgpu.PipelineLayout) error {
	cs, err := b.shaderModule(p.PipelineKey()+" compute", compute)
	if err != nil {
		return err
	}
	defer cs.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     cs,
			EntryPoint: wgsl.ComputeEntryPoint,
		},
	})
	if err != nil {
		return err
	}
	p.SetPipeline(created)
	return nil
}

// vertexBufferLayouts converts the pipeline's vertex layout into WebGPU buffer layouts. A
// matrix attribute takes one location per column.
func vertexBufferLayouts(p pipeline.Pipeline) ([]wgpu.VertexBufferLayout, error) {
	vl := p.VertexLayout()
	if vl == nil {
		if len(p.Program().Attributes) > 0 {
			return nil, fmt.Errorf("%s: %w", p.PipelineKey(), ErrNoVertexLayout)
		}
		return nil, nil
	}
	out := make([]wgpu.VertexBufferLayout, len(vl.Bindings))
	for i, vb := range vl.Bindings {
		step := wgpu.VertexStepModeVertex
		if vb.Rate == ir.PerInstance {
			step = wgpu.VertexStepModeInstance
		}
		var attrs []wgpu.VertexAttribute
		for _, a := range vb.Attributes {
			column := a.Type.Column()
			f, ok := vertexFormats[column]
			if !ok {
				return nil, fmt.Errorf("%s: attribute %s: %w", p.PipelineKey(), a.Name, wgpubinder.ErrUnmappedType)
			}
			for c := range a.Type.Cols() {
				attrs = append(attrs, wgpu.VertexAttribute{
					Format:         f,
					Offset:         uint64(a.Offset + c*column.Rows()*4),
					ShaderLocation: uint32(a.Location + c),
				})
			}
		}
		out[i] = wgpu.VertexBufferLayout{
			ArrayStride: uint64(vb.Stride),
			StepMode:    step,
			Attributes:  attrs,
		}
	}
	return out, nil
}

func (b *wgpuRendererBackend) ReleasePipeline(p pipeline.Pipeline) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k, g := range b.geometries {
		if k.pipeline == p {
			g.release()
			delete(b.geometries, k)
		}
	}
	switch created := p.Pipeline().(type) {
	case *wgpu.RenderPipeline:
		created.Release()
	case *wgpu.ComputePipeline:
		created.Release()
	}
	p.SetPipeline(nil)
}

func (b *wgpuRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A surface image still held by the previous frame cannot be acquired again.
	if b.frameSurface != nil {
		return errors.New("renderer: previous frame surface not yet presented")
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

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(b.renderPassDescriptor)
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.logger.Error("frame encoder finish failed", "error", err)
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (b *wgpuRendererBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackend) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackend) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}
	b.endComputePass()

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	b.computeFrameEncoder.Release()
	b.computeFrameEncoder = nil
	if err != nil {
		b.logger.Error("compute encoder finish failed", "error", err)
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

// Begin sets the pipeline on the frame pass, or opens a compute pass for a compute pipeline,
// so that the binder's SetBindGroup calls land on the right encoder.
func (b *wgpuRendererBackend) Begin(p pipeline.Pipeline) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch created := p.Pipeline().(type) {
	case *wgpu.RenderPipeline:
		if b.framePass == nil {
			panic("renderer: draw outside BeginFrame/EndFrame")
		}
		b.framePass.SetPipeline(created)
	case *wgpu.ComputePipeline:
		if b.computeFrameEncoder == nil {
			panic("renderer: dispatch outside BeginComputeFrame/EndComputeFrame")
		}
		b.computePass = b.computeFrameEncoder.BeginComputePass(nil)
		b.computePass.SetPipeline(created)
	}
}

func (b *wgpuRendererBackend) Cancel(pipeline.Pipeline) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endComputePass()
}

func (b *wgpuRendererBackend) endComputePass() {
	if b.computePass == nil {
		return
	}
	b.computePass.End()
	b.computePass.Release()
	b.computePass = nil
}

func (b *wgpuRendererBackend) Draw(p pipeline.Pipeline, geometry, instances mesh.Mesh) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, err := b.geometry(p, geometry, instances)
	if err != nil {
		return err
	}
	for i, buf := range g.buffers {
		b.framePass.SetVertexBuffer(uint32(i), buf, 0, wgpu.WholeSize)
	}
	n := uint32(instanceCount(instances))
	if g.indices != nil {
		b.framePass.SetIndexBuffer(g.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		b.framePass.DrawIndexed(g.indexCount, n, 0, 0, 0)
		return nil
	}
	b.framePass.Draw(uint32(geometry.Count()), n, 0, 0)
	return nil
}

// geometry returns the buffers of a draw, creating them on first use and rewriting streams
// whose mesh changed since.
func (b *wgpuRendererBackend) geometry(p pipeline.Pipeline, geometry, instances mesh.Mesh) (*wgpuGeometry, error) {
	k := vertexKey{pipeline: p, geometry: geometry, instances: instances}
	if g, ok := b.geometries[k]; ok {
		v := versions(geometry, instances)
		if v != g.versions {
			for i, vb := range g.layout.Bindings {
				src := source(vb, geometry, instances)
				if (src == geometry && v[0] != g.versions[0]) || (src == instances && v[1] != g.versions[1]) {
					if err := b.rewrite(g, i, src.Stream(vb.Integer)); err != nil {
						return nil, err
					}
				}
			}
			g.versions = v
		}
		return g, nil
	}

	vl, err := vertexLayout(p, geometry, instances)
	if err != nil {
		return nil, err
	}
	g := &wgpuGeometry{layout: vl, versions: versions(geometry, instances)}
	for i, data := range bindingStreams(vl, geometry, instances) {
		buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("%s vertex %d", geometry.Label(), i),
			Contents: padded(data),
			Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			g.release()
			return nil, err
		}
		g.buffers = append(g.buffers, buf)
		g.sizes = append(g.sizes, uint64(len(padded(data))))
	}
	if idx := geometry.Indices(); len(idx) > 0 {
		g.indices, err = b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    geometry.Label() + " indices",
			Contents: common.SliceToBytes(idx),
			Usage:    wgpu.BufferUsageIndex,
		})
		if err != nil {
			g.release()
			return nil, err
		}
		g.indexCount = uint32(len(idx))
	}
	b.geometries[k] = g
	b.logger.Debug("wgpu vertex buffers created", "pipeline", p.PipelineKey(), "mesh", geometry.Label(), "bindings", len(vl.Bindings))
	return g, nil
}

// rewrite replaces the contents of binding i, growing the buffer when data no longer fits.
func (b *wgpuRendererBackend) rewrite(g *wgpuGeometry, i int, data []byte) error {
	data = padded(data)
	if uint64(len(data)) <= g.sizes[i] {
		return b.queue.WriteBuffer(g.buffers[i], 0, data)
	}
	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    fmt.Sprintf("vertex %d", i),
		Contents: data,
		Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	g.buffers[i].Release()
	g.buffers[i] = buf
	g.sizes[i] = uint64(len(data))
	return nil
}

func (g *wgpuGeometry) release() {
	for _, buf := range g.buffers {
		buf.Release()
	}
	g.buffers, g.sizes = nil, nil
	if g.indices != nil {
		g.indices.Release()
		g.indices = nil
	}
}

// padded returns data extended to the 4 byte multiple WebGPU buffer writes require.
func padded(data []byte) []byte {
	n := common.AlignUp(max(len(data), 4), 4)
	if n == len(data) {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

func (b *wgpuRendererBackend) Dispatch(_ pipeline.Pipeline, workgroups [3]uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computePass == nil {
		return
	}
	b.computePass.DispatchWorkgroups(workgroups[0], workgroups[1], workgroups[2])
	b.endComputePass()
}

// UploadTexture creates a texture and a view of it and writes the texel data. The view is
// the resource handle.
func (b *wgpuRendererBackend) UploadTexture(d *resource.Data, usage resource.Usage) (resource.Handle, error) {
	format, ok := wgpubinder.TextureFormat(d.Format)
	if !ok {
		return nil, fmt.Errorf("renderer: texture format %s: %w", d.Format, wgpubinder.ErrUnmappedType)
	}
	viewDim, ok := wgpubinder.ViewDimension(d.Dim)
	if !ok {
		return nil, fmt.Errorf("renderer: texture dimension %s: %w", d.Dim, wgpubinder.ErrUnmappedType)
	}
	dim := wgpu.TextureDimension2D
	switch d.Dim {
	case ir.Dim1D:
		dim = wgpu.TextureDimension1D
	case ir.Dim3D:
		dim = wgpu.TextureDimension3D
	}
	texUsage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	if usage&resource.UsageStorage != 0 {
		texUsage |= wgpu.TextureUsageStorageBinding
	}
	size := wgpu.Extent3D{
		Width:              uint32(d.Width),
		Height:             uint32(max(d.Height, 1)),
		DepthOrArrayLayers: uint32(max(d.Depth, 1)),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Usage:         texUsage,
		Dimension:     dim,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	if len(d.Pixels) > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			d.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(d.Width * d.Format.BytesPerTexel()),
				RowsPerImage: size.Height,
			},
			&size,
		)
	}

	layers := size.DepthOrArrayLayers
	if dim == wgpu.TextureDimension3D {
		layers = 1
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Format:          format,
		Dimension:       viewDim,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, err
	}
	b.textures[view] = tex
	return view, nil
}

func (b *wgpuRendererBackend) ReleaseTexture(h resource.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := h.(*wgpu.TextureView)
	view.Release()
	if tex, ok := b.textures[view]; ok {
		tex.Release()
		delete(b.textures, view)
	}
}

func (b *wgpuRendererBackend) UploadBuffer(data []byte) (resource.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.storageBuffer(padded(data))
}

func (b *wgpuRendererBackend) storageBuffer(data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Storage Buffer",
		Contents: data,
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	b.storage[buf] = uint64(len(data))
	return buf, nil
}

// UpdateBuffer writes data in place when it fits and replaces the buffer otherwise.
func (b *wgpuRendererBackend) UpdateBuffer(h resource.Handle, data []byte) (resource.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := h.(*wgpu.Buffer)
	data = padded(data)
	if uint64(len(data)) <= b.storage[buf] {
		return buf, b.queue.WriteBuffer(buf, 0, data)
	}
	grown, err := b.storageBuffer(data)
	if err != nil {
		return nil, err
	}
	delete(b.storage, buf)
	buf.Release()
	return grown, nil
}

func (b *wgpuRendererBackend) ReleaseBuffer(h resource.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := h.(*wgpu.Buffer)
	delete(b.storage, buf)
	buf.Release()
}

// binderDevice exposes the backend's device, queue and current pass to its binders.
type binderDevice struct {
	b *wgpuRendererBackend
}

var _ wgpubinder.Device = binderDevice{}

func (d binderDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	return d.b.device.CreateBindGroupLayout(desc)
}

func (d binderDevice) ReleaseBindGroupLayout(l *wgpu.BindGroupLayout) {
	l.Release()
}

func (d binderDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	return d.b.device.CreateBindGroup(desc)
}

func (d binderDevice) ReleaseBindGroup(bg *wgpu.BindGroup) {
	bg.Release()
}

func (d binderDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	return d.b.device.CreateBuffer(desc)
}

func (d binderDevice) ReleaseBuffer(buf *wgpu.Buffer) {
	buf.Release()
}

// WriteBuffer queues a write; failures surface as device errors on submit.
func (d binderDevice) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	if err := d.b.queue.WriteBuffer(buf, offset, data); err != nil {
		d.b.logger.Warn("buffer write failed", "error", err)
	}
}

func (d binderDevice) Sampler(s common.SamplerSettings, comparison bool) (*wgpu.Sampler, error) {
	k := samplerKey{settings: s, comparison: comparison}
	if smp, ok := d.b.samplers[k]; ok {
		return smp, nil
	}
	desc := &wgpu.SamplerDescriptor{
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   s.LodMaxClamp,
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	}
	if comparison {
		desc.Compare = common.Coalesce(s.Compare, wgpu.CompareFunctionLessEqual)
	}
	smp, err := d.b.device.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	d.b.samplers[k] = smp
	return smp, nil
}

// SetBindGroup binds bg on the open compute pass, or on the frame pass otherwise.
func (d binderDevice) SetBindGroup(index uint32, bg *wgpu.BindGroup) {
	if d.b.computePass != nil {
		d.b.computePass.SetBindGroup(index, bg, nil)
		return
	}
	d.b.framePass.SetBindGroup(index, bg, nil)
}

func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k, g := range b.geometries {
		g.release()
		delete(b.geometries, k)
	}
	for k, smp := range b.samplers {
		smp.Release()
		delete(b.samplers, k)
	}
	for buf := range b.storage {
		buf.Release()
		delete(b.storage, buf)
	}
	for view, tex := range b.textures {
		view.Release()
		tex.Release()
		delete(b.textures, view)
	}
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
