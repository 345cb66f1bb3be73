package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

/**
 * @brief Records instanced draws into a primary command buffer inside a
 * render pass over an offscreen target. Each frame is submitted and waited
 * on in EndFrame.
 */
type VulkanRenderer struct {
	context       *VulkanContext
	ownsDevice    bool
	renderpass    *VulkanRenderpass
	target        *RenderTarget
	width         uint32
	height        uint32
	resized       bool
	commandBuffer *VulkanCommandBuffer
	inFlight      *VulkanFence
	inputStates   map[string]*VertexInputState
	recording     bool
}

// New returns a renderer drawing into a width by height target. A context
// without a device gets its instance and device created on Initialize.
func New(context *VulkanContext, width, height uint32) *VulkanRenderer {
	if context == nil {
		context = &VulkanContext{}
	}
	return &VulkanRenderer{
		context:     context,
		width:       width,
		height:      height,
		inputStates: make(map[string]*VertexInputState),
	}
}

func (vr *VulkanRenderer) Initialize(appName string) error {
	c := vr.context
	if c.Device == nil {
		if err := InstanceCreate(c, appName); err != nil {
			return err
		}
		if err := DeviceCreate(c); err != nil {
			DeviceDestroy(c)
			return err
		}
		vr.ownsDevice = true
	}
	if c.Device.LogicalDevice == nil {
		return fmt.Errorf("vulkan renderer needs a device: %w", core.ErrBackendNotAvailable)
	}
	if c.Device.DepthFormat == vk.FormatUndefined {
		c.Device.DepthFormat = vk.FormatD32Sfloat
	}
	if c.Locks == nil {
		c.Locks = NewVulkanLockPool()
	}

	renderpass, err := RenderpassCreate(c, targetColorFormat, 0, 0, 0.2, 1, 1, 0)
	if err != nil {
		vr.Shutdown()
		return err
	}
	vr.renderpass = renderpass
	if vr.target, err = RenderTargetCreate(c, renderpass, vr.width, vr.height); err != nil {
		vr.Shutdown()
		return err
	}

	cb, err := NewVulkanCommandBuffer(c, c.GraphicsCommandPool, true)
	if err != nil {
		vr.Shutdown()
		return err
	}
	vr.commandBuffer = cb
	fence, err := NewFence(c, true)
	if err != nil {
		vr.Shutdown()
		return err
	}
	vr.inFlight = fence

	core.LogInfo("vulkan renderer initialized for '%s' (%dx%d)", appName, vr.width, vr.height)
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	c := vr.context
	if vr.inFlight != nil {
		vr.inFlight.Wait(c, math.MaxUint64)
		vr.inFlight.Destroy(c)
		vr.inFlight = nil
	}
	if vr.commandBuffer != nil {
		vr.commandBuffer.Free(c, c.GraphicsCommandPool)
		vr.commandBuffer = nil
	}
	if vr.target != nil {
		vr.target.Destroy(c)
		vr.target = nil
	}
	if vr.renderpass != nil {
		vr.renderpass.Destroy(c)
		vr.renderpass = nil
	}
	clear(vr.inputStates)
	if vr.ownsDevice {
		DeviceDestroy(c)
		vr.ownsDevice = false
	}
	return nil
}

// Renderpass is the pass pipelines bound by the host must be compatible with.
func (vr *VulkanRenderer) Renderpass() vk.RenderPass {
	if vr.renderpass == nil {
		return vk.NullRenderPass
	}
	return vr.renderpass.Handle
}

// Target is the image the last submitted frame rendered into.
func (vr *VulkanRenderer) Target() *RenderTarget {
	return vr.target
}

// Resize recreates the target at the start of the next frame.
func (vr *VulkanRenderer) Resize(width, height uint32) {
	if width == 0 || height == 0 || (width == vr.width && height == vr.height) {
		return
	}
	vr.width, vr.height = width, height
	vr.resized = true
}

func (vr *VulkanRenderer) recreateTarget() error {
	// the old target is idle once the in flight fence has signaled
	if vr.target != nil {
		vr.target.Destroy(vr.context)
	}
	target, err := RenderTargetCreate(vr.context, vr.renderpass, vr.width, vr.height)
	if err != nil {
		vr.target = nil
		return err
	}
	vr.target = target
	vr.resized = false
	core.LogDebug("vulkan render target resized to %dx%d", vr.width, vr.height)
	return nil
}

func (vr *VulkanRenderer) BeginFrame(deltaTime float64) error {
	if vr.commandBuffer == nil {
		return core.ErrBackendNotAvailable
	}
	if !vr.inFlight.Wait(vr.context, math.MaxUint64) {
		return fmt.Errorf("previous frame did not complete")
	}
	if vr.resized || vr.target == nil {
		if err := vr.recreateTarget(); err != nil {
			return err
		}
	}
	if err := vr.inFlight.Reset(vr.context); err != nil {
		return err
	}
	if err := vr.commandBuffer.Reset(); err != nil {
		return err
	}
	if err := vr.commandBuffer.Begin(true, false); err != nil {
		return err
	}
	if err := vr.renderpass.Begin(vr.commandBuffer, vr.target.Framebuffer); err != nil {
		return err
	}

	// pipelines take viewport and scissor as dynamic state
	handle := vr.commandBuffer.Handle
	vk.CmdSetViewport(handle, 0, 1, []vk.Viewport{{
		Width:    float32(vr.target.Framebuffer.Width),
		Height:   float32(vr.target.Framebuffer.Height),
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(handle, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: vr.target.Framebuffer.Width, Height: vr.target.Framebuffer.Height},
	}})
	vr.recording = true
	return nil
}

func (vr *VulkanRenderer) EndFrame(deltaTime float64) error {
	if !vr.recording {
		return fmt.Errorf("end frame without begin frame")
	}
	vr.recording = false
	vr.renderpass.End(vr.commandBuffer)
	if err := vr.commandBuffer.End(); err != nil {
		return err
	}
	return vr.commandBuffer.Submit(vr.context, vr.context.Device.GraphicsQueue, vr.inFlight)
}

func (vr *VulkanRenderer) RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error) {
	usage, err := BufferUsage(renderbufferType)
	if err != nil {
		return nil, err
	}
	var buffer *VulkanBuffer
	err = vr.context.Locks.SafeCall(BufferManagement, func() error {
		var err error
		buffer, err = NewVulkanBuffer(vr.context, totalSize, usage)
		return err
	})
	if err != nil {
		core.LogError("render buffer create: %s", err)
		return nil, err
	}
	return &metadata.RenderBuffer{
		RenderBufferType: renderbufferType,
		TotalSize:        totalSize,
		InternalData:     buffer,
	}, nil
}

func (vr *VulkanRenderer) RenderBufferLoadRange(rb *metadata.RenderBuffer, offset uint64, data []byte) error {
	buffer, ok := rb.InternalData.(*VulkanBuffer)
	if !ok {
		return fmt.Errorf("render buffer has no vulkan buffer")
	}
	return vr.context.Locks.SafeCall(MemoryManagement, func() error {
		return buffer.LoadData(vr.context, offset, data)
	})
}

func (vr *VulkanRenderer) RenderBufferDestroy(rb *metadata.RenderBuffer) {
	buffer, ok := rb.InternalData.(*VulkanBuffer)
	if !ok {
		return
	}
	// the buffer may still be read by the frame in flight
	if vr.inFlight != nil {
		vr.inFlight.Wait(vr.context, math.MaxUint64)
	}
	_ = vr.context.Locks.SafeCall(BufferManagement, func() error {
		buffer.Destroy(vr.context)
		return nil
	})
	rb.InternalData = nil
}

func (vr *VulkanRenderer) inputState(cmd *metadata.InstancedDrawCommand) (*VertexInputState, error) {
	state, err := InstancedVertexInput(cmd.VertexLayout, cmd.VertexStride, cmd.InstanceLayout, cmd.InstanceStride)
	if err != nil {
		return nil, err
	}
	key := state.Key()
	if cached, ok := vr.inputStates[key]; ok {
		return cached, nil
	}
	vr.inputStates[key] = state
	return state, nil
}

// DrawInstanced binds the geometry and instance streams and records one
// indexed draw. Draws without a bound pipeline are dropped.
func (vr *VulkanRenderer) DrawInstanced(cmd *metadata.InstancedDrawCommand) {
	if !vr.recording || cmd.IndexCount == 0 || cmd.InstanceCount == 0 {
		return
	}
	if cmd.VertexBuffer == nil || cmd.IndexBuffer == nil || cmd.InstanceBuffer == nil {
		return
	}
	vertices, vok := cmd.VertexBuffer.InternalData.(*VulkanBuffer)
	indices, iok := cmd.IndexBuffer.InternalData.(*VulkanBuffer)
	instances, nok := cmd.InstanceBuffer.InternalData.(*VulkanBuffer)
	if !vok || !iok || !nok {
		return
	}
	state, err := vr.inputState(cmd)
	if err != nil {
		core.LogWarn("instanced draw skipped: %s", err)
		return
	}

	handle := vr.commandBuffer.Handle
	if vr.context.BindPipeline == nil || !vr.context.BindPipeline(handle, cmd.Effect, state) {
		return
	}
	vk.CmdBindVertexBuffers(handle, vertexBinding, 2,
		[]vk.Buffer{vertices.Handle, instances.Handle},
		[]vk.DeviceSize{0, 0})
	vk.CmdBindIndexBuffer(handle, indices.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(handle, cmd.IndexCount, cmd.InstanceCount, cmd.FirstIndex, 0, 0)
}
