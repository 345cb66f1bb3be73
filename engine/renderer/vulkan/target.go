package vulkan

import (
	vk "github.com/goki/vulkan"
)

const targetColorFormat = vk.FormatR8g8b8a8Unorm

// RenderTarget is the offscreen color and depth pair a frame renders into.
type RenderTarget struct {
	Color       *VulkanImage
	Depth       *VulkanImage
	Framebuffer *VulkanFramebuffer
}

func RenderTargetCreate(context *VulkanContext, renderpass *VulkanRenderpass, width, height uint32) (*RenderTarget, error) {
	rt := &RenderTarget{}
	var err error
	rt.Color, err = ImageCreate(context, width, height, targetColorFormat,
		vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferSrcBit, vk.ImageAspectColorBit)
	if err != nil {
		return nil, err
	}
	rt.Depth, err = ImageCreate(context, width, height, context.Device.DepthFormat,
		vk.ImageUsageDepthStencilAttachmentBit, vk.ImageAspectDepthBit)
	if err != nil {
		rt.Destroy(context)
		return nil, err
	}
	rt.Framebuffer, err = FramebufferCreate(context, renderpass, width, height, []vk.ImageView{rt.Color.View, rt.Depth.View})
	if err != nil {
		rt.Destroy(context)
		return nil, err
	}
	return rt, nil
}

func (rt *RenderTarget) Destroy(context *VulkanContext) {
	if rt.Framebuffer != nil {
		rt.Framebuffer.Destroy(context)
		rt.Framebuffer = nil
	}
	if rt.Depth != nil {
		rt.Depth.Destroy(context)
		rt.Depth = nil
	}
	if rt.Color != nil {
		rt.Color.Destroy(context)
		rt.Color = nil
	}
}
