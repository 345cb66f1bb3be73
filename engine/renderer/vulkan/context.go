package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue

	DepthFormat vk.Format
}

// PipelineBinder binds the pipeline of effect for the given vertex input.
// It returns false when the effect has no usable pipeline, and the draw is
// skipped. Pipelines must be compatible with VulkanRenderer.Renderpass and
// take viewport and scissor as dynamic state.
type PipelineBinder func(cmd vk.CommandBuffer, effect *metadata.Effect, input *VertexInputState) bool

/**
 * @brief Device level objects the backend records into. A host that owns a
 * device fills Device, GraphicsCommandPool and BindPipeline; otherwise the
 * renderer creates the instance and device itself on Initialize.
 */
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Device    *VulkanDevice

	GraphicsCommandPool vk.CommandPool
	Locks               *VulkanLockPool

	BindPipeline PipelineBinder
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
