package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

/**
 * @brief A host visible device buffer. Instanced draws read vertex, index
 * and instance data straight from these.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Usage  vk.BufferUsageFlagBits
}

// BufferUsage maps a render buffer type to the Vulkan usage bits.
func BufferUsage(bufferType metadata.RenderBufferType) (vk.BufferUsageFlagBits, error) {
	switch bufferType {
	case metadata.RENDERBUFFER_TYPE_VERTEX, metadata.RENDERBUFFER_TYPE_INSTANCE:
		return vk.BufferUsageVertexBufferBit | vk.BufferUsageTransferDstBit, nil
	case metadata.RENDERBUFFER_TYPE_INDEX:
		return vk.BufferUsageIndexBufferBit | vk.BufferUsageTransferDstBit, nil
	case metadata.RENDERBUFFER_TYPE_UNIFORM:
		return vk.BufferUsageUniformBufferBit | vk.BufferUsageTransferDstBit, nil
	default:
		return 0, fmt.Errorf("unsupported render buffer type %d", bufferType)
	}
}

func NewVulkanBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlagBits) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("cannot create an empty buffer")
	}
	device := context.Device.LogicalDevice
	b := &VulkanBuffer{Size: size, Usage: usage}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := resultError("create buffer", vk.CreateBuffer(device, &createInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	b.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	flags := uint32(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, flags)
	if memoryIndex < 0 {
		b.Destroy(context)
		return nil, fmt.Errorf("no host visible memory type for buffer")
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if err := resultError("allocate buffer memory", vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory)); err != nil {
		b.Destroy(context)
		return nil, err
	}
	b.Memory = memory

	if err := resultError("bind buffer memory", vk.BindBufferMemory(device, handle, memory, 0)); err != nil {
		b.Destroy(context)
		return nil, err
	}
	return b, nil
}

// LoadData copies data into the buffer at offset.
func (b *VulkanBuffer) LoadData(context *VulkanContext, offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.Size {
		return fmt.Errorf("load range [%d, %d) exceeds buffer size %d", offset, offset+uint64(len(data)), b.Size)
	}
	if len(data) == 0 {
		return nil
	}
	device := context.Device.LogicalDevice
	var mapped unsafe.Pointer
	if err := resultError("map buffer memory", vk.MapMemory(device, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &mapped)); err != nil {
		return err
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(device, b.Memory)
	return nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}
